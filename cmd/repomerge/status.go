package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/dusk-indust/repomerge/internal/job"
)

func runStatus(args []string) error {
	var server string

	fs := flag.NewFlagSet("repomerge status", flag.ContinueOnError)
	fs.StringVar(&server, "server", "http://localhost:8080", "base URL of a running repomerge server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if id := fs.Arg(0); id != "" {
		return printJob(server, id)
	}
	return printJobList(server)
}

func printJob(server, id string) error {
	var j job.Job
	if err := getJSON(server+"/api/v1/jobs/"+id, &j); err != nil {
		return err
	}

	fmt.Printf("Job:      %s\n", j.ID)
	fmt.Printf("Status:   %s\n", j.Status)
	if j.Provider != "" {
		fmt.Printf("Provider: %s\n", j.Provider)
	}
	fmt.Printf("Side A:   %s\n", formatSide(j.SideA))
	fmt.Printf("Side B:   %s\n", formatSide(j.SideB))
	fmt.Printf("Created:  %s\n", j.CreatedAt.Format(time.RFC3339))
	if j.CompletedAt != nil {
		fmt.Printf("Finished: %s\n", j.CompletedAt.Format(time.RFC3339))
	}

	if j.ErrorMessage != "" {
		fmt.Printf("\nError: %s\n", j.ErrorMessage)
	}
	if j.Summary != nil {
		fmt.Printf("\nSummary: %d files, %d conflicts resolved, %d lines added\n",
			j.Summary.TotalFiles, j.Summary.ConflictsResolvedCount, j.Summary.LinesAddedCount)
	}
	return nil
}

func printJobList(server string) error {
	var resp struct {
		Jobs  []job.Job `json:"jobs"`
		Count int       `json:"count"`
	}
	if err := getJSON(server+"/api/v1/jobs", &resp); err != nil {
		return err
	}

	if resp.Count == 0 {
		fmt.Println("No jobs found.")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %s\n", "ID", "STATUS", "SIDES")
	for _, j := range resp.Jobs {
		fmt.Printf("%-36s  %-10s  %s + %s\n", j.ID, j.Status, formatSide(j.SideA), formatSide(j.SideB))
	}
	return nil
}

func formatSide(s job.Side) string {
	out := fmt.Sprintf("%s:%s", s.Kind, s.Ident)
	if s.Branch != "" {
		out += "@" + s.Branch
	}
	return out
}

// getJSON fetches url and decodes the body, surfacing the server's error
// envelope on non-2xx responses.
func getJSON(url string, out any) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
			return fmt.Errorf("server: %s (%s)", envelope.Error.Message, envelope.Error.Code)
		}
		return fmt.Errorf("server: unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
