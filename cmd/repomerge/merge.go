package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/repomerge/internal/archive"
	"github.com/dusk-indust/repomerge/internal/config"
	"github.com/dusk-indust/repomerge/internal/job"
	"github.com/dusk-indust/repomerge/internal/merge"
	"github.com/dusk-indust/repomerge/internal/source"
)

// mergeFlags holds the one-shot merge command's flags.
type mergeFlags struct {
	SideA       string
	SideAKind   string
	SideABranch string
	SideB       string
	SideBKind   string
	SideBBranch string
	Provider    string
	ConfigDir   string
	OutDir      string
	ZipPath     string
	Verbose     bool
}

func runMerge(args []string) error {
	var f mergeFlags

	fs := flag.NewFlagSet("repomerge merge", flag.ContinueOnError)
	fs.StringVar(&f.SideA, "a", "", "side A repository (owner/repo or local path)")
	fs.StringVar(&f.SideAKind, "a-kind", "github", "side A source kind: github or gitdir")
	fs.StringVar(&f.SideABranch, "a-branch", "", "side A branch (default: the repository default)")
	fs.StringVar(&f.SideB, "b", "", "side B repository (owner/repo or local path)")
	fs.StringVar(&f.SideBKind, "b-kind", "github", "side B source kind: github or gitdir")
	fs.StringVar(&f.SideBBranch, "b-branch", "", "side B branch (default: the repository default)")
	fs.StringVar(&f.Provider, "provider", "", "reasoning provider: anthropic or openai")
	fs.StringVar(&f.ConfigDir, "config", ".", "directory containing repomerge.yml")
	fs.StringVar(&f.OutDir, "out", "", "write merged files into this directory")
	fs.StringVar(&f.ZipPath, "zip", "", "write merged files as a zip archive")
	fs.BoolVar(&f.Verbose, "verbose", false, "print per-file progress lines instead of a bar")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if f.SideA == "" || f.SideB == "" {
		return fmt.Errorf("both -a and -b are required")
	}

	cfg, err := config.Load(f.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	sources := buildSources(cfg)

	srcA, err := sourceFor(sources, f.SideAKind)
	if err != nil {
		return fmt.Errorf("side A: %w", err)
	}
	srcB, err := sourceFor(sources, f.SideBKind)
	if err != nil {
		return fmt.Errorf("side B: %w", err)
	}

	var filesA, filesB []merge.File
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		filesA, err = srcA.FetchFiles(egctx, f.SideA, f.SideABranch)
		if err != nil {
			return fmt.Errorf("fetch side A: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		filesB, err = srcB.FetchFiles(egctx, f.SideB, f.SideBBranch)
		if err != nil {
			return fmt.Errorf("fetch side B: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "fetched %d files from side A, %d from side B\n", len(filesA), len(filesB))

	reasoner, err := reasonerFactory(cfg)(f.Provider)
	if err != nil {
		return fmt.Errorf("select provider: %w", err)
	}

	progress := merge.NewProgressReporter()
	progressDone := make(chan struct{})
	go consumeProgress(progress.Subscribe(), f.Verbose, progressDone)

	orch := merge.NewOrchestrator(reasoner,
		merge.WithConcurrency(cfg.Merge.Concurrency),
		merge.WithProgress(progress),
	)
	result, err := orch.Merge(ctx, filesA, filesB)
	progress.Close()
	<-progressDone
	if err != nil {
		return err
	}

	printSummary(result)

	if f.OutDir != "" {
		if err := archive.WriteTree(f.OutDir, result.MergedFiles); err != nil {
			return err
		}
		fmt.Printf("\nMerged tree written to %s\n", f.OutDir)
	}
	if f.ZipPath != "" {
		if err := writeZip(f.ZipPath, result.MergedFiles); err != nil {
			return err
		}
		fmt.Printf("\nArchive written to %s\n", f.ZipPath)
	}
	if f.OutDir == "" && f.ZipPath == "" {
		fmt.Fprintln(os.Stderr, "\nno output written (use -out or -zip)")
	}
	return nil
}

// consumeProgress drains orchestrator events. In bar mode the phase-level
// pending events size the bar and every per-file terminal event advances it.
func consumeProgress(events <-chan merge.ProgressEvent, verbose bool, done chan<- struct{}) {
	defer close(done)

	var bar *pb.ProgressBar
	total := 0

	for ev := range events {
		if verbose {
			if ev.Path != "" {
				fmt.Fprintln(os.Stderr, merge.FormatProgress(ev))
			}
			continue
		}

		switch {
		case ev.Path == "" && ev.Status == merge.ProgressPending:
			total += ev.Total
			if bar == nil && total > 0 {
				bar = pb.New(total)
				bar.SetWriter(os.Stderr)
				bar.Start()
			} else if bar != nil {
				bar.SetTotal(int64(total))
			}
		case ev.Path != "" && ev.Status != merge.ProgressWorking:
			if bar != nil {
				bar.Increment()
			}
		}
	}

	if bar != nil {
		bar.Finish()
	}
}

// sourceFor maps a flag value onto one of the wired sources.
func sourceFor(sources map[job.SourceKind]source.FileSource, kind string) (source.FileSource, error) {
	src, ok := sources[job.SourceKind(kind)]
	if !ok {
		return nil, fmt.Errorf("unknown source kind %q (want github or gitdir)", kind)
	}
	return src, nil
}

func printSummary(result *merge.Result) {
	s := result.Summary
	fmt.Printf("\nMerge complete: %d files, %d conflicts resolved, %d lines added\n",
		s.TotalFiles, s.ConflictsResolvedCount, s.LinesAddedCount)

	if len(result.Conflicts) > 0 {
		fmt.Printf("\nConflicts:\n")
		for _, c := range result.Conflicts {
			fmt.Printf("  %s [%s]\n", c.FilePath, c.Kind)
			if c.Description != "" {
				fmt.Printf("    %s\n", c.Description)
			}
			if c.Recommendation != "" {
				fmt.Printf("    recommendation: %s\n", c.Recommendation)
			}
		}
	}

	fmt.Printf("\nRecommendations:\n")
	for _, r := range s.Recommendations {
		fmt.Printf("  - %s\n", r)
	}
}

func writeZip(path string, files []merge.MergedFile) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := archive.Build(out, files); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
