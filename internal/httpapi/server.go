// Package httpapi exposes the merge job API over HTTP. Every error payload
// uses one envelope shape so clients can rely on error.code without parsing
// message text.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dusk-indust/repomerge/internal/archive"
	"github.com/dusk-indust/repomerge/internal/job"
)

// Server serves the job API. The optional MCP handler is mounted at /mcp.
type Server struct {
	store job.Store
	ctrl  *job.Controller
	mcp   http.Handler
	http  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMCPHandler mounts h at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

// NewServer creates a Server over the given store and controller.
func NewServer(store job.Store, ctrl *job.Controller, opts ...Option) *Server {
	s := &Server{store: store, ctrl: ctrl}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/v1/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/merge", s.handleStartMerge)
	mux.HandleFunc("GET /api/v1/jobs/{id}/archive", s.handleArchive)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}/files", s.handleDeleteFiles)

	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
	}

	return mux
}

// Start begins serving on addr in a background goroutine.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpapi: serve: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createJobRequest is the body of POST /api/v1/jobs.
type createJobRequest struct {
	SideA    job.Side `json:"sideA"`
	SideB    job.Side `json:"sideB"`
	Provider string   `json:"provider,omitempty"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body: "+err.Error())
		return
	}
	if msg := validateCreate(req); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	j := &job.Job{
		ID:        job.NewJobID(),
		Status:    job.StatusPending,
		Provider:  req.Provider,
		SideA:     req.SideA,
		SideB:     req.SideB,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(r.Context(), j); err != nil {
		s.writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, j)
}

// validateCreate returns a rejection message, or "" when the request is
// acceptable.
func validateCreate(req createJobRequest) string {
	for _, side := range []struct {
		name string
		s    job.Side
	}{{"sideA", req.SideA}, {"sideB", req.SideB}} {
		if side.s.Ident == "" {
			return side.name + ": ident is required"
		}
		switch side.s.Kind {
		case job.SourceGitHub, job.SourceGitDir:
		default:
			return fmt.Sprintf("%s: unknown source kind %q", side.name, side.s.Kind)
		}
	}
	switch req.Provider {
	case "", "anthropic", "openai":
	default:
		return fmt.Sprintf("unknown provider %q", req.Provider)
	}
	return ""
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	jobs, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (s *Server) handleStartMerge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := s.ctrl.StartMerge(r.Context(), id); err != nil {
		s.writeJobError(w, err)
		return
	}

	// Snapshot after the transition so the client sees processing.
	j, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	j, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	if j.Status != job.StatusCompleted {
		writeError(w, http.StatusConflict, "conflict",
			fmt.Sprintf("job is %s; archives are only available for completed jobs", j.Status))
		return
	}

	// Build into memory first so a packaging failure can still produce a
	// JSON error instead of a half-written archive.
	var buf bytes.Buffer
	if err := archive.Build(&buf, j.MergedFiles); err != nil {
		log.Printf("httpapi: archive %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal", "could not package the merge result")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "merge-"+id+".zip"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDeleteFiles(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteFiles(r.Context(), r.PathValue("id")); err != nil {
		s.writeJobError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- JSON helpers ---

// errorEnvelope is the one error payload shape every route uses.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// writeJobError maps job-layer errors onto HTTP statuses.
func (s *Server) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, job.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, job.ErrNotPending):
		writeError(w, http.StatusConflict, "conflict", "job has already left the pending state")
	default:
		log.Printf("httpapi: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// queryInt parses an optional non-negative integer query parameter,
// writing a 400 and returning ok=false when it is malformed.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("%s must be a non-negative integer", name))
		return 0, false
	}
	return n, true
}
