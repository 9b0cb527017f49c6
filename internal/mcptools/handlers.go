package mcptools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/repomerge/internal/job"
)

// MergeService holds the job store and controller used by MCP tool handlers.
type MergeService struct {
	store job.Store
	ctrl  *job.Controller
}

// NewMergeService creates a MergeService over the given store and controller.
func NewMergeService(store job.Store, ctrl *job.Controller) *MergeService {
	return &MergeService{store: store, ctrl: ctrl}
}

// CreateMergeJob registers a new merge job in the pending state. The job does
// not run until start_merge is called.
func (s *MergeService) CreateMergeJob(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateMergeJobInput,
) (*mcp.CallToolResult, CreateMergeJobOutput, error) {
	sideA, err := sideFromInput("sideA", input.SideA)
	if err != nil {
		return nil, CreateMergeJobOutput{}, err
	}
	sideB, err := sideFromInput("sideB", input.SideB)
	if err != nil {
		return nil, CreateMergeJobOutput{}, err
	}
	switch input.Provider {
	case "", "anthropic", "openai":
	default:
		return nil, CreateMergeJobOutput{}, fmt.Errorf("provider must be anthropic or openai, got %q", input.Provider)
	}

	j := &job.Job{
		ID:        job.NewJobID(),
		Status:    job.StatusPending,
		Provider:  input.Provider,
		SideA:     sideA,
		SideB:     sideB,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, j); err != nil {
		return nil, CreateMergeJobOutput{}, fmt.Errorf("create job: %w", err)
	}

	return nil, CreateMergeJobOutput{JobID: j.ID, Status: j.Status}, nil
}

// StartMerge moves a pending job into processing and launches the merge in
// the background. The returned status reflects the job after the transition.
func (s *MergeService) StartMerge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StartMergeInput,
) (*mcp.CallToolResult, StartMergeOutput, error) {
	if input.JobID == "" {
		return nil, StartMergeOutput{}, fmt.Errorf("jobId is required")
	}

	if _, err := s.ctrl.StartMerge(ctx, input.JobID); err != nil {
		switch {
		case errors.Is(err, job.ErrNotFound):
			return nil, StartMergeOutput{}, fmt.Errorf("job %s not found", input.JobID)
		case errors.Is(err, job.ErrNotPending):
			return nil, StartMergeOutput{}, fmt.Errorf("job %s has already left the pending state", input.JobID)
		default:
			return nil, StartMergeOutput{}, fmt.Errorf("start merge: %w", err)
		}
	}

	j, err := s.store.Get(ctx, input.JobID)
	if err != nil {
		return nil, StartMergeOutput{}, fmt.Errorf("load job: %w", err)
	}
	return nil, StartMergeOutput{JobID: j.ID, Status: j.Status}, nil
}

// GetMergeStatus reports a job's lifecycle state, its error message when the
// merge failed, and its summary once the merge completed.
func (s *MergeService) GetMergeStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetMergeStatusInput,
) (*mcp.CallToolResult, GetMergeStatusOutput, error) {
	if input.JobID == "" {
		return nil, GetMergeStatusOutput{}, fmt.Errorf("jobId is required")
	}

	j, err := s.store.Get(ctx, input.JobID)
	if errors.Is(err, job.ErrNotFound) {
		return nil, GetMergeStatusOutput{}, fmt.Errorf("job %s not found", input.JobID)
	} else if err != nil {
		return nil, GetMergeStatusOutput{}, fmt.Errorf("load job: %w", err)
	}

	out := GetMergeStatusOutput{
		JobID:        j.ID,
		Status:       j.Status,
		ErrorMessage: j.ErrorMessage,
		Summary:      j.Summary,
		CreatedAt:    j.CreatedAt,
		CompletedAt:  j.CompletedAt,
	}
	return nil, out, nil
}

// GetMergeSummary returns the full merge outcome of a completed job: the
// summary, every recorded conflict, and the merged file paths.
func (s *MergeService) GetMergeSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetMergeSummaryInput,
) (*mcp.CallToolResult, GetMergeSummaryOutput, error) {
	if input.JobID == "" {
		return nil, GetMergeSummaryOutput{}, fmt.Errorf("jobId is required")
	}

	j, err := s.store.Get(ctx, input.JobID)
	if errors.Is(err, job.ErrNotFound) {
		return nil, GetMergeSummaryOutput{}, fmt.Errorf("job %s not found", input.JobID)
	} else if err != nil {
		return nil, GetMergeSummaryOutput{}, fmt.Errorf("load job: %w", err)
	}
	if j.Status != job.StatusCompleted {
		return nil, GetMergeSummaryOutput{}, fmt.Errorf("job %s is %s; the summary is available once the merge completes", j.ID, j.Status)
	}

	paths := make([]string, len(j.MergedFiles))
	for i, f := range j.MergedFiles {
		paths[i] = f.Path
	}

	out := GetMergeSummaryOutput{
		JobID:       j.ID,
		Conflicts:   j.Conflicts,
		MergedPaths: paths,
	}
	if j.Summary != nil {
		out.Summary = *j.Summary
	}
	return nil, out, nil
}

// ListMergeJobs returns compact rows for stored jobs in creation order.
func (s *MergeService) ListMergeJobs(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListMergeJobsInput,
) (*mcp.CallToolResult, ListMergeJobsOutput, error) {
	if input.Limit < 0 || input.Offset < 0 {
		return nil, ListMergeJobsOutput{}, fmt.Errorf("limit and offset must be non-negative")
	}

	jobs, err := s.store.List(ctx, input.Limit, input.Offset)
	if err != nil {
		return nil, ListMergeJobsOutput{}, fmt.Errorf("list jobs: %w", err)
	}

	rows := make([]JobRow, len(jobs))
	for i, j := range jobs {
		rows[i] = JobRow{
			JobID:     j.ID,
			Status:    j.Status,
			Provider:  j.Provider,
			SideA:     j.SideA,
			SideB:     j.SideB,
			CreatedAt: j.CreatedAt,
		}
	}
	return nil, ListMergeJobsOutput{Jobs: rows, Count: len(rows)}, nil
}

// sideFromInput validates one side of a create_merge_job request.
func sideFromInput(label string, in SideInput) (job.Side, error) {
	if in.Ident == "" {
		return job.Side{}, fmt.Errorf("%s.ident is required", label)
	}
	kind := job.SourceKind(in.Kind)
	switch kind {
	case job.SourceGitHub, job.SourceGitDir:
	default:
		return job.Side{}, fmt.Errorf("%s.kind must be github or gitdir, got %q", label, in.Kind)
	}
	return job.Side{Kind: kind, Ident: in.Ident, Branch: in.Branch}, nil
}
