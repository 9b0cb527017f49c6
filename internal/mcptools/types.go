package mcptools

import (
	"time"

	"github.com/dusk-indust/repomerge/internal/job"
	"github.com/dusk-indust/repomerge/internal/merge"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// SideInput identifies one repository side of a merge.
type SideInput struct {
	Kind   string `json:"kind" jsonschema:"repository source kind: github or gitdir"`
	Ident  string `json:"ident" jsonschema:"repository identifier: owner/repo for github, a directory path for gitdir"`
	Branch string `json:"branch,omitempty" jsonschema:"branch to read (default: the repository's default branch)"`
}

// CreateMergeJobInput is the input for the create_merge_job MCP tool.
type CreateMergeJobInput struct {
	SideA    SideInput `json:"sideA" jsonschema:"the repository treated as side A; its content wins when fusion fails"`
	SideB    SideInput `json:"sideB" jsonschema:"the repository merged into side A"`
	Provider string    `json:"provider,omitempty" jsonschema:"reasoning provider: anthropic or openai (default: the server's configured provider)"`
}

// StartMergeInput is the input for the start_merge MCP tool.
type StartMergeInput struct {
	JobID string `json:"jobId" jsonschema:"the id of a pending merge job"`
}

// GetMergeStatusInput is the input for the get_merge_status MCP tool.
type GetMergeStatusInput struct {
	JobID string `json:"jobId" jsonschema:"the id of the merge job"`
}

// GetMergeSummaryInput is the input for the get_merge_summary MCP tool.
type GetMergeSummaryInput struct {
	JobID string `json:"jobId" jsonschema:"the id of a completed merge job"`
}

// ListMergeJobsInput is the input for the list_merge_jobs MCP tool.
type ListMergeJobsInput struct {
	Limit  int `json:"limit,omitempty" jsonschema:"maximum number of jobs to return (default: all)"`
	Offset int `json:"offset,omitempty" jsonschema:"number of jobs to skip, in creation order"`
}

// --- MCP Tool Output Types ---

// CreateMergeJobOutput is the result of the create_merge_job MCP tool.
type CreateMergeJobOutput struct {
	JobID  string     `json:"jobId"`
	Status job.Status `json:"status"`
}

// StartMergeOutput is the result of the start_merge MCP tool.
type StartMergeOutput struct {
	JobID  string     `json:"jobId"`
	Status job.Status `json:"status"`
}

// GetMergeStatusOutput is the result of the get_merge_status MCP tool.
type GetMergeStatusOutput struct {
	JobID        string         `json:"jobId"`
	Status       job.Status     `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Summary      *merge.Summary `json:"summary,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
}

// GetMergeSummaryOutput is the result of the get_merge_summary MCP tool.
type GetMergeSummaryOutput struct {
	JobID       string           `json:"jobId"`
	Summary     merge.Summary    `json:"summary"`
	Conflicts   []merge.Conflict `json:"conflicts"`
	MergedPaths []string         `json:"mergedPaths"`
}

// JobRow is one entry in the list_merge_jobs result.
type JobRow struct {
	JobID     string     `json:"jobId"`
	Status    job.Status `json:"status"`
	Provider  string     `json:"provider,omitempty"`
	SideA     job.Side   `json:"sideA"`
	SideB     job.Side   `json:"sideB"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ListMergeJobsOutput is the result of the list_merge_jobs MCP tool.
type ListMergeJobsOutput struct {
	Jobs  []JobRow `json:"jobs"`
	Count int      `json:"count"`
}
