// Package job owns the merge job lifecycle: the persisted job record, the
// store abstraction it lives in, and the controller that drives a job
// through a merge run.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/repomerge/internal/merge"
)

// Status is the lifecycle state of a merge job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal returns true if the status is a final state. Terminal jobs are
// never transitioned again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// SourceKind selects which FileSource implementation resolves a side.
type SourceKind string

const (
	SourceGitHub SourceKind = "github"
	SourceGitDir SourceKind = "gitdir"
)

// Side describes one input repository of a merge job.
type Side struct {
	Kind   SourceKind `json:"kind"`
	Ident  string     `json:"ident"`
	Branch string     `json:"branch,omitempty"`
}

// Job is one merge request and, once completed, its full result. A job is
// created pending, transitions to processing when a merge starts, and ends
// completed or failed. Results are persisted all-or-nothing: a completed
// job carries the entire result set, a failed job carries none of it.
type Job struct {
	ID       string `json:"id"`
	Status   Status `json:"status"`
	Provider string `json:"provider,omitempty"`

	SideA Side `json:"sideA"`
	SideB Side `json:"sideB"`

	MergedFiles []merge.MergedFile `json:"mergedFiles,omitempty"`
	Conflicts   []merge.Conflict   `json:"conflicts,omitempty"`
	Summary     *merge.Summary     `json:"summary,omitempty"`

	ErrorMessage string `json:"errorMessage,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewJobID generates a UUID v4 string.
func NewJobID() string {
	return uuid.NewString()
}
