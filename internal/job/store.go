package job

import (
	"context"
	"errors"
)

// Store errors. Callers discriminate with errors.Is, never by message text.
var (
	// ErrNotFound reports that no job with the given ID exists.
	ErrNotFound = errors.New("job: not found")
	// ErrExists reports a Create with an ID that is already stored.
	ErrExists = errors.New("job: already exists")
	// ErrNotPending reports a merge request against a job that has left
	// the pending state.
	ErrNotPending = errors.New("job: not pending")
)

// Store persists merge jobs. Implementations must be safe for concurrent
// use and must give read-your-writes visibility within the process: a Get
// following a successful Create or Update observes that write.
type Store interface {
	// Create stores a new job. Fails with ErrExists on an ID collision.
	Create(ctx context.Context, j *Job) error

	// Get returns the job with the given ID, or ErrNotFound. The result
	// is a private copy, safe to mutate.
	Get(ctx context.Context, id string) (*Job, error)

	// Update applies mutate to the stored job atomically with respect to
	// other store calls. Fails with ErrNotFound for unknown IDs.
	Update(ctx context.Context, id string, mutate func(*Job)) error

	// Delete removes the job entirely, or fails with ErrNotFound.
	Delete(ctx context.Context, id string) error

	// DeleteFiles drops the job's merged-file payload while keeping the
	// job record, its conflicts, and its summary.
	DeleteFiles(ctx context.Context, id string) error

	// List returns jobs in creation order. offset skips that many jobs;
	// limit caps the result when positive.
	List(ctx context.Context, limit, offset int) ([]*Job, error)
}
