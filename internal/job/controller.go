package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/repomerge/internal/llm"
	"github.com/dusk-indust/repomerge/internal/merge"
	"github.com/dusk-indust/repomerge/internal/source"
)

// ReasonerFactory builds the reasoner for a job's provider name. It is
// called once per merge run, so the whole job uses a single provider.
type ReasonerFactory func(provider string) (merge.Reasoner, error)

// Controller drives jobs through the merge pipeline. It owns the status
// transitions; everything below it (sources, orchestrator) is stateless.
type Controller struct {
	store       Store
	sources     map[SourceKind]source.FileSource
	reasoners   ReasonerFactory
	concurrency int
}

// NewController creates a Controller. concurrency bounds per-file provider
// calls within each merge phase; <= 0 keeps the orchestrator default.
func NewController(store Store, sources map[SourceKind]source.FileSource, reasoners ReasonerFactory, concurrency int) *Controller {
	return &Controller{
		store:       store,
		sources:     sources,
		reasoners:   reasoners,
		concurrency: concurrency,
	}
}

// Handle tracks one running merge. Done closes when the run has finished
// and its outcome has been persisted; Err is valid after that.
type Handle struct {
	jobID string
	done  chan struct{}
	err   error
}

// JobID returns the ID of the job this handle tracks.
func (h *Handle) JobID() string {
	return h.jobID
}

// Done returns a channel that closes when the merge run has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the run's failure, if any. Only valid after Done has closed.
func (h *Handle) Err() error {
	return h.err
}

// StartMerge transitions a pending job to processing and launches the merge
// run in the background. The transition is atomic: a job that is anything
// but pending is left untouched and ErrNotPending is returned. The
// processing status is persisted before StartMerge returns, so a status
// read immediately after never observes pending.
func (c *Controller) StartMerge(ctx context.Context, id string) (*Handle, error) {
	var (
		prev     Status
		snapshot Job
	)
	err := c.store.Update(ctx, id, func(j *Job) {
		prev = j.Status
		if j.Status != StatusPending {
			return
		}
		j.Status = StatusProcessing
		snapshot = *j
	})
	if err != nil {
		return nil, err
	}
	if prev != StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotPending, id, prev)
	}

	h := &Handle{jobID: id, done: make(chan struct{})}

	// The run outlives the request that started it.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(h.done)
		h.err = c.run(runCtx, snapshot)
	}()

	return h, nil
}

// run executes the merge and persists the outcome. Success stores the full
// result set in one update; failure stores only the failure. Nothing
// partial is ever persisted.
func (c *Controller) run(ctx context.Context, j Job) error {
	result, err := c.executeMerge(ctx, j)
	now := time.Now().UTC()

	if err != nil {
		log.Printf("job: %s: merge failed: %v", j.ID, err)
		uerr := c.store.Update(ctx, j.ID, func(stored *Job) {
			stored.Status = StatusFailed
			stored.ErrorMessage = userMessage(err)
			stored.CompletedAt = &now
		})
		if uerr != nil {
			log.Printf("job: %s: record failure: %v", j.ID, uerr)
		}
		return err
	}

	uerr := c.store.Update(ctx, j.ID, func(stored *Job) {
		stored.Status = StatusCompleted
		stored.MergedFiles = result.MergedFiles
		stored.Conflicts = result.Conflicts
		stored.Summary = &result.Summary
		stored.CompletedAt = &now
	})
	if uerr != nil {
		log.Printf("job: %s: record result: %v", j.ID, uerr)
		return uerr
	}

	log.Printf("job: %s: merged %d files, %d conflicts", j.ID,
		result.Summary.MergedFileCount, result.Summary.ConflictsResolvedCount)
	return nil
}

// executeMerge fetches both sides concurrently and runs them through the
// orchestrator with a reasoner selected once for the whole job.
func (c *Controller) executeMerge(ctx context.Context, j Job) (*merge.Result, error) {
	reasoner, err := c.reasoners(j.Provider)
	if err != nil {
		return nil, fmt.Errorf("select provider: %w", err)
	}

	srcA, err := c.sourceFor(j.SideA.Kind)
	if err != nil {
		return nil, fmt.Errorf("side A: %w", err)
	}
	srcB, err := c.sourceFor(j.SideB.Kind)
	if err != nil {
		return nil, fmt.Errorf("side B: %w", err)
	}

	var filesA, filesB []merge.File
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		filesA, err = srcA.FetchFiles(gctx, j.SideA.Ident, j.SideA.Branch)
		if err != nil {
			return fmt.Errorf("fetch side A: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		filesB, err = srcB.FetchFiles(gctx, j.SideB.Ident, j.SideB.Branch)
		if err != nil {
			return fmt.Errorf("fetch side B: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	orch := merge.NewOrchestrator(reasoner, merge.WithConcurrency(c.concurrency))
	return orch.Merge(ctx, filesA, filesB)
}

func (c *Controller) sourceFor(kind SourceKind) (source.FileSource, error) {
	src, ok := c.sources[kind]
	if !ok {
		return nil, fmt.Errorf("no source registered for kind %q", kind)
	}
	return src, nil
}

// userMessage converts a run failure into the message stored on the job.
// Source failures map from their typed kind so the stored text is stable
// and readable regardless of the underlying error chain.
func userMessage(err error) string {
	switch source.KindOf(err) {
	case source.KindRateLimit:
		return "repository host rate limit exceeded; retry the merge later"
	case source.KindAuth:
		return "repository access was denied; check the configured token"
	case source.KindNotFound:
		return "repository or branch not found"
	case source.KindTruncated:
		return "repository tree is too large to list completely"
	case source.KindTransport:
		return "could not reach the repository host"
	}
	if errors.Is(err, llm.ErrUnknownBackend) {
		return "unknown reasoning provider requested"
	}
	return err.Error()
}
