// Package merge implements the merge orchestration core: classification of
// two file collections, provider-backed conflict analysis and content
// fusion, and deterministic summary aggregation.
package merge

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Orchestrator sequences the merge pipeline: classify, analyze and fuse,
// then summarize. Per-file failures are contained inside the analyzer and
// fuser; only structural failures surface from Merge, and they surface as a
// single wrapped error.
type Orchestrator struct {
	reasoner    Reasoner
	concurrency int
	progress    *ProgressReporter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency bounds concurrent per-file provider calls within each
// phase. Values <= 0 keep the default.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithProgress attaches a progress reporter. The orchestrator emits but
// never closes it; the owner decides when the stream ends.
func WithProgress(pr *ProgressReporter) Option {
	return func(o *Orchestrator) {
		o.progress = pr
	}
}

// NewOrchestrator creates an Orchestrator around the given reasoner.
func NewOrchestrator(reasoner Reasoner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reasoner:    reasoner,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Merge runs the full pipeline over two file collections. The analyzer and
// fuser phases run concurrently since both only read the classification.
func (o *Orchestrator) Merge(ctx context.Context, sideA, sideB []File) (*Result, error) {
	if o.reasoner == nil {
		return nil, errors.New("merge: reasoner is required")
	}
	if err := validateSide("side A", sideA); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := validateSide("side B", sideB); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	o.emit(ProgressEvent{Phase: PhaseClassify, Status: ProgressWorking})
	cls := Classify(sideA, sideB)
	o.emit(ProgressEvent{Phase: PhaseClassify, Status: ProgressComplete})

	o.emit(ProgressEvent{Phase: PhaseAnalyze, Status: ProgressPending, Total: len(cls.Common)})
	o.emit(ProgressEvent{Phase: PhaseFuse, Status: ProgressPending, Total: len(cls.Common)})

	analyzer := NewAnalyzer(o.reasoner, o.concurrency, o.emit)
	fuser := NewFuser(o.reasoner, o.concurrency, o.emit)

	var (
		conflicts   []Conflict
		mergedFiles []MergedFile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conflicts = analyzer.AnalyzeConflicts(gctx, cls.Common)
		return nil
	})
	g.Go(func() error {
		mergedFiles = fuser.FuseAll(gctx, cls)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	o.emit(ProgressEvent{Phase: PhaseSummary, Status: ProgressWorking})
	summary := BuildSummary(sideA, sideB, mergedFiles, conflicts)
	o.emit(ProgressEvent{Phase: PhaseSummary, Status: ProgressComplete})

	return &Result{
		MergedFiles: mergedFiles,
		Conflicts:   conflicts,
		Summary:     summary,
	}, nil
}

func (o *Orchestrator) emit(ev ProgressEvent) {
	if o.progress != nil {
		o.progress.Emit(ev)
	}
}

// validateSide enforces the input contract: non-empty paths, unique within
// the side. Violations are structural failures that abort the whole merge.
func validateSide(name string, files []File) error {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if f.Path == "" {
			return fmt.Errorf("%s: file with empty path", name)
		}
		if seen[f.Path] {
			return fmt.Errorf("%s: duplicate path %q", name, f.Path)
		}
		seen[f.Path] = true
	}
	return nil
}
