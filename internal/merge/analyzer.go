package merge

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

// previewLimit caps conflict option previews, in characters.
const previewLimit = 200

// defaultConcurrency bounds per-file provider calls when no limit is given.
const defaultConcurrency = 4

// Analyzer asks the reasoning provider to classify divergence for common
// file pairs. A provider or parse failure for one pair degrades to no
// conflict recorded for that pair; the analyzer never fails a merge.
type Analyzer struct {
	reasoner    Reasoner
	concurrency int
	onProgress  func(ProgressEvent)
}

// NewAnalyzer creates an Analyzer. concurrency <= 0 selects the default
// limit; onProgress may be nil.
func NewAnalyzer(reasoner Reasoner, concurrency int, onProgress func(ProgressEvent)) *Analyzer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Analyzer{
		reasoner:    reasoner,
		concurrency: concurrency,
		onProgress:  onProgress,
	}
}

// AnalyzeConflicts classifies every common pair whose content differs.
// Identical pairs are skipped without a provider call. Per-pair calls run
// concurrently, but the returned conflicts follow the input pair order, not
// completion order.
func (a *Analyzer) AnalyzeConflicts(ctx context.Context, common []FilePair) []Conflict {
	results := make([]*Conflict, len(common))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, pair := range common {
		if pair.Identical() {
			a.emit(ProgressEvent{Phase: PhaseAnalyze, Path: pair.A.Path, Status: ProgressSkipped})
			continue
		}

		g.Go(func() error {
			a.emit(ProgressEvent{Phase: PhaseAnalyze, Path: pair.A.Path, Status: ProgressWorking})

			verdict, err := a.reasoner.ClassifyConflict(gctx, pair.A, pair.B)
			if err != nil {
				// Omitting a conflict is safer than failing the job.
				log.Printf("analyzer: classify %s: %v (no conflict recorded)", pair.A.Path, err)
				a.emit(ProgressEvent{Phase: PhaseAnalyze, Path: pair.A.Path, Status: ProgressFailed, Message: err.Error()})
				return nil
			}

			if verdict.HasConflict {
				c := buildConflict(pair, verdict)
				results[i] = &c
			}
			a.emit(ProgressEvent{Phase: PhaseAnalyze, Path: pair.A.Path, Status: ProgressComplete})
			return nil
		})
	}

	// Goroutines contain their own failures, so Wait only synchronizes.
	_ = g.Wait()

	conflicts := make([]Conflict, 0, len(common))
	for _, r := range results {
		if r != nil {
			conflicts = append(conflicts, *r)
		}
	}
	return conflicts
}

func (a *Analyzer) emit(ev ProgressEvent) {
	if a.onProgress != nil {
		a.onProgress(ev)
	}
}

// buildConflict assembles the fixed three-option conflict record for a pair.
func buildConflict(pair FilePair, v Verdict) Conflict {
	return Conflict{
		FilePath:       pair.A.Path,
		Kind:           ParseConflictKind(v.Kind),
		Description:    v.Description,
		Recommendation: v.Recommendation,
		Options: []ConflictOption{
			{Option: "use A", Preview: preview(pair.A.Content)},
			{Option: "use B", Preview: preview(pair.B.Content)},
			{Option: "AI-recommended merge", Preview: preview(v.Recommendation)},
		},
	}
}

// preview truncates s to previewLimit characters.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit])
}
