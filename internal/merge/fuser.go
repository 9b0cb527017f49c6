package merge

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

// Fuser produces one MergedFile per distinct path. Unique files pass through
// without a provider call; differing common pairs go through the reasoning
// provider. A provider or parse failure for one pair falls back to side A's
// content verbatim; the fuser never fails a merge.
type Fuser struct {
	reasoner    Reasoner
	concurrency int
	onProgress  func(ProgressEvent)
}

// NewFuser creates a Fuser. concurrency <= 0 selects the default limit;
// onProgress may be nil.
func NewFuser(reasoner Reasoner, concurrency int, onProgress func(ProgressEvent)) *Fuser {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Fuser{
		reasoner:    reasoner,
		concurrency: concurrency,
		onProgress:  onProgress,
	}
}

// FuseAll produces the full merged file set for a classification: unique-to-A
// files first (side A order), then unique-to-B (side B order), then the fused
// common pairs (pair order). Per-pair fusion calls run concurrently, but the
// result slice always follows input order.
func (f *Fuser) FuseAll(ctx context.Context, cls Classification) []MergedFile {
	out := make([]MergedFile, 0, len(cls.UniqueToA)+len(cls.UniqueToB)+len(cls.Common))

	for _, file := range cls.UniqueToA {
		out = append(out, passThrough(file, OriginSideA))
	}
	for _, file := range cls.UniqueToB {
		out = append(out, passThrough(file, OriginSideB))
	}

	fused := make([]MergedFile, len(cls.Common))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, pair := range cls.Common {
		g.Go(func() error {
			fused[i] = f.FuseFile(gctx, pair)
			return nil
		})
	}

	// FuseFile contains its own failures, so Wait only synchronizes.
	_ = g.Wait()

	return append(out, fused...)
}

// FuseFile merges one common pair. Identical contents return unchanged with
// no provider call. On any provider or parse failure the result is side A's
// content with an empty change list; the fallback is never side B and never
// a partial fusion.
func (f *Fuser) FuseFile(ctx context.Context, pair FilePair) MergedFile {
	if pair.Identical() {
		f.emit(ProgressEvent{Phase: PhaseFuse, Path: pair.A.Path, Status: ProgressSkipped})
		return MergedFile{
			Path:    pair.A.Path,
			Content: pair.A.Content,
			Type:    pairType(pair),
			Changes: []Change{},
		}
	}

	f.emit(ProgressEvent{Phase: PhaseFuse, Path: pair.A.Path, Status: ProgressWorking})

	fusion, err := f.reasoner.FuseContent(ctx, pair.A, pair.B)
	if err != nil {
		log.Printf("fuser: fuse %s: %v (keeping side A)", pair.A.Path, err)
		f.emit(ProgressEvent{Phase: PhaseFuse, Path: pair.A.Path, Status: ProgressFailed, Message: err.Error()})
		return MergedFile{
			Path:    pair.A.Path,
			Content: pair.A.Content,
			Type:    pairType(pair),
			Changes: []Change{},
		}
	}

	changes := fusion.Changes
	if changes == nil {
		changes = []Change{}
	}

	f.emit(ProgressEvent{Phase: PhaseFuse, Path: pair.A.Path, Status: ProgressComplete})
	return MergedFile{
		Path:    pair.A.Path,
		Content: fusion.MergedContent,
		Type:    pairType(pair),
		Changes: changes,
	}
}

func (f *Fuser) emit(ev ProgressEvent) {
	if f.onProgress != nil {
		f.onProgress(ev)
	}
}

// passThrough wraps a single-side file as a MergedFile with one added change
// tagged to its side of origin.
func passThrough(f File, origin ChangeOrigin) MergedFile {
	return MergedFile{
		Path:    f.Path,
		Content: f.Content,
		Type:    f.Type,
		Changes: []Change{{
			Kind:       ChangeKindAdded,
			LineNumber: 1,
			Content:    f.Content,
			Origin:     origin,
		}},
	}
}

func pairType(pair FilePair) string {
	if pair.A.Type != "" {
		return pair.A.Type
	}
	return pair.B.Type
}
