// Package source fetches file collections from repositories so they can be
// fed into a merge. Two implementations exist: GitHub over the REST API and
// local clones over go-git. Failures carry a typed kind so callers can react
// to rate limiting or auth problems without inspecting message text.
package source

import (
	"context"

	"github.com/dusk-indust/repomerge/internal/merge"
)

// DefaultMaxFileBytes is the per-file size cap applied when a source has no
// explicit limit. Larger blobs are skipped rather than fetched; merging
// megabyte-scale files through a language model is not useful.
const DefaultMaxFileBytes = 1 << 20

// fileCap normalizes a configured per-file limit, treating zero and negative
// values as the default.
func fileCap(limit int64) int64 {
	if limit > 0 {
		return limit
	}
	return DefaultMaxFileBytes
}

// FileSource retrieves the full file collection of one repository side.
type FileSource interface {
	// FetchFiles returns the text files of the repository identified by
	// ident at the given branch. branch may be empty, selecting the
	// repository's default branch. Binary files and files over the size
	// cap are silently skipped.
	FetchFiles(ctx context.Context, ident, branch string) ([]merge.File, error)
}
