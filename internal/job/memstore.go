package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/dusk-indust/repomerge/internal/merge"
)

// MemoryStore is a concurrency-safe in-memory job store. Jobs live in a map
// keyed by ID with a separate slice maintaining insertion order for
// deterministic listing.
type MemoryStore struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	orderIDs []string // insertion-order job IDs
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an initialized MemoryStore ready for use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     make(map[string]*Job),
		orderIDs: make([]string, 0),
	}
}

func (s *MemoryStore) Create(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[j.ID]; exists {
		return fmt.Errorf("%w: %s", ErrExists, j.ID)
	}
	s.jobs[j.ID] = deepCopyJob(j)
	s.orderIDs = append(s.orderIDs, j.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return deepCopyJob(j), nil
}

// Update applies mutate to the stored job under the write lock, so the
// mutation is atomic with respect to every other store call.
func (s *MemoryStore) Update(_ context.Context, id string, mutate func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	mutate(j)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.jobs, id)
	for i, oid := range s.orderIDs {
		if oid == id {
			s.orderIDs = append(s.orderIDs[:i], s.orderIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) DeleteFiles(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	j.MergedFiles = nil
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset > len(s.orderIDs) {
		offset = len(s.orderIDs)
	}

	ids := s.orderIDs[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*Job, 0, len(ids))
	for _, id := range ids {
		out = append(out, deepCopyJob(s.jobs[id]))
	}
	return out, nil
}

// deepCopyJob returns a new Job that is a deep copy of src. Slice fields
// and nested change/option slices are independently copied so callers can
// mutate results without affecting the store.
func deepCopyJob(src *Job) *Job {
	dst := *src

	if src.MergedFiles != nil {
		dst.MergedFiles = make([]merge.MergedFile, len(src.MergedFiles))
		for i, f := range src.MergedFiles {
			dst.MergedFiles[i] = deepCopyMergedFile(f)
		}
	}

	if src.Conflicts != nil {
		dst.Conflicts = make([]merge.Conflict, len(src.Conflicts))
		for i, c := range src.Conflicts {
			dst.Conflicts[i] = deepCopyConflict(c)
		}
	}

	if src.Summary != nil {
		sumCopy := *src.Summary
		if src.Summary.Recommendations != nil {
			sumCopy.Recommendations = make([]string, len(src.Summary.Recommendations))
			copy(sumCopy.Recommendations, src.Summary.Recommendations)
		}
		dst.Summary = &sumCopy
	}

	if src.CompletedAt != nil {
		at := *src.CompletedAt
		dst.CompletedAt = &at
	}

	return &dst
}

func deepCopyMergedFile(src merge.MergedFile) merge.MergedFile {
	dst := src
	if src.Changes != nil {
		dst.Changes = make([]merge.Change, len(src.Changes))
		copy(dst.Changes, src.Changes)
	}
	return dst
}

func deepCopyConflict(src merge.Conflict) merge.Conflict {
	dst := src
	if src.Options != nil {
		dst.Options = make([]merge.ConflictOption, len(src.Options))
		copy(dst.Options, src.Options)
	}
	return dst
}
