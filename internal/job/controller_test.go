package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/repomerge/internal/llm"
	"github.com/dusk-indust/repomerge/internal/merge"
	"github.com/dusk-indust/repomerge/internal/source"
)

// fakeSource serves scripted file sets keyed by repository ident.
type fakeSource struct {
	files map[string][]merge.File
	errs  map[string]error
}

func (f *fakeSource) FetchFiles(_ context.Context, ident, _ string) ([]merge.File, error) {
	if err := f.errs[ident]; err != nil {
		return nil, err
	}
	return f.files[ident], nil
}

// failingReasoner errors on every call. Merges of identical content never
// reach it, which is exactly what the tests rely on.
type failingReasoner struct{}

func (failingReasoner) ClassifyConflict(context.Context, merge.File, merge.File) (merge.Verdict, error) {
	return merge.Verdict{}, errors.New("reasoner must not be called")
}

func (failingReasoner) FuseContent(context.Context, merge.File, merge.File) (merge.Fusion, error) {
	return merge.Fusion{}, errors.New("reasoner must not be called")
}

func staticFactory(r merge.Reasoner) ReasonerFactory {
	return func(string) (merge.Reasoner, error) { return r, nil }
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("merge run did not finish")
	}
}

func TestController_StartMergeCompletesJob(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingJob("ok-1")))

	src := &fakeSource{files: map[string][]merge.File{
		"acme/app-a": {{Path: "x.txt", Content: "hello", Type: "text"}},
		"acme/app-b": {{Path: "x.txt", Content: "hello", Type: "text"}},
	}}
	ctrl := NewController(store, map[SourceKind]source.FileSource{SourceGitHub: src},
		staticFactory(failingReasoner{}), 0)

	h, err := ctrl.StartMerge(ctx, "ok-1")
	require.NoError(t, err)
	assert.Equal(t, "ok-1", h.JobID())

	waitDone(t, h)
	require.NoError(t, h.Err())

	got, err := store.Get(ctx, "ok-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.CompletedAt)
	require.Len(t, got.MergedFiles, 1)
	assert.Equal(t, "hello", got.MergedFiles[0].Content)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 1, got.Summary.TotalFiles)
}

func TestController_StartMergeRejectsNonPending(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	j := pendingJob("busy-1")
	j.Status = StatusProcessing
	require.NoError(t, store.Create(ctx, j))

	ctrl := NewController(store, nil, staticFactory(failingReasoner{}), 0)

	_, err := ctrl.StartMerge(ctx, "busy-1")
	require.ErrorIs(t, err, ErrNotPending)

	got, err := store.Get(ctx, "busy-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status, "rejected request must not mutate the job")
}

func TestController_StartMergeRejectsTerminalJob(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, completedJob("done-1")))

	ctrl := NewController(store, nil, staticFactory(failingReasoner{}), 0)

	_, err := ctrl.StartMerge(ctx, "done-1")
	require.ErrorIs(t, err, ErrNotPending)
}

func TestController_StartMergeUnknownJob(t *testing.T) {
	ctrl := NewController(NewMemoryStore(), nil, staticFactory(failingReasoner{}), 0)

	_, err := ctrl.StartMerge(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

// blockingSource holds every fetch until released, so the test can observe
// the job mid-run.
type blockingSource struct {
	release chan struct{}
	files   []merge.File
}

func (b *blockingSource) FetchFiles(_ context.Context, _, _ string) ([]merge.File, error) {
	<-b.release
	return b.files, nil
}

func TestController_ProcessingIsPersistedBeforeReturn(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingJob("slow-1")))

	src := &blockingSource{
		release: make(chan struct{}),
		files:   []merge.File{{Path: "x.txt", Content: "same", Type: "text"}},
	}
	ctrl := NewController(store, map[SourceKind]source.FileSource{SourceGitHub: src},
		staticFactory(failingReasoner{}), 0)

	h, err := ctrl.StartMerge(ctx, "slow-1")
	require.NoError(t, err)

	got, err := store.Get(ctx, "slow-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status, "processing must be visible as soon as StartMerge returns")

	close(src.release)
	waitDone(t, h)

	got, err = store.Get(ctx, "slow-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestController_SourceFailureFailsJobWithTypedMessage(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingJob("auth-1")))

	src := &fakeSource{
		files: map[string][]merge.File{
			"acme/app-a": {{Path: "x.txt", Content: "hello", Type: "text"}},
		},
		errs: map[string]error{
			"acme/app-b": &source.Error{Kind: source.KindAuth, Ident: "acme/app-b", Err: errors.New("401")},
		},
	}
	ctrl := NewController(store, map[SourceKind]source.FileSource{SourceGitHub: src},
		staticFactory(failingReasoner{}), 0)

	h, err := ctrl.StartMerge(ctx, "auth-1")
	require.NoError(t, err)
	waitDone(t, h)
	require.Error(t, h.Err())

	got, err := store.Get(ctx, "auth-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "repository access was denied; check the configured token", got.ErrorMessage)
	require.NotNil(t, got.CompletedAt)

	// Full failure: the side that fetched cleanly leaves no partial result.
	assert.Empty(t, got.MergedFiles)
	assert.Empty(t, got.Conflicts)
	assert.Nil(t, got.Summary)
}

func TestController_UnknownProviderFailsJob(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, pendingJob("prov-1")))

	factory := func(provider string) (merge.Reasoner, error) {
		return nil, llm.ErrUnknownBackend
	}
	src := &fakeSource{}
	ctrl := NewController(store, map[SourceKind]source.FileSource{SourceGitHub: src}, factory, 0)

	h, err := ctrl.StartMerge(ctx, "prov-1")
	require.NoError(t, err)
	waitDone(t, h)
	require.Error(t, h.Err())

	got, err := store.Get(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "unknown reasoning provider requested", got.ErrorMessage)
}

func TestUserMessage_MapsSourceKinds(t *testing.T) {
	tests := []struct {
		kind source.ErrorKind
		want string
	}{
		{source.KindRateLimit, "repository host rate limit exceeded; retry the merge later"},
		{source.KindNotFound, "repository or branch not found"},
		{source.KindTruncated, "repository tree is too large to list completely"},
		{source.KindTransport, "could not reach the repository host"},
	}
	for _, tt := range tests {
		err := &source.Error{Kind: tt.kind, Ident: "acme/x"}
		assert.Equal(t, tt.want, userMessage(err), string(tt.kind))
	}

	plain := errors.New("something else broke")
	assert.Equal(t, "something else broke", userMessage(plain))
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestNewJobID_Unique(t *testing.T) {
	a := NewJobID()
	b := NewJobID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
