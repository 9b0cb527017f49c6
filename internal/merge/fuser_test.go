package merge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuseFile_IdenticalContentSkipsProvider(t *testing.T) {
	stub := &stubReasoner{}
	fuser := NewFuser(stub, 1, nil)

	pair := pairOf("same.go", "package main", "package main")
	merged := fuser.FuseFile(context.Background(), pair)

	assert.Equal(t, "same.go", merged.Path)
	assert.Equal(t, "package main", merged.Content)
	require.NotNil(t, merged.Changes)
	assert.Empty(t, merged.Changes)
	assert.Zero(t, stub.fuseCount(), "identical pairs must not reach the provider")
}

func TestFuseFile_FallsBackToSideAOnError(t *testing.T) {
	stub := &stubReasoner{
		fuseErrs: map[string]error{
			"broken.go": errors.New("model timeout"),
		},
	}
	fuser := NewFuser(stub, 1, nil)

	pair := pairOf("broken.go", "side A wins", "side B must not appear")
	merged := fuser.FuseFile(context.Background(), pair)

	assert.Equal(t, "side A wins", merged.Content)
	require.NotNil(t, merged.Changes)
	assert.Empty(t, merged.Changes, "fallback carries no change entries")
}

func TestFuseFile_UsesProviderFusion(t *testing.T) {
	stub := &stubReasoner{
		fusions: map[string]Fusion{
			"app.go": {
				MergedContent: "merged body",
				Changes: []Change{
					{Kind: ChangeKindAdded, LineNumber: 3, Content: "new line", Origin: OriginSideB},
					{Kind: ChangeKindModified, LineNumber: 1, Content: "tweaked", Origin: OriginGenerated},
				},
			},
		},
	}
	fuser := NewFuser(stub, 1, nil)

	merged := fuser.FuseFile(context.Background(), pairOf("app.go", "A body", "B body"))

	assert.Equal(t, "merged body", merged.Content)
	require.Len(t, merged.Changes, 2)
	assert.Equal(t, ChangeKindAdded, merged.Changes[0].Kind)
	assert.Equal(t, OriginSideB, merged.Changes[0].Origin)
}

func TestFuseFile_NilChangesBecomeEmptySlice(t *testing.T) {
	stub := &stubReasoner{
		fusions: map[string]Fusion{
			"app.go": {MergedContent: "merged", Changes: nil},
		},
	}
	fuser := NewFuser(stub, 1, nil)

	merged := fuser.FuseFile(context.Background(), pairOf("app.go", "A", "B"))

	require.NotNil(t, merged.Changes)
	assert.Empty(t, merged.Changes)
}

func TestFuseAll_PassesThroughUniqueFiles(t *testing.T) {
	stub := &stubReasoner{}
	fuser := NewFuser(stub, 2, nil)

	cls := Classification{
		UniqueToA: []File{{Path: "only_a.txt", Content: "alpha", Type: "text"}},
		UniqueToB: []File{{Path: "only_b.txt", Content: "beta", Type: "text"}},
	}

	merged := fuser.FuseAll(context.Background(), cls)

	require.Len(t, merged, 2)

	require.Len(t, merged[0].Changes, 1)
	assert.Equal(t, "only_a.txt", merged[0].Path)
	assert.Equal(t, "alpha", merged[0].Content)
	assert.Equal(t, ChangeKindAdded, merged[0].Changes[0].Kind)
	assert.Equal(t, OriginSideA, merged[0].Changes[0].Origin)

	require.Len(t, merged[1].Changes, 1)
	assert.Equal(t, OriginSideB, merged[1].Changes[0].Origin)

	assert.Zero(t, stub.fuseCount(), "unique files must not reach the provider")
}

func TestFuseAll_OrdersUniqueAThenUniqueBThenCommon(t *testing.T) {
	// slow.txt finishes after fast.txt; output order must not change.
	stub := &stubReasoner{
		delays: map[string]time.Duration{
			"slow.txt": 30 * time.Millisecond,
		},
	}
	fuser := NewFuser(stub, 2, nil)

	cls := Classification{
		UniqueToA: []File{{Path: "a1.txt", Content: "a1"}, {Path: "a2.txt", Content: "a2"}},
		UniqueToB: []File{{Path: "b1.txt", Content: "b1"}},
		Common: []FilePair{
			pairOf("slow.txt", "A", "B"),
			pairOf("fast.txt", "A", "B"),
		},
	}

	merged := fuser.FuseAll(context.Background(), cls)

	require.Len(t, merged, 5)
	paths := make([]string, len(merged))
	for i, m := range merged {
		paths[i] = m.Path
	}
	assert.Equal(t, []string{"a1.txt", "a2.txt", "b1.txt", "slow.txt", "fast.txt"}, paths)
}

func TestFuseAll_EmptyClassification(t *testing.T) {
	fuser := NewFuser(&stubReasoner{}, 1, nil)

	merged := fuser.FuseAll(context.Background(), Classification{})

	assert.Empty(t, merged)
}
