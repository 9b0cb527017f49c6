package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/repomerge/internal/merge"
)

func buildZip(t *testing.T, files []merge.MergedFile) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Build(&buf, files))

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return r
}

func TestBuild_WritesEntriesInInputOrder(t *testing.T) {
	files := []merge.MergedFile{
		{Path: "src/main.go", Content: "package main\n"},
		{Path: "README.md", Content: "# merged\n"},
		{Path: "docs/guide.md", Content: "guide\n"},
	}

	r := buildZip(t, files)
	require.Len(t, r.File, 3)
	assert.Equal(t, "src/main.go", r.File[0].Name)
	assert.Equal(t, "README.md", r.File[1].Name)
	assert.Equal(t, "docs/guide.md", r.File[2].Name)

	rc, err := r.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(content))
}

func TestBuild_IsDeterministic(t *testing.T) {
	files := []merge.MergedFile{
		{Path: "a.txt", Content: "alpha"},
		{Path: "b.txt", Content: "beta"},
	}

	var first, second bytes.Buffer
	require.NoError(t, Build(&first, files))
	require.NoError(t, Build(&second, files))

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestBuild_RejectsTraversalPaths(t *testing.T) {
	bad := [][]merge.MergedFile{
		{{Path: "../escape.txt", Content: "x"}},
		{{Path: "nested/../../escape.txt", Content: "x"}},
		{{Path: "/etc/passwd", Content: "x"}},
		{{Path: "", Content: "x"}},
	}
	for _, files := range bad {
		var buf bytes.Buffer
		err := Build(&buf, files)
		require.Error(t, err, "path %q", files[0].Path)
		assert.Zero(t, buf.Len(), "nothing may be written for a rejected archive")
	}
}

func TestBuild_EmptyFileSet(t *testing.T) {
	r := buildZip(t, nil)
	assert.Empty(t, r.File)
}

func TestWriteTree_CreatesNestedFiles(t *testing.T) {
	dir := t.TempDir()
	files := []merge.MergedFile{
		{Path: "main.go", Content: "package main\n"},
		{Path: "docs/guide.md", Content: "guide\n"},
	}

	require.NoError(t, WriteTree(dir, files))

	got, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(got))

	got, err = os.ReadFile(filepath.Join(dir, "docs", "guide.md"))
	require.NoError(t, err)
	assert.Equal(t, "guide\n", string(got))
}

func TestWriteTree_RejectsTraversalPaths(t *testing.T) {
	dir := t.TempDir()
	files := []merge.MergedFile{
		{Path: "ok.txt", Content: "x"},
		{Path: "../escape.txt", Content: "x"},
	}

	require.Error(t, WriteTree(dir, files))

	// Validation happens before any write.
	_, err := os.Stat(filepath.Join(dir, "ok.txt"))
	assert.True(t, os.IsNotExist(err))
}
