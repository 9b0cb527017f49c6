package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a repo on branch main with the given files committed.
func initTestRepo(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gitc.PlainInitWithOptions(dir, &gitc.PlainInitOptions{
		InitOptions: gitc.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
		},
	})
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}

	_, err = wt.Commit("initial commit", &gitc.CommitOptions{
		Author: &object.Signature{
			Name:  "test",
			Email: "test@test.com",
		},
	})
	require.NoError(t, err)

	return dir
}

func TestGitDir_FetchFilesFromHead(t *testing.T) {
	dir := initTestRepo(t, map[string][]byte{
		"main.go":        []byte("package main\n"),
		"docs/notes.md":  []byte("# notes\n"),
		"config/app.yml": []byte("port: 8080\n"),
	})

	files, err := NewGitDir().FetchFiles(context.Background(), dir, "")
	require.NoError(t, err)
	require.Len(t, files, 3)

	byPath := make(map[string]string)
	types := make(map[string]string)
	for _, f := range files {
		byPath[f.Path] = f.Content
		types[f.Path] = f.Type
		assert.NotEmpty(t, f.Identity)
	}

	assert.Equal(t, "package main\n", byPath["main.go"])
	assert.Equal(t, "# notes\n", byPath["docs/notes.md"])
	assert.Equal(t, "go", types["main.go"])
	assert.Equal(t, "markdown", types["docs/notes.md"])
	assert.Equal(t, "yaml", types["config/app.yml"])
}

func TestGitDir_FetchFilesByBranchName(t *testing.T) {
	dir := initTestRepo(t, map[string][]byte{"a.txt": []byte("hello")})

	files, err := NewGitDir().FetchFiles(context.Background(), dir, "main")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Path)
}

func TestGitDir_SkipsBinaryFiles(t *testing.T) {
	dir := initTestRepo(t, map[string][]byte{
		"text.txt": []byte("plain"),
		"blob.bin": {0x00, 0x01, 0x02, 0xFF},
	})

	files, err := NewGitDir().FetchFiles(context.Background(), dir, "")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "text.txt", files[0].Path)
}

func TestGitDir_UnknownBranchIsNotFound(t *testing.T) {
	dir := initTestRepo(t, map[string][]byte{"a.txt": []byte("x")})

	_, err := NewGitDir().FetchFiles(context.Background(), dir, "no-such-branch")

	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGitDir_MissingRepoIsNotFound(t *testing.T) {
	_, err := NewGitDir().FetchFiles(context.Background(), filepath.Join(t.TempDir(), "nope"), "")

	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}
