package source

import (
	"context"
	"errors"

	gitc "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/dusk-indust/repomerge/internal/merge"
)

// GitDir fetches files from a local clone. The ident is a directory path;
// files are read from the committed tree at the branch tip, not from the
// working copy, so uncommitted edits never leak into a merge.
type GitDir struct {
	// MaxFileBytes caps the size of read files. Zero means
	// DefaultMaxFileBytes.
	MaxFileBytes int64
}

var _ FileSource = (*GitDir)(nil)

// NewGitDir creates a local-clone source.
func NewGitDir() *GitDir {
	return &GitDir{}
}

// FetchFiles walks the commit tree at branch. An empty branch selects HEAD.
func (s *GitDir) FetchFiles(ctx context.Context, ident, branch string) ([]merge.File, error) {
	repo, err := gitc.PlainOpenWithOptions(ident, &gitc.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gitc.ErrRepositoryNotExists) {
		return nil, &Error{Kind: KindNotFound, Ident: ident, Err: err}
	} else if err != nil {
		return nil, &Error{Kind: KindTransport, Ident: ident, Err: err}
	}

	hash, err := s.resolveTip(repo, branch)
	if err != nil {
		return nil, &Error{Kind: KindNotFound, Ident: ident, Err: err}
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Ident: ident, Err: err}
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, &Error{Kind: KindTransport, Ident: ident, Err: err}
	}

	limit := fileCap(s.MaxFileBytes)
	var files []merge.File
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Size > limit {
			return nil
		}
		if bin, err := f.IsBinary(); err != nil || bin {
			return nil
		}

		content, err := f.Contents()
		if err != nil {
			return err
		}
		files = append(files, merge.File{
			Path:     f.Name,
			Content:  content,
			Type:     typeTag(f.Name),
			Identity: identity([]byte(content)),
		})
		return nil
	})
	if err != nil {
		return nil, &Error{Kind: KindTransport, Ident: ident, Err: err}
	}

	return files, nil
}

// resolveTip returns the commit hash for branch, or HEAD when branch is
// empty.
func (s *GitDir) resolveTip(repo *gitc.Repository, branch string) (plumbing.Hash, error) {
	if branch == "" {
		head, err := repo.Head()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return head.Hash(), nil
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}
