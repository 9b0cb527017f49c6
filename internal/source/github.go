package source

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v63/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/repomerge/internal/merge"
)

// blobFetchConcurrency bounds parallel blob downloads per fetch.
const blobFetchConcurrency = 8

// GitHub fetches repository files through the GitHub REST API. The ident is
// "owner/repo"; an empty branch resolves to the repository default branch.
type GitHub struct {
	client *github.Client

	// MaxFileBytes caps the size of fetched blobs. Zero means
	// DefaultMaxFileBytes.
	MaxFileBytes int64
}

var _ FileSource = (*GitHub)(nil)

// GitHubOption configures a GitHub source.
type GitHubOption func(*GitHub)

// WithBaseURL points the client at a different API root. Used to target a
// test server or a GitHub Enterprise instance.
func WithBaseURL(raw string) GitHubOption {
	return func(g *GitHub) {
		u, err := url.Parse(raw)
		if err != nil {
			return
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		g.client.BaseURL = u
	}
}

// NewGitHub creates a GitHub source. An empty token yields an
// unauthenticated client, subject to the anonymous rate limit.
func NewGitHub(token string, opts ...GitHubOption) *GitHub {
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(nil)
	}

	g := &GitHub{client: client}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchFiles lists the tree at branch recursively and downloads every text
// blob under the size cap. A truncated tree listing is an error rather than
// a silently partial result.
func (g *GitHub) FetchFiles(ctx context.Context, ident, branch string) ([]merge.File, error) {
	owner, name, err := splitIdent(ident)
	if err != nil {
		return nil, &Error{Kind: KindNotFound, Ident: ident, Err: err}
	}

	if branch == "" {
		repo, _, err := g.client.Repositories.Get(ctx, owner, name)
		if err != nil {
			return nil, g.wrap(ident, err)
		}
		branch = repo.GetDefaultBranch()
	}

	tree, _, err := g.client.Git.GetTree(ctx, owner, name, branch, true)
	if err != nil {
		return nil, g.wrap(ident, err)
	}
	if tree.GetTruncated() {
		return nil, &Error{
			Kind:  KindTruncated,
			Ident: ident,
			Err:   fmt.Errorf("tree listing for %s truncated by the API", branch),
		}
	}

	limit := fileCap(g.MaxFileBytes)
	var blobs []*github.TreeEntry
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" || int64(entry.GetSize()) > limit {
			continue
		}
		blobs = append(blobs, entry)
	}

	results := make([]*merge.File, len(blobs))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(blobFetchConcurrency)
	for i, entry := range blobs {
		eg.Go(func() error {
			content, err := g.fetchBlob(gctx, owner, name, entry.GetSHA())
			if err != nil {
				return err
			}
			if isBinary(content) {
				return nil
			}
			results[i] = &merge.File{
				Path:     entry.GetPath(),
				Content:  string(content),
				Type:     typeTag(entry.GetPath()),
				Identity: identity(content),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, g.wrap(ident, err)
	}

	files := make([]merge.File, 0, len(results))
	for _, f := range results {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}

// fetchBlob downloads and decodes one blob.
func (g *GitHub) fetchBlob(ctx context.Context, owner, name, sha string) ([]byte, error) {
	blob, _, err := g.client.Git.GetBlob(ctx, owner, name, sha)
	if err != nil {
		return nil, err
	}

	content := blob.GetContent()
	if blob.GetEncoding() != "base64" {
		return []byte(content), nil
	}

	// The API wraps base64 payloads with newlines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode blob %s: %w", sha, err)
	}
	return decoded, nil
}

// wrap classifies a go-github error into a typed source error. Rate-limit
// errors are checked before the generic 403 mapping because GitHub reports
// an exhausted limit as 403.
func (g *GitHub) wrap(ident string, err error) error {
	var alreadyTyped *Error
	if errors.As(err, &alreadyTyped) {
		return err
	}

	kind := KindTransport

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		kind = KindRateLimit
	case errors.As(err, &respErr):
		switch respErr.Response.StatusCode {
		case 401, 403:
			kind = KindAuth
		case 404:
			kind = KindNotFound
		}
	}

	return &Error{Kind: kind, Ident: ident, Err: err}
}

// splitIdent parses an "owner/repo" identifier.
func splitIdent(ident string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(ident, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository identifier %q (want owner/repo)", ident)
	}
	return owner, name, nil
}
