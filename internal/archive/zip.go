// Package archive packages merge results for download or on-disk output.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/repomerge/internal/merge"
)

// Build writes files as a zip archive in input order. Entry names keep
// their forward-slash form. Paths that would escape the extraction root
// (absolute, or containing a ".." segment) are rejected before any entry
// is written, so a traversal attempt never yields a partial archive.
func Build(w io.Writer, files []merge.MergedFile) error {
	for _, f := range files {
		if err := checkPath(f.Path); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}

	zw := zip.NewWriter(w)
	for _, f := range files {
		// A fixed header keeps the archive byte-identical for the
		// same input.
		hdr := &zip.FileHeader{
			Name:   f.Path,
			Method: zip.Deflate,
		}
		entry, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("archive: create %s: %w", f.Path, err)
		}
		if _, err := entry.Write([]byte(f.Content)); err != nil {
			return fmt.Errorf("archive: write %s: %w", f.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: finalize: %w", err)
	}
	return nil
}

// WriteTree writes files under dir, creating parent directories as needed.
// Paths are validated the same way as archive entries, so a crafted path
// can never land outside dir.
func WriteTree(dir string, files []merge.MergedFile) error {
	for _, f := range files {
		if err := checkPath(f.Path); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}

	for _, f := range files {
		dest := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("archive: create dir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dest, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("archive: write %s: %w", f.Path, err)
		}
	}
	return nil
}

// checkPath rejects entry names that could escape the extraction root.
func checkPath(p string) error {
	if p == "" {
		return fmt.Errorf("empty entry path")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return fmt.Errorf("unsafe entry path %q", p)
	}
	for _, seg := range strings.Split(path.Clean(p), "/") {
		if seg == ".." {
			return fmt.Errorf("unsafe entry path %q", p)
		}
	}
	return nil
}
