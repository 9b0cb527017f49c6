package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// extToType maps file extensions to the type tag carried on merge files.
// The tag is informational; nothing in the pipeline branches on it.
var extToType = map[string]string{
	".go":    "go",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".py":    "python",
	".rs":    "rust",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cs":    "csharp",
	".swift": "swift",
	".sh":    "shell",
	".sql":   "sql",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".html":  "html",
	".css":   "css",
	".txt":   "text",
}

// typeTag derives the type tag for a path from its extension. Unknown and
// missing extensions tag as plain text.
func typeTag(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if tag, ok := extToType[ext]; ok {
		return tag
	}
	return "text"
}

// identity fingerprints file content as lowercase hex SHA-256.
func identity(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// isBinary applies the NUL-byte heuristic git itself uses: content with a
// NUL in the first 8000 bytes is treated as binary and skipped.
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
