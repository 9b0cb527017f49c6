package merge

// --- Enums ---

// ConflictKind classifies how two versions of a file diverge.
type ConflictKind string

const (
	ConflictKindNaming     ConflictKind = "naming"
	ConflictKindContent    ConflictKind = "content"
	ConflictKindDependency ConflictKind = "dependency"
)

// ParseConflictKind maps a provider-reported kind onto a known ConflictKind.
// Unrecognized values fall back to ConflictKindContent, the broadest category.
func ParseConflictKind(s string) ConflictKind {
	switch ConflictKind(s) {
	case ConflictKindNaming, ConflictKindContent, ConflictKindDependency:
		return ConflictKind(s)
	}
	return ConflictKindContent
}

// ChangeKind describes what a single change did to the merged file.
type ChangeKind string

const (
	ChangeKindAdded    ChangeKind = "added"
	ChangeKindRemoved  ChangeKind = "removed"
	ChangeKindModified ChangeKind = "modified"
)

// ChangeOrigin identifies which input produced a change.
type ChangeOrigin string

const (
	OriginSideA     ChangeOrigin = "sideA"
	OriginSideB     ChangeOrigin = "sideB"
	OriginGenerated ChangeOrigin = "generated"
)

// --- Core Types ---

// File is one file from either input collection. Path is unique within a
// side; Identity is a fingerprint of Content set by the source layer.
type File struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Identity string `json:"identity,omitempty"`
}

// FilePair holds the two versions of a path that exists on both sides.
type FilePair struct {
	A File `json:"a"`
	B File `json:"b"`
}

// Identical reports whether both versions carry byte-for-byte equal content.
func (p FilePair) Identical() bool {
	return p.A.Content == p.B.Content
}

// Classification partitions two file collections by path identity. Every
// input path lands in exactly one partition; UniqueToA and UniqueToB never
// overlap; each Common pair shares one path across sides.
type Classification struct {
	UniqueToA []File     `json:"uniqueToA"`
	UniqueToB []File     `json:"uniqueToB"`
	Common    []FilePair `json:"common"`
}

// ConflictOption is one way a detected conflict could be resolved. Preview
// is capped at 200 characters.
type ConflictOption struct {
	Option  string `json:"option"`
	Preview string `json:"preview"`
}

// Conflict records a provider-confirmed divergence for one common path.
// Options always holds exactly three entries, in order: use A, use B,
// AI-recommended merge.
type Conflict struct {
	FilePath       string           `json:"filePath"`
	Kind           ConflictKind     `json:"kind"`
	Description    string           `json:"description"`
	Recommendation string           `json:"recommendation"`
	Options        []ConflictOption `json:"options"`
}

// Change is one entry in a merged file's change list. LineNumber is
// one-based; entries are ordered by discovery, not by line.
type Change struct {
	Kind       ChangeKind   `json:"kind"`
	LineNumber int          `json:"lineNumber"`
	Content    string       `json:"content"`
	Origin     ChangeOrigin `json:"origin"`
}

// MergedFile is the fused output for one path. Exactly one MergedFile
// exists per distinct path across both sides.
type MergedFile struct {
	Path    string   `json:"path"`
	Content string   `json:"content"`
	Type    string   `json:"type"`
	Changes []Change `json:"changes"`
}

// Summary aggregates counts over a completed merge. All fields are derived;
// see BuildSummary for the exact semantics of each count.
type Summary struct {
	TotalFiles             int      `json:"totalFiles"`
	MergedFileCount        int      `json:"mergedFileCount"`
	ConflictsResolvedCount int      `json:"conflictsResolvedCount"`
	LinesAddedCount        int      `json:"linesAddedCount"`
	Recommendations        []string `json:"recommendations"`
}

// Result is the complete output of one merge run.
type Result struct {
	MergedFiles []MergedFile `json:"mergedFiles"`
	Conflicts   []Conflict   `json:"conflicts"`
	Summary     Summary      `json:"summary"`
}

// --- Provider Verdict Types ---

// Verdict is the provider's answer to a conflict-classification request.
// The wire shape is provider-agnostic: both backends are coerced to it.
type Verdict struct {
	HasConflict    bool   `json:"hasConflict"`
	Kind           string `json:"kind"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// Fusion is the provider's answer to a content-fusion request.
type Fusion struct {
	MergedContent string   `json:"mergedContent"`
	Changes       []Change `json:"changes"`
}
