package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dusk-indust/repomerge/internal/llm"
)

// Reasoner is the capability interface the analyzer and fuser depend on.
// One implementation is selected per job and injected into the orchestrator;
// merge logic never branches on the provider.
type Reasoner interface {
	// ClassifyConflict asks whether two versions of one path diverge in a
	// conflict-worthy way.
	ClassifyConflict(ctx context.Context, a, b File) (Verdict, error)

	// FuseContent asks for a combined body plus a structured change list.
	FuseContent(ctx context.Context, a, b File) (Fusion, error)
}

// Compile-time interface check.
var _ Reasoner = (*ProviderReasoner)(nil)

// ProviderReasoner implements Reasoner over an llm.Backend. It owns the
// prompt construction and the coercion of provider output into the
// backend-agnostic Verdict and Fusion shapes.
type ProviderReasoner struct {
	backend   llm.Backend
	maxTokens int
}

// NewProviderReasoner wraps backend. maxTokens caps each completion; pass 0
// to use the backend default.
func NewProviderReasoner(backend llm.Backend, maxTokens int) *ProviderReasoner {
	return &ProviderReasoner{backend: backend, maxTokens: maxTokens}
}

// ClassifyConflict renders the classification prompt, runs it, and coerces
// the reply to a Verdict.
func (r *ProviderReasoner) ClassifyConflict(ctx context.Context, a, b File) (Verdict, error) {
	prompt, err := buildClassifyPrompt(a, b)
	if err != nil {
		return Verdict{}, err
	}

	raw, err := r.backend.CompleteJSON(ctx, prompt, r.maxTokens)
	if err != nil {
		return Verdict{}, fmt.Errorf("merge: classify %s: %w", a.Path, err)
	}
	return parseVerdict(raw)
}

// FuseContent renders the fusion prompt, runs it, and coerces the reply to a
// Fusion.
func (r *ProviderReasoner) FuseContent(ctx context.Context, a, b File) (Fusion, error) {
	prompt, err := buildFusePrompt(a, b)
	if err != nil {
		return Fusion{}, err
	}

	raw, err := r.backend.CompleteJSON(ctx, prompt, r.maxTokens)
	if err != nil {
		return Fusion{}, fmt.Errorf("merge: fuse %s: %w", a.Path, err)
	}
	return parseFusion(raw)
}

// --- Verdict / Fusion coercion ---
// Models drift from the requested field names, so parsing tolerates the
// common aliases before giving up.

// rawVerdict mirrors the requested verdict shape plus observed aliases.
type rawVerdict struct {
	HasConflict    *bool  `json:"hasConflict"`
	HasConflictAlt *bool  `json:"has_conflict"`
	Conflict       *bool  `json:"conflict"`
	Kind           string `json:"kind"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Suggestion     string `json:"suggestion"`
}

func parseVerdict(raw json.RawMessage) (Verdict, error) {
	var rv rawVerdict
	if err := json.Unmarshal(raw, &rv); err != nil {
		return Verdict{}, fmt.Errorf("merge: parse verdict: %w", err)
	}

	has := firstBool(rv.HasConflict, rv.HasConflictAlt, rv.Conflict)
	if has == nil {
		return Verdict{}, fmt.Errorf("merge: parse verdict: missing hasConflict field")
	}

	v := Verdict{
		HasConflict:    *has,
		Kind:           firstString(rv.Kind, rv.Type),
		Description:    rv.Description,
		Recommendation: firstString(rv.Recommendation, rv.Suggestion),
	}
	return v, nil
}

// rawFusion mirrors the requested fusion shape plus observed aliases.
type rawFusion struct {
	MergedContent    *string     `json:"mergedContent"`
	MergedContentAlt *string     `json:"merged_content"`
	Content          *string     `json:"content"`
	Changes          []rawChange `json:"changes"`
}

type rawChange struct {
	Kind          string `json:"kind"`
	Type          string `json:"type"`
	LineNumber    int    `json:"lineNumber"`
	LineNumberAlt int    `json:"line_number"`
	Line          int    `json:"line"`
	Content       string `json:"content"`
	Text          string `json:"text"`
	Origin        string `json:"origin"`
	Source        string `json:"source"`
}

func parseFusion(raw json.RawMessage) (Fusion, error) {
	var rf rawFusion
	if err := json.Unmarshal(raw, &rf); err != nil {
		return Fusion{}, fmt.Errorf("merge: parse fusion: %w", err)
	}

	content := firstStringPtr(rf.MergedContent, rf.MergedContentAlt, rf.Content)
	if content == nil {
		return Fusion{}, fmt.Errorf("merge: parse fusion: missing mergedContent field")
	}

	changes := make([]Change, 0, len(rf.Changes))
	for _, rc := range rf.Changes {
		changes = append(changes, Change{
			Kind:       normalizeChangeKind(firstString(rc.Kind, rc.Type)),
			LineNumber: firstPositive(rc.LineNumber, rc.LineNumberAlt, rc.Line),
			Content:    firstString(rc.Content, rc.Text),
			Origin:     normalizeOrigin(firstString(rc.Origin, rc.Source)),
		})
	}

	return Fusion{MergedContent: *content, Changes: changes}, nil
}

func normalizeChangeKind(s string) ChangeKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "added", "add", "addition", "new":
		return ChangeKindAdded
	case "removed", "remove", "deleted", "delete":
		return ChangeKindRemoved
	default:
		return ChangeKindModified
	}
}

func normalizeOrigin(s string) ChangeOrigin {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sidea", "side_a", "a", "version a", "versiona":
		return OriginSideA
	case "sideb", "side_b", "b", "version b", "versionb":
		return OriginSideB
	default:
		return OriginGenerated
	}
}

func firstBool(ptrs ...*bool) *bool {
	for _, p := range ptrs {
		if p != nil {
			return p
		}
	}
	return nil
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstStringPtr(ptrs ...*string) *string {
	for _, p := range ptrs {
		if p != nil {
			return p
		}
	}
	return nil
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 1
}
