package merge

// defaultRecommendations is the static guidance attached to every summary.
// The list is intentionally input-independent.
var defaultRecommendations = []string{
	"Review all merged files before deploying to production",
	"Run your full test suite against the merged codebase",
	"Verify that dependency versions are compatible across both sources",
	"Check configuration files for environment-specific values",
}

// BuildSummary derives aggregate counts from a completed merge. Pure; no
// external calls.
//
// Semantics, pinned for compatibility with existing consumers:
//   - TotalFiles counts distinct paths across the union of both sides; a
//     path present on both sides counts once.
//   - ConflictsResolvedCount is the number of detected conflicts. The name
//     is historical; detection, not user resolution, is what is counted.
//   - LinesAddedCount counts Change entries whose kind is "added". It is not
//     a line diff: a single added Change spanning many lines still counts as
//     one.
func BuildSummary(sideA, sideB []File, mergedFiles []MergedFile, conflicts []Conflict) Summary {
	paths := make(map[string]bool, len(sideA)+len(sideB))
	for _, f := range sideA {
		paths[f.Path] = true
	}
	for _, f := range sideB {
		paths[f.Path] = true
	}

	linesAdded := 0
	for _, mf := range mergedFiles {
		for _, ch := range mf.Changes {
			if ch.Kind == ChangeKindAdded {
				linesAdded++
			}
		}
	}

	recs := make([]string, len(defaultRecommendations))
	copy(recs, defaultRecommendations)

	return Summary{
		TotalFiles:             len(paths),
		MergedFileCount:        len(mergedFiles),
		ConflictsResolvedCount: len(conflicts),
		LinesAddedCount:        linesAdded,
		Recommendations:        recs,
	}
}
