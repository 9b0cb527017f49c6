package merge

// Classify partitions two file collections by path identity. A path present
// on both sides is common regardless of content equality; content comparison
// happens later, in the analyzer and fuser. Partition order follows input
// order: UniqueToA and Common follow side A, UniqueToB follows side B.
func Classify(sideA, sideB []File) Classification {
	byPathB := make(map[string]File, len(sideB))
	for _, f := range sideB {
		byPathB[f.Path] = f
	}

	result := Classification{
		UniqueToA: make([]File, 0, len(sideA)),
		UniqueToB: make([]File, 0, len(sideB)),
		Common:    make([]FilePair, 0),
	}

	inA := make(map[string]bool, len(sideA))
	for _, f := range sideA {
		inA[f.Path] = true
		if b, ok := byPathB[f.Path]; ok {
			result.Common = append(result.Common, FilePair{A: f, B: b})
		} else {
			result.UniqueToA = append(result.UniqueToA, f)
		}
	}

	for _, f := range sideB {
		if !inA[f.Path] {
			result.UniqueToB = append(result.UniqueToB, f)
		}
	}

	return result
}
