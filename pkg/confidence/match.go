package confidence

import "sort"

// ScoredCategory pairs a category name with its extracted confidence.
type ScoredCategory struct {
	Category   string
	Confidence float64
}

// MatchedPair is one cross-pair from BestMatchPairs, carrying the
// relationship score and the combined confidence the spec defines.
type MatchedPair struct {
	A                 ScoredCategory
	B                 ScoredCategory
	Relationship      int
	CombinedConfidence int
}

// BestMatchPairs computes every cross-pair between two category lists
// with Relate(...) > 0, ranked lexicographically by (relationship,
// combinedConfidence) descending — the best match sorts first.
func BestMatchPairs(a, b []ScoredCategory, table RelationshipTable) []MatchedPair {
	var pairs []MatchedPair
	for _, ca := range a {
		for _, cb := range b {
			rel := Relate(ca.Category, cb.Category, table)
			if rel <= 0 {
				continue
			}
			combined := round(0.4*ca.Confidence + 0.4*cb.Confidence + 0.2*float64(rel))
			pairs = append(pairs, MatchedPair{A: ca, B: cb, Relationship: rel, CombinedConfidence: combined})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Relationship != pairs[j].Relationship {
			return pairs[i].Relationship > pairs[j].Relationship
		}
		return pairs[i].CombinedConfidence > pairs[j].CombinedConfidence
	})
	return pairs
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
