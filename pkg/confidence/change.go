package confidence

import (
	"regexp"
	"strings"
)

// Method distinguishes how a change's confidence was derived.
type Method string

const (
	MethodStructural Method = "structural"
	MethodSemantic   Method = "semantic"
)

// Label buckets a 0-100 confidence score per §4.E / §8 invariant 10
// ("scores 85, 60, 40, 39 map to high, medium, low, very-low").
type Label string

const (
	LabelHigh     Label = "high"
	LabelMedium   Label = "medium"
	LabelLow      Label = "low"
	LabelVeryLow  Label = "very-low"
)

// ChangeConfidence is the confidence attached to one comparator aspect
// change.
type ChangeConfidence struct {
	Score  int
	Method Method
	Label  Label
}

// LabelFor buckets a score into the §4.E label bins.
func LabelFor(score int) Label {
	switch {
	case score >= 85:
		return LabelHigh
	case score >= 60:
		return LabelMedium
	case score >= 40:
		return LabelLow
	default:
		return LabelVeryLow
	}
}

// StructuralChange returns the fixed-confidence result for schema / tool
// presence aspects.
func StructuralChange() ChangeConfidence {
	return ChangeConfidence{Score: 100, Method: MethodStructural, Label: LabelHigh}
}

// semanticIndicatorPattern catches phrasing that tends to signal a
// semantically meaningful change in a description (as opposed to
// wording churn): capability verbs, negation, and qualifiers.
var semanticIndicatorPattern = regexp.MustCompile(`(?i)\b(must|required|optional|deprecated|no longer|now supports|removed|added|cannot|always|never)\b`)

// SemanticChange computes the §4.E semantic change confidence between a
// before/after pair of free-text descriptions, given their extracted
// category sets.
func SemanticChange(before, after string, beforeCategories, afterCategories map[string]float64) ChangeConfidence {
	jaccard := jaccardKeywords(before, after)
	lengthSim := lengthSimilarity(before, after)
	indicatorOverlap := patternOverlap(before, after)
	categoryScore := 30.0
	if categoriesMatch(beforeCategories, afterCategories) {
		categoryScore = 100
	}

	score := 0.30*jaccard*100 + 0.25*lengthSim*100 + 0.25*indicatorOverlap*100 + 0.20*categoryScore
	rounded := round(score)
	return ChangeConfidence{Score: rounded, Method: MethodSemantic, Label: LabelFor(rounded)}
}

func jaccardKeywords(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	intersection, union := 0, 0
	seen := map[string]bool{}
	for w := range setA {
		seen[w] = true
	}
	for w := range setB {
		if setA[w] {
			intersection++
		}
		if !seen[w] {
			seen[w] = true
		}
	}
	union = len(seen)
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[strings.Trim(w, ".,;:!?\"'()")] = true
	}
	return out
}

func lengthSimilarity(a, b string) float64 {
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 1
	}
	shorter, longer := la, lb
	if longer < shorter {
		shorter, longer = longer, shorter
	}
	if longer == 0 {
		return 1
	}
	return float64(shorter) / float64(longer)
}

func patternOverlap(a, b string) float64 {
	ma := semanticIndicatorPattern.FindAllString(strings.ToLower(a), -1)
	mb := semanticIndicatorPattern.FindAllString(strings.ToLower(b), -1)
	setA := map[string]bool{}
	for _, m := range ma {
		setA[strings.ToLower(m)] = true
	}
	setB := map[string]bool{}
	for _, m := range mb {
		setB[strings.ToLower(m)] = true
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	intersection := 0
	union := map[string]bool{}
	for m := range setA {
		union[m] = true
		if setB[m] {
			intersection++
		}
	}
	for m := range setB {
		union[m] = true
	}
	if len(union) == 0 {
		return 1
	}
	return float64(intersection) / float64(len(union))
}

func categoriesMatch(before, after map[string]float64) bool {
	if len(before) != len(after) {
		return false
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			return false
		}
	}
	return true
}

// AggregateTool computes the §4.E "aggregation across a tool": an
// inverse-confidence-weighted mean, so lower-confidence items weigh more
// and the aggregate reflects uncertainty rather than averaging it away.
func AggregateTool(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	var weightedSum, weightSum float64
	for _, s := range scores {
		weight := 101 - float64(s) // score 100 -> weight 1, score 0 -> weight 101
		weightedSum += weight * float64(s)
		weightSum += weight
	}
	if weightSum == 0 {
		return 0
	}
	return weightedSum / weightSum
}

// DiffConfidenceSummary is the §4.E per-diff rollup.
type DiffConfidenceSummary struct {
	OverallScore       float64
	Min                int
	Max                int
	StructuralCount    int
	SemanticCount      int
	StructuralAverage  float64
	SemanticAverage    float64
}

// SummarizeDiff builds the per-diff confidence rollup from every change's
// confidence across a comparison.
func SummarizeDiff(changes []ChangeConfidence) DiffConfidenceSummary {
	if len(changes) == 0 {
		return DiffConfidenceSummary{}
	}
	var all []int
	var structuralSum, semanticSum float64
	summary := DiffConfidenceSummary{Min: 100, Max: 0}
	for _, c := range changes {
		all = append(all, c.Score)
		if c.Score < summary.Min {
			summary.Min = c.Score
		}
		if c.Score > summary.Max {
			summary.Max = c.Score
		}
		switch c.Method {
		case MethodStructural:
			summary.StructuralCount++
			structuralSum += float64(c.Score)
		case MethodSemantic:
			summary.SemanticCount++
			semanticSum += float64(c.Score)
		}
	}
	summary.OverallScore = AggregateTool(all)
	if summary.StructuralCount > 0 {
		summary.StructuralAverage = structuralSum / float64(summary.StructuralCount)
	}
	if summary.SemanticCount > 0 {
		summary.SemanticAverage = semanticSum / float64(summary.SemanticCount)
	}
	return summary
}
