package confidence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelForBinEdges(t *testing.T) {
	require.Equal(t, LabelHigh, LabelFor(85))
	require.Equal(t, LabelMedium, LabelFor(60))
	require.Equal(t, LabelLow, LabelFor(40))
	require.Equal(t, LabelVeryLow, LabelFor(39))
}

func TestRelateSymmetry(t *testing.T) {
	table := DefaultRelationshipTable()
	pairs := [][2]string{
		{"injection", "security"},
		{"crypto", "security"},
		{"access_control", "authentication"},
		{"injection", "ssrf"},
		{"limitation", "security"},
	}
	for _, p := range pairs {
		require.Equal(t, Relate(p[0], p[1], table), Relate(p[1], p[0], table), "rel(%s,%s) must equal rel(%s,%s)", p[0], p[1], p[1], p[0])
	}
}

func TestRelateIdentical(t *testing.T) {
	table := DefaultRelationshipTable()
	require.Equal(t, 100, Relate("security", "security", table))
}

func TestRelateAuthenticationAccessControlNotInferred(t *testing.T) {
	table := DefaultRelationshipTable()
	require.Equal(t, 0, Relate("authentication", "access_control", table))
}

func TestExtractCategoriesFindsMatches(t *testing.T) {
	scores := ExtractCategories("The response leaks a token during login without sanitizing the session cookie", DefaultCategoryKeywords)
	require.Contains(t, scores, "authentication")
	for _, score := range scores {
		require.GreaterOrEqual(t, score, 10.0)
		require.LessOrEqual(t, score, 100.0)
	}
}

func TestBestMatchPairsRankedByRelationshipThenConfidence(t *testing.T) {
	table := DefaultRelationshipTable()
	a := []ScoredCategory{{Category: "injection", Confidence: 90}, {Category: "security", Confidence: 50}}
	b := []ScoredCategory{{Category: "security", Confidence: 80}}

	pairs := BestMatchPairs(a, b, table)
	require.NotEmpty(t, pairs)
	for i := 1; i < len(pairs); i++ {
		prev, cur := pairs[i-1], pairs[i]
		require.True(t, prev.Relationship > cur.Relationship ||
			(prev.Relationship == cur.Relationship && prev.CombinedConfidence >= cur.CombinedConfidence))
	}
}

func TestStructuralChangeIsFixedAt100(t *testing.T) {
	c := StructuralChange()
	require.Equal(t, 100, c.Score)
	require.Equal(t, MethodStructural, c.Method)
}

func TestSemanticChangeIdenticalTextIsHighConfidence(t *testing.T) {
	cats := map[string]float64{"security": 80}
	c := SemanticChange("Deletes the named resource permanently", "Deletes the named resource permanently", cats, cats)
	require.GreaterOrEqual(t, c.Score, 85)
	require.Equal(t, LabelHigh, c.Label)
}

func TestSemanticChangeCategoryFlipLowersConfidence(t *testing.T) {
	before := "Returns the user's account balance"
	after := "Deletes the user account and all associated data permanently, requires admin permission, cannot be undone"
	beforeCats := ExtractCategories(before, DefaultCategoryKeywords)
	afterCats := ExtractCategories(after, DefaultCategoryKeywords)
	require.NotEqual(t, beforeCats, afterCats)
	c := SemanticChange(before, after, beforeCats, afterCats)
	require.Less(t, c.Score, 100)
}

func TestAggregateToolWeightsLowConfidenceMore(t *testing.T) {
	allHigh := AggregateTool([]int{95, 95, 95})
	mixed := AggregateTool([]int{95, 95, 20})
	require.Less(t, mixed, allHigh)
}

func TestSummarizeDiffSeparatesStructuralAndSemantic(t *testing.T) {
	changes := []ChangeConfidence{
		StructuralChange(),
		{Score: 70, Method: MethodSemantic, Label: LabelFor(70)},
		{Score: 50, Method: MethodSemantic, Label: LabelFor(50)},
	}
	summary := SummarizeDiff(changes)
	require.Equal(t, 1, summary.StructuralCount)
	require.Equal(t, 2, summary.SemanticCount)
	require.Equal(t, 100.0, summary.StructuralAverage)
	require.Equal(t, 60.0, summary.SemanticAverage)
	require.Equal(t, 50, summary.Min)
	require.Equal(t, 100, summary.Max)
}
