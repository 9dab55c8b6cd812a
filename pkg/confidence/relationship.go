package confidence

// RelationshipTable holds the configured direct-similarity scores and
// group membership used by Relate. Both are data, not logic, so a caller
// can override the defaults (e.g. to add the authentication↔access_control
// entry the spec explicitly asks the reviewer to decide on — see
// DESIGN.md) without touching this package's code.
type RelationshipTable struct {
	// Direct maps an unordered pair key (built via pairKey) to a
	// configured 0-100 similarity score. Symmetric by construction.
	Direct map[string]int
	// Groups maps a category to its group label; two categories in the
	// same group score 70 unless a more specific Direct entry exists.
	Groups map[string]string
}

// DefaultRelationshipTable mirrors the category vocabulary in category.go.
// authentication and access_control are deliberately NOT linked here: the
// spec flags this exact pair as contradictory across its source tables
// and instructs against silently inferring a score, so it's left at the
// "otherwise → 0" default rather than guessed at.
func DefaultRelationshipTable() RelationshipTable {
	return RelationshipTable{
		Direct: map[string]int{
			pairKey("injection", "security"):        80,
			pairKey("crypto", "security"):            75,
			pairKey("ssrf", "security"):               75,
			pairKey("misconfiguration", "security"):  60,
			pairKey("access_control", "security"):     65,
			pairKey("authentication", "security"):     65,
		},
		Groups: map[string]string{
			"injection":        "vulnerability",
			"crypto":           "vulnerability",
			"ssrf":             "vulnerability",
			"misconfiguration": "vulnerability",
		},
	}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Relate computes the §4.E relationship score between two categories:
// identical → 100, a direct entry → its configured score, same group →
// 70, otherwise → 0. Symmetric by construction (Direct is keyed by an
// unordered pair, Groups lookup doesn't depend on argument order).
func Relate(a, b string, table RelationshipTable) int {
	if a == b {
		return 100
	}
	if score, ok := table.Direct[pairKey(a, b)]; ok {
		return score
	}
	groupA, okA := table.Groups[a]
	groupB, okB := table.Groups[b]
	if okA && okB && groupA == groupB {
		return 70
	}
	return 0
}
