// Package confidence implements §4.E: category extraction from free text,
// relationship scoring between categories, best-match pairing across two
// category lists, and change-confidence computation for comparator
// aspects. Grounded on falcon's security_scanner/owasp_checks.go category
// vocabulary (access_control, crypto, injection, insecure_design,
// misconfiguration, authentication, ssrf), generalized from "vulnerability
// category" to "any semantic category a description or finding belongs
// to".
package confidence

import "strings"

// DefaultCategoryKeywords configures which lowercased keywords count toward a
// category during extraction. The default set mirrors falcon's OWASP
// checks plus the spec's explicit "security, limitation, …" examples.
var DefaultCategoryKeywords = map[string][]string{
	"security":        {"security", "vulnerability", "exploit", "attack", "risk"},
	"authentication":  {"authentication", "login", "credential", "token", "session"},
	"access_control":  {"access control", "authorization", "permission", "privilege", "role"},
	"injection":       {"injection", "sanitize", "escape", "sql", "script"},
	"crypto":          {"encryption", "hash", "cipher", "crypto", "tls"},
	"ssrf":            {"ssrf", "server-side request", "internal network", "metadata endpoint"},
	"misconfiguration": {"misconfiguration", "default", "exposed", "debug mode"},
	"limitation":      {"limitation", "known issue", "not supported", "caveat", "workaround"},
}

// ExtractCategories scores text against every configured category,
// returning a category→confidence map for categories with at least one
// keyword match. confidence = bounded sum of (coverage ratio, average
// keyword length bonus, distinctness bonus, length-penalty for sparse
// matches), clamped to [10, 100].
func ExtractCategories(text string, keywords map[string][]string) map[string]float64 {
	lower := strings.ToLower(text)
	out := map[string]float64{}
	for category, kws := range keywords {
		matched := 0
		matchedLenSum := 0
		for _, kw := range kws {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched++
				matchedLenSum += len(kw)
			}
		}
		if matched == 0 {
			continue
		}
		out[category] = categoryConfidence(matched, len(kws), matchedLenSum, len(lower))
	}
	return out
}

func categoryConfidence(matched, total, matchedLenSum, textLen int) float64 {
	coverageRatio := float64(matched) / float64(total)
	avgKeywordLen := float64(matchedLenSum) / float64(matched)
	lengthBonus := avgKeywordLen / 20 // longer keyword hits are less likely to be coincidental
	if lengthBonus > 1 {
		lengthBonus = 1
	}
	distinctnessBonus := 0.0
	if matched > 1 {
		distinctnessBonus = 0.2
	}
	sparsityPenalty := 0.0
	if textLen > 0 && matched == 1 && textLen > 200 {
		sparsityPenalty = 0.15
	}

	score := 10 + 70*coverageRatio + 15*lengthBonus + 20*distinctnessBonus - 20*sparsityPenalty
	return clamp(score, 10, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
