package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// ErrorCategory is the §3 error-pattern category vocabulary.
type ErrorCategory string

const (
	ErrorValidation  ErrorCategory = "validation"
	ErrorNotFound    ErrorCategory = "not_found"
	ErrorPermission  ErrorCategory = "permission"
	ErrorTimeout     ErrorCategory = "timeout"
	ErrorInternal    ErrorCategory = "internal"
	ErrorUnknown     ErrorCategory = "unknown"
)

// ErrorPattern is one clustered error bucket, keyed by (category,
// patternHash) when aggregating across samples.
type ErrorPattern struct {
	Category    ErrorCategory `json:"category"`
	PatternHash string        `json:"patternHash"`
	Example     string        `json:"example"`
	Count       int           `json:"count"`
}

var categoryKeywords = []struct {
	category ErrorCategory
	re       *regexp.Regexp
}{
	{ErrorValidation, regexp.MustCompile(`(?i)invalid|required|missing|must be|expected`)},
	{ErrorNotFound, regexp.MustCompile(`(?i)not found|does not exist|no such|404`)},
	{ErrorPermission, regexp.MustCompile(`(?i)permission|denied|unauthorized|forbidden|access`)},
	{ErrorTimeout, regexp.MustCompile(`(?i)timeout|timed out`)},
	{ErrorInternal, regexp.MustCompile(`(?i)internal|server error|unexpected`)},
}

// CategorizeError classifies an error message per §4.D's keyword scan.
// The scan order is significant: validation is checked before the more
// specific categories below it, matching the listing order in the spec.
func CategorizeError(message string) ErrorCategory {
	for _, ck := range categoryKeywords {
		if ck.re.MatchString(message) {
			return ck.category
		}
	}
	return ErrorUnknown
}

var (
	reUUIDGlobal  = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	rePath        = regexp.MustCompile(`(?:/[\w.\-]+){2,}`)
	reIntegerRun  = regexp.MustCompile(`\d+`)
	reQuotedText  = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	reWhitespace  = regexp.MustCompile(`\s+`)
)

// normalizeErrorText replaces UUIDs, paths, integer runs, and quoted
// strings with placeholders, lowercases, and collapses whitespace, per
// §3's patternHash definition. Order matters: UUIDs and paths are
// replaced before the generic integer-run pass would otherwise shred
// them into fragments.
func normalizeErrorText(message string) string {
	s := reUUIDGlobal.ReplaceAllString(message, "<uuid>")
	s = rePath.ReplaceAllString(s, "<path>")
	s = reQuotedText.ReplaceAllString(s, "<quoted>")
	s = reIntegerRun.ReplaceAllString(s, "<n>")
	s = strings.ToLower(s)
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// PatternHash computes the normalized-text hash used to bucket
// structurally identical error messages together.
func PatternHash(message string) string {
	normalized := normalizeErrorText(message)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// errorClusterer accumulates error samples into §3 ErrorPattern buckets,
// keyed by (category, patternHash) so distinct messages in the same
// category that happen to normalize alike still merge, while those that
// don't stay separate.
type errorClusterer struct {
	buckets map[string]*ErrorPattern
	order   []string
}

func newErrorClusterer() *errorClusterer {
	return &errorClusterer{buckets: make(map[string]*ErrorPattern)}
}

func (c *errorClusterer) add(message string) {
	category := CategorizeError(message)
	hash := PatternHash(message)
	key := string(category) + "|" + hash
	if existing, ok := c.buckets[key]; ok {
		existing.Count++
		return
	}
	c.buckets[key] = &ErrorPattern{
		Category:    category,
		PatternHash: hash,
		Example:     message,
		Count:       1,
	}
	c.order = append(c.order, key)
}

// patterns returns clustered patterns in first-seen order, for
// deterministic output given a fixed sample order.
func (c *errorClusterer) patterns() []ErrorPattern {
	out := make([]ErrorPattern, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.buckets[key])
	}
	return out
}
