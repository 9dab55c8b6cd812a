package comparator

// Severity is the §4.H severity vocabulary, ordered none < info < warning
// < breaking.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityBreaking Severity = "breaking"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityBreaking: 3,
}

// maxSeverity returns the higher-ranked of a and b — invariant 9: adding
// a breaking change never lowers the running maximum.
func maxSeverity(a, b Severity) Severity {
	if severityRank[a] >= severityRank[b] {
		return a
	}
	return b
}
