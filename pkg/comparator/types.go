package comparator

import (
	"github.com/arcflow-dev/bellwether/pkg/baseline"
	"github.com/arcflow-dev/bellwether/pkg/confidence"
)

// Options is the §6 "Comparator options" contract:
// {ignoreAspects[], confidenceMin, failOnSeverity}, plus the regression
// threshold the performance aspect needs (fed from pkg/config in
// cmd/bellwether, kept here as a plain field so this package has no
// config dependency).
type Options struct {
	IgnoreAspects          []string
	ConfidenceMin          int
	FailOnSeverity         Severity
	RegressionThresholdPct float64
}

// DefaultOptions returns the §6 defaults: no aspects ignored, no
// confidence floor, a 50% regression threshold, fail on nothing.
func DefaultOptions() Options {
	return Options{RegressionThresholdPct: 0.5}
}

func (o Options) ignores(aspect string) bool {
	for _, a := range o.IgnoreAspects {
		if a == aspect {
			return true
		}
	}
	return false
}

// ToolChange is one per-aspect drift record for a single tool, per the
// §4.H severity-rule table.
type ToolChange struct {
	Tool          string                     `json:"tool"`
	Aspect        string                     `json:"aspect"`
	Severity      Severity                   `json:"severity"`
	Description   string                     `json:"description"`
	Confidence    confidence.ChangeConfidence `json:"confidence"`
	FieldsAdded   []string                   `json:"fieldsAdded,omitempty"`
	FieldsRemoved []string                   `json:"fieldsRemoved,omitempty"`

	// performance aspect only.
	RegressionPercent float64 `json:"regressionPercent,omitempty"`
	LowConfidence     bool    `json:"lowConfidence,omitempty"`

	// security aspect only.
	SecurityReport *SecurityReport `json:"securityReport,omitempty"`
}

// SecurityReport is the §4.H security-aspect payload.
type SecurityReport struct {
	Degraded          bool                        `json:"degraded"`
	PreviousRiskScore float64                      `json:"previousRiskScore"`
	CurrentRiskScore  float64                      `json:"currentRiskScore"`
	NewFindings       []baseline.SecurityFinding   `json:"newFindings,omitempty"`
	ResolvedFindings  []baseline.SecurityFinding   `json:"resolvedFindings,omitempty"`
}

// Diff is the §3/§4.H root comparison result.
type Diff struct {
	ToolsAdded         []string                        `json:"toolsAdded,omitempty"`
	ToolsRemoved       []string                        `json:"toolsRemoved,omitempty"`
	ToolChanges        []ToolChange                    `json:"toolChanges,omitempty"`
	Severity           Severity                        `json:"severity"`
	BreakingCount      int                             `json:"breakingCount"`
	WarningCount       int                             `json:"warningCount"`
	InfoCount          int                             `json:"infoCount"`
	ConfidenceSummary  confidence.DiffConfidenceSummary `json:"confidenceSummary"`
	SharedFeatureFlags map[string]bool                 `json:"sharedFeatureFlags"`
	Summary            string                          `json:"summary"`
}

// ShouldFail reports whether diff's overall severity meets or exceeds
// opts.FailOnSeverity, for a caller (e.g. a CLI) deciding its exit code.
// An empty FailOnSeverity never fails.
func ShouldFail(diff *Diff, failOn Severity) bool {
	if failOn == "" {
		return false
	}
	return severityRank[diff.Severity] >= severityRank[failOn]
}
