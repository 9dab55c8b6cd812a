package comparator

import (
	"fmt"
	"sort"

	"github.com/arcflow-dev/bellwether/pkg/baseline"
	"github.com/arcflow-dev/bellwether/pkg/confidence"
	"github.com/arcflow-dev/bellwether/pkg/fingerprint"
	"github.com/aymanbagabas/go-udiff"
)

// compareResponseStructure implements the `response_structure` severity
// rule: different structureHash or contentType → warning; empty↔non-empty
// → breaking when becoming empty, warning when recovering.
func compareResponseStructure(before, after fingerprint.ResponseFingerprint) (Severity, string, []string, []string) {
	added, removed := diffFields(before.Fields, after.Fields)

	switch {
	case !before.IsEmpty && after.IsEmpty:
		return SeverityBreaking, "response became empty", added, removed
	case before.IsEmpty && !after.IsEmpty:
		return SeverityWarning, "response is no longer empty", added, removed
	case before.StructureHash != after.StructureHash || before.ContentType != after.ContentType:
		return SeverityWarning, "response shape changed", added, removed
	default:
		return SeverityNone, "", nil, nil
	}
}

func diffFields(before, after []string) (added, removed []string) {
	beforeSet := map[string]bool{}
	for _, f := range before {
		beforeSet[f] = true
	}
	afterSet := map[string]bool{}
	for _, f := range after {
		afterSet[f] = true
	}
	for _, f := range after {
		if !beforeSet[f] {
			added = append(added, f)
		}
	}
	for _, f := range before {
		if !afterSet[f] {
			removed = append(removed, f)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// compareErrorPatterns implements the `error_pattern` severity rule: a
// new category observed → warning; a previously-observed category
// disappears → info.
func compareErrorPatterns(before, after []fingerprint.ErrorPattern) (Severity, string) {
	beforeCats := map[fingerprint.ErrorCategory]bool{}
	for _, p := range before {
		beforeCats[p.Category] = true
	}
	afterCats := map[fingerprint.ErrorCategory]bool{}
	for _, p := range after {
		afterCats[p.Category] = true
	}

	var newCats, goneCats []string
	for c := range afterCats {
		if !beforeCats[c] {
			newCats = append(newCats, string(c))
		}
	}
	for c := range beforeCats {
		if !afterCats[c] {
			goneCats = append(goneCats, string(c))
		}
	}
	sort.Strings(newCats)
	sort.Strings(goneCats)

	switch {
	case len(newCats) > 0:
		return SeverityWarning, fmt.Sprintf("new error categories observed: %v", newCats)
	case len(goneCats) > 0:
		return SeverityInfo, fmt.Sprintf("error categories no longer observed: %v", goneCats)
	default:
		return SeverityNone, ""
	}
}

// compareSchemaEvolution implements the `response_schema_evolution`
// severity rule: became unstable → warning; breaking field removal or
// incompatible type change between the latest observed schemas →
// breaking. Stability is recomputed from the stored version rings; the
// persisted Tool.Evolution triple is not consulted here.
func compareSchemaEvolution(before, after []fingerprint.SchemaVersion) (Severity, string) {
	beforeStable := stabilityOf(before)
	afterStable := stabilityOf(after)

	beforeLatest := latestSchema(before)
	afterLatest := latestSchema(after)

	if beforeLatest != nil && afterLatest != nil {
		if sev, desc := breakingSchemaDelta(beforeLatest, afterLatest); sev == SeverityBreaking {
			return sev, desc
		}
	}

	if beforeStable && !afterStable {
		return SeverityWarning, "response schema became unstable across samples"
	}
	return SeverityNone, ""
}

func stabilityOf(versions []fingerprint.SchemaVersion) bool {
	if len(versions) == 0 {
		return true
	}
	var schemas []*fingerprint.InferredSchema
	for _, v := range versions {
		schemas = append(schemas, v.Schema)
	}
	return fingerprint.ComputeStability(schemas).IsStable
}

func latestSchema(versions []fingerprint.SchemaVersion) *fingerprint.InferredSchema {
	if len(versions) == 0 {
		return nil
	}
	return versions[len(versions)-1].Schema
}

func breakingSchemaDelta(before, after *fingerprint.InferredSchema) (Severity, string) {
	if before.Type != after.Type && !(isNumericType(before.Type) && isNumericType(after.Type)) {
		return SeverityBreaking, fmt.Sprintf("response type changed from %s to %s", before.Type, after.Type)
	}
	for _, field := range before.Required {
		if !contains(after.Required, field) {
			return SeverityBreaking, fmt.Sprintf("response field %q no longer present", field)
		}
	}
	return SeverityNone, ""
}

func isNumericType(t string) bool { return t == "integer" || t == "number" }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// comparePerformance implements the `performance` severity rule against
// p50, the percentile the end-to-end scenarios are expressed in terms of.
// regressionPercent is a fraction (1.0 == 100% slower), matching
// spec.md's own literal example (p50 50ms→150ms ⇒ regressionPercent≈2.0).
func comparePerformance(before, after fingerprint.PerformanceMetrics, thresholdPct float64) (severity Severity, regressionPercent float64, lowConfidence bool, has bool) {
	if before.P50 <= 0 {
		return SeverityNone, 0, false, false
	}
	regressionPercent = (after.P50 - before.P50) / before.P50
	if regressionPercent <= 0 {
		return SeverityNone, regressionPercent, false, false
	}

	lowConfidence = before.PerformanceConfidence != fingerprint.ConfidenceHigh || after.PerformanceConfidence != fingerprint.ConfidenceHigh

	switch {
	case lowConfidence:
		if regressionPercent >= thresholdPct {
			return SeverityInfo, regressionPercent, true, true
		}
		return SeverityNone, regressionPercent, true, false
	case regressionPercent >= 2*thresholdPct:
		return SeverityBreaking, regressionPercent, false, true
	case regressionPercent >= thresholdPct:
		return SeverityWarning, regressionPercent, false, true
	default:
		return SeverityNone, regressionPercent, false, false
	}
}

// riskLevelSeverity maps a security finding's riskLevel to the §4.H
// `security` severity rule.
func riskLevelSeverity(level string) Severity {
	switch level {
	case "critical", "high":
		return SeverityBreaking
	case "medium":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// compareSecurity implements the `security` aspect: any new critical|high
// finding → breaking; medium → warning; low|info → info; resolved
// findings are reported but never raise severity.
func compareSecurity(before, after *baseline.SecurityFingerprint) (Severity, *SecurityReport, bool) {
	if before == nil && after == nil {
		return SeverityNone, nil, false
	}
	var beforeFindings, afterFindings []baseline.SecurityFinding
	var previousRisk, currentRisk float64
	if before != nil {
		beforeFindings = before.Findings
		previousRisk = before.RiskScore
	}
	if after != nil {
		afterFindings = after.Findings
		currentRisk = after.RiskScore
	}

	beforeKey := map[string]bool{}
	for _, f := range beforeFindings {
		beforeKey[findingKey(f)] = true
	}
	afterKey := map[string]bool{}
	for _, f := range afterFindings {
		afterKey[findingKey(f)] = true
	}

	var newFindings, resolvedFindings []baseline.SecurityFinding
	severity := SeverityNone
	for _, f := range afterFindings {
		if beforeKey[findingKey(f)] {
			continue
		}
		newFindings = append(newFindings, f)
		severity = maxSeverity(severity, riskLevelSeverity(f.RiskLevel))
	}
	for _, f := range beforeFindings {
		if !afterKey[findingKey(f)] {
			resolvedFindings = append(resolvedFindings, f)
		}
	}

	if severity == SeverityNone && len(resolvedFindings) == 0 && currentRisk == previousRisk {
		return SeverityNone, nil, false
	}

	report := &SecurityReport{
		Degraded:          len(newFindings) > 0 || currentRisk > previousRisk,
		PreviousRiskScore: previousRisk,
		CurrentRiskScore:  currentRisk,
		NewFindings:       newFindings,
		ResolvedFindings:  resolvedFindings,
	}
	return severity, report, true
}

func findingKey(f baseline.SecurityFinding) string {
	return f.Category + "|" + f.Title + "|" + f.Parameter
}

// compareAnnotations implements the gated `tool_annotations` aspect.
func compareAnnotations(before, after map[string]interface{}) (Severity, string) {
	for _, key := range []string{"destructiveHint", "readOnlyHint", "idempotentHint"} {
		if fmt.Sprint(before[key]) != fmt.Sprint(after[key]) {
			return SeverityWarning, fmt.Sprintf("%s changed", key)
		}
	}
	return SeverityNone, ""
}

// compareDescription implements the `description` aspect via §4.E
// semantic-change confidence: a category flip is a `warning`, any other
// textual change is `info`, and identical text reports no change. The
// description text
// itself is rendered as a unified diff so a reviewer can see exactly
// which words moved instead of just "description changed".
func compareDescription(before, after string, keywords map[string][]string) (Severity, confidence.ChangeConfidence, bool, string) {
	if before == after {
		return SeverityNone, confidence.ChangeConfidence{}, false, ""
	}
	beforeCats := confidence.ExtractCategories(before, keywords)
	afterCats := confidence.ExtractCategories(after, keywords)
	cc := confidence.SemanticChange(before, after, beforeCats, afterCats)
	desc := udiff.Unified("before", "after", before, after)

	flipped := categorySetFlip(beforeCats, afterCats)
	if flipped {
		return SeverityWarning, cc, true, desc
	}
	return SeverityInfo, cc, true, desc
}

func categorySetFlip(before, after map[string]float64) bool {
	if len(before) != len(after) {
		return true
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			return true
		}
	}
	return false
}
