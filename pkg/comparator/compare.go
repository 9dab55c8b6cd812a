package comparator

import (
	"fmt"
	"sort"

	"github.com/arcflow-dev/bellwether/pkg/baseline"
	"github.com/arcflow-dev/bellwether/pkg/confidence"
	"github.com/arcflow-dev/bellwether/pkg/errs"
)

// Compare implements §4.H: `Compare(before, after, options?) → Diff`.
func Compare(before, after *baseline.Baseline, opts Options) (*Diff, error) {
	if before == nil || after == nil {
		return nil, errs.NewComparisonError("", fmt.Errorf("both baselines are required"))
	}

	flags := sharedFeatureFlags(before.Server.ProtocolVersion, after.Server.ProtocolVersion)

	beforeTools := toolsByName(before.Capabilities.Tools)
	afterTools := toolsByName(after.Capabilities.Tools)

	diff := &Diff{SharedFeatureFlags: flags}

	for name := range beforeTools {
		if _, ok := afterTools[name]; !ok {
			diff.ToolsRemoved = append(diff.ToolsRemoved, name)
		}
	}
	for name := range afterTools {
		if _, ok := beforeTools[name]; !ok {
			diff.ToolsAdded = append(diff.ToolsAdded, name)
		}
	}
	sort.Strings(diff.ToolsRemoved)
	sort.Strings(diff.ToolsAdded)

	var commonNames []string
	for name := range beforeTools {
		if _, ok := afterTools[name]; ok {
			commonNames = append(commonNames, name)
		}
	}
	sort.Strings(commonNames)

	for _, name := range commonNames {
		changes := compareTool(beforeTools[name], afterTools[name], flags, opts)
		diff.ToolChanges = append(diff.ToolChanges, changes...)
	}

	finalize(diff, opts)
	return diff, nil
}

func toolsByName(tools []baseline.Tool) map[string]baseline.Tool {
	out := make(map[string]baseline.Tool, len(tools))
	for _, t := range tools {
		out[t.Name] = t
	}
	return out
}

// compareTool runs every §4.H aspect for one tool present in both
// baselines, gating tool_annotations behind the shared feature flag.
func compareTool(before, after baseline.Tool, flags map[string]bool, opts Options) []ToolChange {
	var changes []ToolChange

	if before.SchemaHash != after.SchemaHash {
		sc := compareSchema(before.InputSchema, after.InputSchema)
		if sc.severity != SeverityNone {
			changes = append(changes, ToolChange{
				Tool: before.Name, Aspect: "schema", Severity: sc.severity,
				Description: sc.description, Confidence: confidence.StructuralChange(),
			})
		}
	}

	if sev, cc, has, desc := compareDescription(before.Description, after.Description, confidence.DefaultCategoryKeywords); has {
		changes = append(changes, ToolChange{
			Tool: before.Name, Aspect: "description", Severity: sev,
			Description: desc, Confidence: cc,
		})
	}

	if sev, desc, added, removed := compareResponseStructure(before.Response, after.Response); sev != SeverityNone {
		changes = append(changes, ToolChange{
			Tool: before.Name, Aspect: "response_structure", Severity: sev,
			Description: desc, Confidence: confidence.StructuralChange(),
			FieldsAdded: added, FieldsRemoved: removed,
		})
	}

	if sev, desc := compareErrorPatterns(before.ErrorPatterns, after.ErrorPatterns); sev != SeverityNone {
		changes = append(changes, ToolChange{
			Tool: before.Name, Aspect: "error_pattern", Severity: sev,
			Description: desc, Confidence: confidence.StructuralChange(),
		})
	}

	if sev, desc := compareSchemaEvolution(before.SchemaEvolution, after.SchemaEvolution); sev != SeverityNone {
		changes = append(changes, ToolChange{
			Tool: before.Name, Aspect: "response_schema_evolution", Severity: sev,
			Description: desc, Confidence: confidence.StructuralChange(),
		})
	}

	threshold := opts.RegressionThresholdPct
	if threshold <= 0 {
		threshold = DefaultOptions().RegressionThresholdPct
	}
	if sev, regression, lowConf, has := comparePerformance(before.Performance, after.Performance, threshold); has {
		changes = append(changes, ToolChange{
			Tool: before.Name, Aspect: "performance", Severity: sev,
			Description:       fmt.Sprintf("p50 latency changed by %.0f%%", regression*100),
			Confidence:        confidence.StructuralChange(),
			RegressionPercent: regression,
			LowConfidence:     lowConf,
		})
	}

	if sev, report, has := compareSecurity(before.Security, after.Security); has {
		changes = append(changes, ToolChange{
			Tool: before.Name, Aspect: "security", Severity: sev,
			Description: "security fingerprint changed", Confidence: confidence.StructuralChange(),
			SecurityReport: report,
		})
	}

	if flags["annotations"] {
		if sev, desc := compareAnnotations(before.Annotations, after.Annotations); sev != SeverityNone {
			changes = append(changes, ToolChange{
				Tool: before.Name, Aspect: "tool_annotations", Severity: sev,
				Description: desc, Confidence: confidence.StructuralChange(),
			})
		}
	}

	return changes
}

// finalize applies ignoreAspects/confidenceMin filtering, computes the
// overall severity and counts, builds the confidence summary, and writes
// the human summary line.
func finalize(diff *Diff, opts Options) {
	filtered := diff.ToolChanges[:0]
	for _, c := range diff.ToolChanges {
		if opts.ignores(c.Aspect) {
			continue
		}
		if opts.ConfidenceMin > 0 && c.Confidence.Score < opts.ConfidenceMin {
			continue
		}
		filtered = append(filtered, c)
	}
	diff.ToolChanges = filtered

	severity := SeverityNone
	var confidences []confidence.ChangeConfidence
	for _, c := range diff.ToolChanges {
		severity = maxSeverity(severity, c.Severity)
		confidences = append(confidences, c.Confidence)
		switch c.Severity {
		case SeverityBreaking:
			diff.BreakingCount++
		case SeverityWarning:
			diff.WarningCount++
		case SeverityInfo:
			diff.InfoCount++
		}
	}
	if len(diff.ToolsRemoved) > 0 {
		severity = maxSeverity(severity, SeverityBreaking)
		diff.BreakingCount += len(diff.ToolsRemoved)
	}
	if len(diff.ToolsAdded) > 0 {
		severity = maxSeverity(severity, SeverityInfo)
		diff.InfoCount += len(diff.ToolsAdded)
	}

	diff.Severity = severity
	diff.ConfidenceSummary = confidence.SummarizeDiff(confidences)
	diff.Summary = summarize(diff)
}

func summarize(diff *Diff) string {
	return fmt.Sprintf(
		"severity=%s: %d tool(s) added, %d removed, %d change(s) (%d breaking, %d warning, %d info)",
		diff.Severity, len(diff.ToolsAdded), len(diff.ToolsRemoved), len(diff.ToolChanges),
		diff.BreakingCount, diff.WarningCount, diff.InfoCount,
	)
}
