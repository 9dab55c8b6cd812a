package comparator

import (
	"testing"

	"github.com/arcflow-dev/bellwether/pkg/baseline"
	"github.com/arcflow-dev/bellwether/pkg/confidence"
	"github.com/arcflow-dev/bellwether/pkg/fingerprint"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newBaseline(protocolVersion string, tools ...baseline.Tool) *baseline.Baseline {
	return &baseline.Baseline{
		Server:       baseline.ServerInfo{Name: "demo", ProtocolVersion: protocolVersion},
		Capabilities: baseline.Capabilities{Tools: tools},
	}
}

func weatherTool(schemaHash string) baseline.Tool {
	return baseline.Tool{
		Name:        "get_weather",
		Description: "fetch the weather",
		SchemaHash:  schemaHash,
		InputSchema: map[string]interface{}{"type": "object"},
	}
}

func TestScenarioAToolRemoved(t *testing.T) {
	before := newBaseline("2025-06-18", weatherTool("h1"), baseline.Tool{Name: "calculate", SchemaHash: "c1"})
	after := newBaseline("2025-06-18", baseline.Tool{Name: "calculate", SchemaHash: "c1"})

	diff, err := Compare(before, after, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, []string{"get_weather"}, diff.ToolsRemoved)
	require.Equal(t, SeverityBreaking, diff.Severity)
	require.Equal(t, 1, diff.BreakingCount)
}

func TestScenarioBNewRequiredParameter(t *testing.T) {
	beforeSchema := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"username": map[string]interface{}{"type": "string"}},
		"required":   []interface{}{"username"},
	}
	afterSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"username": map[string]interface{}{"type": "string"},
			"age":      map[string]interface{}{"type": "integer"},
		},
		"required": []interface{}{"username", "age"},
	}

	before := newBaseline("2025-06-18", baseline.Tool{Name: "create_user", SchemaHash: "h1", InputSchema: beforeSchema})
	after := newBaseline("2025-06-18", baseline.Tool{Name: "create_user", SchemaHash: "h2", InputSchema: afterSchema})

	diff, err := Compare(before, after, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, diff.ToolChanges, 1)
	change := diff.ToolChanges[0]
	require.Equal(t, "schema", change.Aspect)
	require.Equal(t, SeverityBreaking, change.Severity)
	require.Contains(t, change.Description, "age")
	require.Equal(t, SeverityBreaking, diff.Severity)
}

func TestScenarioCResponseShapeChange(t *testing.T) {
	beforeResp := fingerprint.ResponseFingerprint{StructureHash: "s1", ContentType: "object", Fields: []string{"status", "temp"}}
	afterResp := fingerprint.ResponseFingerprint{StructureHash: "s2", ContentType: "object", Fields: []string{"status", "data"}}

	before := newBaseline("2025-06-18", baseline.Tool{Name: "get_weather", SchemaHash: "h1", Response: beforeResp})
	after := newBaseline("2025-06-18", baseline.Tool{Name: "get_weather", SchemaHash: "h1", Response: afterResp})

	diff, err := Compare(before, after, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, diff.ToolChanges, 1)

	want := ToolChange{
		Tool: "get_weather", Aspect: "response_structure", Severity: SeverityWarning,
		Description:   "response shape changed",
		Confidence:    confidence.StructuralChange(),
		FieldsAdded:   []string{"data"},
		FieldsRemoved: []string{"temp"},
	}
	if d := cmp.Diff(want, diff.ToolChanges[0]); d != "" {
		t.Errorf("ToolChange mismatch (-want +got):\n%s", d)
	}
}

func TestScenarioDLatencyRegression(t *testing.T) {
	beforePerf := fingerprint.PerformanceMetrics{P50: 50, PerformanceConfidence: fingerprint.ConfidenceHigh}
	afterPerf := fingerprint.PerformanceMetrics{P50: 150, PerformanceConfidence: fingerprint.ConfidenceHigh}

	before := newBaseline("2025-06-18", baseline.Tool{Name: "get_weather", SchemaHash: "h1", Performance: beforePerf})
	after := newBaseline("2025-06-18", baseline.Tool{Name: "get_weather", SchemaHash: "h1", Performance: afterPerf})

	opts := DefaultOptions()
	opts.RegressionThresholdPct = 0.5

	diff, err := Compare(before, after, opts)
	require.NoError(t, err)
	require.Len(t, diff.ToolChanges, 1)
	change := diff.ToolChanges[0]
	require.Equal(t, "performance", change.Aspect)
	require.InDelta(t, 2.0, change.RegressionPercent, 0.001)
	// regressionPercent (2.0) is >= 2x the 0.5 threshold, so breaking per
	// the rule's own "or breaking if >=2x threshold" clause.
	require.Equal(t, SeverityBreaking, change.Severity)
}

func TestScenarioESecurityDegraded(t *testing.T) {
	before := newBaseline("2025-06-18", baseline.Tool{
		Name: "run_query", SchemaHash: "h1",
		Security: &baseline.SecurityFingerprint{RiskScore: 0},
	})
	after := newBaseline("2025-06-18", baseline.Tool{
		Name: "run_query", SchemaHash: "h1",
		Security: &baseline.SecurityFingerprint{
			RiskScore: 80,
			Findings: []baseline.SecurityFinding{
				{Category: "sql_injection", RiskLevel: "critical", Title: "unsanitized input", Tool: "run_query"},
			},
		},
	})

	diff, err := Compare(before, after, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, diff.ToolChanges, 1)
	change := diff.ToolChanges[0]
	require.Equal(t, "security", change.Aspect)
	require.Equal(t, SeverityBreaking, change.Severity)
	require.NotNil(t, change.SecurityReport)
	require.True(t, change.SecurityReport.Degraded)
	require.Greater(t, change.SecurityReport.CurrentRiskScore, change.SecurityReport.PreviousRiskScore)
}

func TestScenarioFNoOpRoundTrip(t *testing.T) {
	b := newBaseline("2025-06-18", weatherTool("h1"))

	diff, err := Compare(b, b, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, SeverityNone, diff.Severity)
	require.Equal(t, 0, diff.BreakingCount)
	require.Equal(t, 0, diff.WarningCount)
	require.Equal(t, 0, diff.InfoCount)
	require.Empty(t, diff.ToolChanges)
}

// Invariant 8: protocol gating symmetry — if annotations isn't in the
// shared feature set, annotation differences never contribute to
// severity, regardless of which baseline is the "older" one.
func TestInvariantProtocolGatingSymmetry(t *testing.T) {
	tool := func(destructive bool) baseline.Tool {
		return baseline.Tool{
			Name: "delete_thing", SchemaHash: "h1",
			Annotations: map[string]interface{}{"destructiveHint": destructive},
		}
	}

	oldProtocol := newBaseline("2024-11-05", tool(false))
	newProtocol := newBaseline("2025-06-18", tool(true))

	diffForward, err := Compare(oldProtocol, newProtocol, DefaultOptions())
	require.NoError(t, err)
	diffBackward, err := Compare(newProtocol, oldProtocol, DefaultOptions())
	require.NoError(t, err)

	require.NotContains(t, diffForward.SharedFeatureFlags, "annotations")
	require.NotContains(t, diffBackward.SharedFeatureFlags, "annotations")
	require.Empty(t, diffForward.ToolChanges)
	require.Empty(t, diffBackward.ToolChanges)
}

// Invariant 9: severity monotonicity — adding a breaking change never
// lowers the running maximum; removing one never raises it.
func TestInvariantSeverityMonotonicity(t *testing.T) {
	require.Equal(t, SeverityBreaking, maxSeverity(SeverityWarning, SeverityBreaking))
	require.Equal(t, SeverityBreaking, maxSeverity(SeverityBreaking, SeverityNone))
	require.Equal(t, SeverityWarning, maxSeverity(SeverityWarning, SeverityInfo))
	require.Equal(t, SeverityWarning, maxSeverity(SeverityNone, SeverityWarning))
}

func TestCompareRejectsNilBaselines(t *testing.T) {
	_, err := Compare(nil, newBaseline("2025-06-18"), DefaultOptions())
	require.Error(t, err)
}

func TestIgnoreAspectsFiltersChanges(t *testing.T) {
	beforeResp := fingerprint.ResponseFingerprint{StructureHash: "s1", ContentType: "object"}
	afterResp := fingerprint.ResponseFingerprint{StructureHash: "s2", ContentType: "object"}

	before := newBaseline("2025-06-18", baseline.Tool{Name: "get_weather", SchemaHash: "h1", Response: beforeResp})
	after := newBaseline("2025-06-18", baseline.Tool{Name: "get_weather", SchemaHash: "h1", Response: afterResp})

	opts := DefaultOptions()
	opts.IgnoreAspects = []string{"response_structure"}

	diff, err := Compare(before, after, opts)
	require.NoError(t, err)
	require.Empty(t, diff.ToolChanges)
	require.Equal(t, SeverityNone, diff.Severity)
}
