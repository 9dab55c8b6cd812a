package fingerprint

import "github.com/arcflow-dev/bellwether/pkg/value"

// ToolFingerprint bundles everything §4.D derives from one tool's sample
// batch: the response shape, clustered errors, latency percentiles, and
// the updated schema-evolution history.
type ToolFingerprint struct {
	Response    ResponseFingerprint
	Errors      []ErrorPattern
	Performance PerformanceMetrics
	Evolution   Evolution
}

// ComputeToolFingerprint runs the full §4.D pipeline for one tool's
// sample batch, folding the new batch's schema into the supplied
// evolution history. Fingerprint computation is pure: it reads nothing
// but its arguments and the system clock is never consulted (observedAt
// comes from the caller), so it may run concurrently across tools.
func ComputeToolFingerprint(samples []Sample, history []SchemaVersion, historyCap int, observedAt string) (ToolFingerprint, []SchemaVersion) {
	var successResponses [][]byte
	var successDurations []float64
	clusterer := newErrorClusterer()

	for _, s := range samples {
		if s.Outcome == OutcomeSuccess {
			successResponses = append(successResponses, s.ResponseContent)
			successDurations = append(successDurations, s.DurationMs)
		} else {
			clusterer.add(s.ErrorMessage)
		}
	}

	responseFP, _ := ComputeResponseFingerprint(successResponses)
	perf := ComputePerformance(successDurations, len(samples))

	var schemas []*InferredSchema
	for _, raw := range successResponses {
		v, err := value.Parse(raw)
		if err != nil {
			continue
		}
		schemas = append(schemas, InferSchema(v))
	}

	var merged *InferredSchema
	for _, s := range schemas {
		merged = MergeSchemas(merged, s)
	}

	newHistory := history
	if merged != nil {
		newHistory = AppendVersion(history, merged, observedAt, len(samples), historyCap)
	}

	stability := ComputeStability(schemas)

	return ToolFingerprint{
		Response:    responseFP,
		Errors:      clusterer.patterns(),
		Performance: perf,
		Evolution:   stability,
	}, newHistory
}
