package fingerprint

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/bellwether/pkg/value"
)

func parse(t *testing.T, raw string) value.Value {
	t.Helper()
	v, err := value.Parse([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestStructureHashDeterminismUnderKeyPermutation(t *testing.T) {
	a := parse(t, `{"name":"alice","age":30,"active":true}`)
	b := parse(t, `{"active":true,"name":"alice","age":30}`)
	require.Equal(t, StructureHash(a), StructureHash(b))
}

func TestStructureHashHidesLiteralValues(t *testing.T) {
	a := parse(t, `{"a":"x"}`)
	b := parse(t, `{"a":"y"}`)
	require.Equal(t, StructureHash(a), StructureHash(b))

	arr1 := parse(t, `[1,2,3]`)
	arr2 := parse(t, `[10,20,30]`)
	require.Equal(t, StructureHash(arr1), StructureHash(arr2))
}

func TestStructureHashDistinguishesShapes(t *testing.T) {
	obj := parse(t, `{"a":1}`)
	arr := parse(t, `[1]`)
	require.NotEqual(t, StructureHash(obj), StructureHash(arr))
}

func TestErrorPatternNormalization(t *testing.T) {
	a := `Resource 550e8400-e29b-41d4-a716-446655440000 not found at /var/data/users/42`
	b := `Resource 11111111-2222-3333-4444-555555555555 not found at /var/data/orders/99`
	require.Equal(t, PatternHash(a), PatternHash(b))

	c := `Field "email" is required but got 42 retries`
	d := `Field "username" is required but got 7 retries`
	require.Equal(t, PatternHash(c), PatternHash(d))
}

func TestCategorizeErrorKeywords(t *testing.T) {
	require.Equal(t, ErrorValidation, CategorizeError("invalid parameter: must be a string"))
	require.Equal(t, ErrorNotFound, CategorizeError("resource not found"))
	require.Equal(t, ErrorPermission, CategorizeError("access denied: unauthorized"))
	require.Equal(t, ErrorTimeout, CategorizeError("request timed out"))
	require.Equal(t, ErrorInternal, CategorizeError("internal server error"))
	require.Equal(t, ErrorUnknown, CategorizeError("the flux capacitor overheated"))
}

func TestMergeSchemasCommutativeAndIdempotent(t *testing.T) {
	a := InferSchema(parse(t, `{"name":"alice","age":30}`))
	b := InferSchema(parse(t, `{"name":"bob","tags":["x"]}`))

	ab := MergeSchemas(a, b)
	ba := MergeSchemas(b, a)
	require.Equal(t, schemaHash(ab), schemaHash(ba))

	idempotent := MergeSchemas(ab, ab)
	require.Equal(t, schemaHash(ab), schemaHash(idempotent))
}

func TestMergeRequiredIsIntersectionOfPresence(t *testing.T) {
	a := InferSchema(parse(t, `{"name":"alice","age":30}`))
	b := InferSchema(parse(t, `{"name":"bob"}`))
	merged := MergeSchemas(a, b)
	require.Contains(t, merged.Required, "name")
	require.NotContains(t, merged.Required, "age")
}

func TestMergeNullWidensToNullable(t *testing.T) {
	a := InferSchema(parse(t, `{"a":null}`))
	b := InferSchema(parse(t, `{"a":"hello"}`))
	merged := MergeSchemas(a.Properties["a"], b.Properties["a"])
	require.Equal(t, "string", merged.Type)
	require.True(t, merged.Nullable)
}

func TestMergeIntegerAndNumberWidenToNumber(t *testing.T) {
	a := &InferredSchema{Type: "integer"}
	b := &InferredSchema{Type: "number"}
	merged := MergeSchemas(a, b)
	require.Equal(t, "number", merged.Type)
}

func TestPercentileOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := 1 + rng.Intn(50)
		durations := make([]float64, n)
		for i := range durations {
			durations[i] = rng.Float64() * 1000
		}
		perf := ComputePerformance(durations, n)
		require.LessOrEqual(t, perf.P50, perf.P95)
		require.LessOrEqual(t, perf.P95, perf.P99)
	}
}

func TestPerformanceConfidenceGrading(t *testing.T) {
	tightHighVolume := make([]float64, 25)
	for i := range tightHighVolume {
		tightHighVolume[i] = 100 + float64(i%3)
	}
	require.Equal(t, ConfidenceHigh, ComputePerformance(tightHighVolume, 25).PerformanceConfidence)

	sparse := []float64{10, 500}
	require.Equal(t, ConfidenceNA, ComputePerformance(sparse, 2).PerformanceConfidence)
}

func TestComputeToolFingerprintClustersAndHistory(t *testing.T) {
	samples := []Sample{
		{ToolName: "get_weather", Outcome: OutcomeSuccess, ResponseContent: []byte(`{"temp":72,"unit":"F"}`), DurationMs: 50},
		{ToolName: "get_weather", Outcome: OutcomeSuccess, ResponseContent: []byte(`{"temp":68,"unit":"F"}`), DurationMs: 60},
		{ToolName: "get_weather", Outcome: OutcomeError, ErrorMessage: `invalid parameter "city": missing`, DurationMs: 5},
	}

	tf, history := ComputeToolFingerprint(samples, nil, 5, "2026-01-01T00:00:00Z")
	require.Equal(t, 2, tf.Response.SampleCount)
	require.Equal(t, "object", tf.Response.ContentType)
	require.Len(t, tf.Errors, 1)
	require.Equal(t, ErrorValidation, tf.Errors[0].Category)
	require.Len(t, history, 1)

	tf2, history2 := ComputeToolFingerprint(samples, history, 5, "2026-01-02T00:00:00Z")
	require.Equal(t, history, history2, "identical schema should not grow the evolution ring")
	require.True(t, tf2.Evolution.IsStable)
}
