package fingerprint

import (
	"encoding/json"
	"sort"
)

// SchemaVersion is one entry in a tool's schema-evolution ring.
type SchemaVersion struct {
	Hash        string          `json:"hash"`
	Schema      *InferredSchema `json:"schema"`
	ObservedAt  string          `json:"observedAt"`
	SampleCount int             `json:"sampleCount"`
}

// Evolution is the §3 "Schema evolution" shape: a bounded, append-only
// history plus a rolling stability verdict over the current window.
type Evolution struct {
	Versions            []SchemaVersion `json:"versions,omitempty"`
	IsStable            bool            `json:"isStable"`
	InconsistentFields  []string        `json:"inconsistentFields,omitempty"`
	StabilityConfidence float64         `json:"stabilityConfidence"`
}

// schemaHash hashes an InferredSchema's canonical JSON encoding for
// evolution-ring deduplication and baseline comparison.
func schemaHash(s *InferredSchema) string {
	data, _ := json.Marshal(s)
	return PatternHash(string(data))
}

// AppendVersion adds schema to the ring if its hash differs from the
// tail, evicting the oldest entry once cap is reached. observedAt is an
// RFC3339 timestamp supplied by the caller (this package never reads the
// clock, so results stay reproducible in tests).
func AppendVersion(history []SchemaVersion, schema *InferredSchema, observedAt string, sampleCount int, cap int) []SchemaVersion {
	hash := schemaHash(schema)
	if len(history) > 0 && history[len(history)-1].Hash == hash {
		return history
	}
	history = append(history, SchemaVersion{
		Hash:        hash,
		Schema:      schema,
		ObservedAt:  observedAt,
		SampleCount: sampleCount,
	})
	if cap > 0 && len(history) > cap {
		history = history[len(history)-cap:]
	}
	return history
}

// fieldObservation tracks, across a window of samples, how often a field
// was present and which types it took on.
type fieldObservation struct {
	presentCount int
	types        map[string]bool
}

// ComputeStability implements §3's window stability check: isStable iff
// every field's presence ratio is 1.0 and every type-set is a singleton.
// stabilityConfidence = consistencyRatio × sampleWeight, where
// sampleWeight approaches 1 as the window grows (per §3, "as samples
// grow"); it's modeled here as sampleCount/(sampleCount+4), a standard
// Laplace-style damping that reaches ~0.83 at 20 samples.
func ComputeStability(samples []*InferredSchema) Evolution {
	if len(samples) == 0 {
		return Evolution{IsStable: false, StabilityConfidence: 0}
	}

	fields := map[string]*fieldObservation{}
	for _, s := range samples {
		if s.Type != "object" {
			continue
		}
		for name, prop := range s.Properties {
			obs, ok := fields[name]
			if !ok {
				obs = &fieldObservation{types: map[string]bool{}}
				fields[name] = obs
			}
			obs.presentCount++
			obs.types[prop.Type] = true
		}
	}

	var inconsistent []string
	consistentFields := 0
	for name, obs := range fields {
		ratio := float64(obs.presentCount) / float64(len(samples))
		singleton := len(obs.types) == 1
		if ratio == 1.0 && singleton {
			consistentFields++
		} else {
			inconsistent = append(inconsistent, name)
		}
	}

	sort.Strings(inconsistent)

	total := len(fields)
	consistencyRatio := 1.0
	if total > 0 {
		consistencyRatio = float64(consistentFields) / float64(total)
	}
	sampleWeight := float64(len(samples)) / float64(len(samples)+4)

	return Evolution{
		IsStable:            len(inconsistent) == 0,
		InconsistentFields:  inconsistent,
		StabilityConfidence: consistencyRatio * sampleWeight,
	}
}
