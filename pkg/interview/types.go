// Package interview implements §4.F: running generated test cases against
// a discovered tool surface through a bounded worker pool, buffering
// samples, and feeding them to the fingerprinting layer. Grounded on
// falcon's performance_engine/load_runner.go goroutine-pool pattern
// (pkg/core/tools/performance_engine/load_runner.go), replacing its
// fixed-duration virtual-user loop with a bounded, per-tool/global-capped
// test-case pool.
package interview

import (
	"time"

	"github.com/arcflow-dev/bellwether/pkg/discovery"
	"github.com/arcflow-dev/bellwether/pkg/fingerprint"
	"github.com/arcflow-dev/bellwether/pkg/testgen"
)

// Phase is a lifecycle stage reported through the progress callback.
type Phase string

const (
	PhaseStarting      Phase = "starting"
	PhaseInterviewing  Phase = "interviewing"
	PhasePrompts       Phase = "prompts"
	PhaseResources     Phase = "resources"
	PhaseWorkflows     Phase = "workflows"
	PhaseSynthesizing  Phase = "synthesizing"
	PhaseComplete      Phase = "complete"
)

// Progress is one update sent on the (bounded, lossy) progress channel.
type Progress struct {
	Phase   Phase
	Tool    string
	Message string
}

// Options configures the engine, per §6's configuration table.
type Options struct {
	MaxParallelTools   int
	MaxParallelPerTool int
	PerCallTimeout     time.Duration
	PerToolDeadline    time.Duration
	GlobalDeadline     time.Duration
	Personas           []string
	TestgenOptions     testgen.Options
	SchemaEvolutionCap int
}

// DefaultOptions mirrors sane defaults consistent with testgen's.
func DefaultOptions() Options {
	return Options{
		MaxParallelTools:   4,
		MaxParallelPerTool: 4,
		PerCallTimeout:     10 * time.Second,
		PerToolDeadline:    2 * time.Minute,
		GlobalDeadline:     15 * time.Minute,
		Personas:           []string{"default"},
		TestgenOptions:     testgen.DefaultOptions(),
		SchemaEvolutionCap: 10,
	}
}

// ToolResult is one tool's interview outcome: its samples, the
// fingerprint derived from them, the updated schema-evolution history,
// and per-persona pass rates (reported but non-gating per §4.F).
type ToolResult struct {
	Tool             discovery.ToolDescriptor
	Samples          []fingerprint.Sample
	Fingerprint      fingerprint.ToolFingerprint
	SchemaHistory    []fingerprint.SchemaVersion
	PersonaPassRates map[string]float64
	Partial          bool
	Failed           bool
	FailureReason    string
}

// Result is the full interview outcome across all tools.
type Result struct {
	Discovery *discovery.Result
	Tools     []ToolResult
	Partial   bool
	Warnings  []string
}
