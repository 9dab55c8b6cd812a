// Package config defines the §6 recognized-options contracts:
// interview/testgen tuning (Options) and comparator behavior
// (ComparatorOptions). Both are plain structs with yaml tags; Load (in
// load.go) decodes a yaml file onto DefaultOptions, and cmd/bellwether
// uses viper only to locate that file. Grounded on
// falcon's pkg/core/init.go Config struct (yaml-tagged, commented fields,
// package-level defaults) generalized from Falcon's provider/theme
// settings to bellwether's interview/comparator knobs.
package config

import "github.com/go-playground/validator/v10"

// Options is the §6 configuration surface for an interview run.
type Options struct {
	MaxQuestionsPerTool    int      `yaml:"max_questions_per_tool" validate:"min=1"`
	ParallelTools          int      `yaml:"parallel_tools" validate:"min=1"`
	ParallelPerTool        int      `yaml:"parallel_per_tool" validate:"min=1"`
	PerCallTimeoutMs       int      `yaml:"per_call_timeout_ms" validate:"min=1"`
	PerToolDeadlineMs      int      `yaml:"per_tool_deadline_ms" validate:"min=1"`
	Personas               []string `yaml:"personas"`
	RegressionThresholdPct float64  `yaml:"regression_threshold_pct" validate:"min=0"`
	ConfidenceMinReporting int      `yaml:"confidence_min_reporting" validate:"min=0,max=100"`
	GracefulPartial        bool     `yaml:"graceful_partial"`
	TestFixtures           []Fixture `yaml:"test_fixtures"`
}

// Fixture is one §6 "testFixtures" per-parameter value override entry.
// Tool scopes the entry within the config file only (testgen's generator
// is schema- not tool-scoped); set Pattern for a regex match over the
// parameter name, otherwise Parameter is matched exactly.
type Fixture struct {
	Tool      string `yaml:"tool"`
	Parameter string `yaml:"parameter,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`
	Value     string `yaml:"value"`
}

// ComparatorOptions is the §6 "Comparator options" yaml surface, mirrored
// into pkg/comparator.Options by cmd/bellwether.
type ComparatorOptions struct {
	IgnoreAspects  []string `yaml:"ignore_aspects"`
	ConfidenceMin  int      `yaml:"confidence_min" validate:"min=0,max=100"`
	FailOnSeverity string   `yaml:"fail_on_severity" validate:"omitempty,oneof=warning breaking"`
}

// DefaultOptions returns the §6 defaults, so a caller that skips external
// configuration entirely still gets a sane run. They are this package's
// own values: MaxQuestionsPerTool, ParallelPerTool and PerToolDeadlineMs
// differ from pkg/interview's and pkg/testgen's package-level defaults.
func DefaultOptions() Options {
	return Options{
		MaxQuestionsPerTool:    12,
		ParallelTools:          4,
		ParallelPerTool:        3,
		PerCallTimeoutMs:       10_000,
		PerToolDeadlineMs:      60_000,
		Personas:               []string{"default"},
		RegressionThresholdPct: 0.5,
		ConfidenceMinReporting: 0,
		GracefulPartial:        true,
	}
}

// DefaultComparatorOptions returns the §6 comparator defaults: nothing
// ignored, no confidence floor, never fail the caller's exit code.
func DefaultComparatorOptions() ComparatorOptions {
	return ComparatorOptions{}
}

var validate = validator.New()

// Validate checks Options against its struct tags, per falcon's pattern
// of validating user-supplied config before it reaches the core.
func (o Options) Validate() error {
	return validate.Struct(o)
}

// Validate checks ComparatorOptions against its struct tags.
func (o ComparatorOptions) Validate() error {
	return validate.Struct(o)
}
