package config

import (
	"time"

	"github.com/arcflow-dev/bellwether/pkg/comparator"
	"github.com/arcflow-dev/bellwether/pkg/interview"
	"github.com/arcflow-dev/bellwether/pkg/testgen"
)

// ToInterviewOptions maps the yaml-facing Options onto pkg/interview's
// runtime Options, the one place millisecond ints become
// time.Duration and fixtures become testgen's regex/exact override
// table.
func ToInterviewOptions(o Options) interview.Options {
	return interview.Options{
		MaxParallelTools:   o.ParallelTools,
		MaxParallelPerTool: o.ParallelPerTool,
		PerCallTimeout:     time.Duration(o.PerCallTimeoutMs) * time.Millisecond,
		PerToolDeadline:    time.Duration(o.PerToolDeadlineMs) * time.Millisecond,
		GlobalDeadline:     time.Duration(o.PerToolDeadlineMs) * time.Millisecond * time.Duration(maxInt(len(o.Personas), 1)),
		Personas:           o.Personas,
		TestgenOptions:     toTestgenOptions(o),
		SchemaEvolutionCap: 10,
	}
}

func toTestgenOptions(o Options) testgen.Options {
	opts := testgen.DefaultOptions()
	if o.MaxQuestionsPerTool > 0 {
		opts.MaxTestsPerTool = o.MaxQuestionsPerTool
		if opts.MinTestsPerTool > opts.MaxTestsPerTool {
			opts.MinTestsPerTool = opts.MaxTestsPerTool
		}
	}
	opts.Fixtures = toFixtures(o.TestFixtures)
	return opts
}

// toFixtures flattens the yaml-facing per-tool fixture list into
// testgen.Fixtures. testgen's generator is schema-scoped, not
// tool-scoped, so Fixture.Tool only disambiguates the config file; the
// runtime override is keyed purely by parameter name, matching
// testgen.valueGenerator's lookup.
func toFixtures(in []Fixture) testgen.Fixtures {
	out := testgen.Fixtures{Exact: map[string]interface{}{}}
	for _, f := range in {
		if f.Pattern != "" {
			out.Pattern = append(out.Pattern, testgen.FixturePattern{Pattern: f.Pattern, Value: f.Value})
			continue
		}
		if f.Parameter != "" {
			out.Exact[f.Parameter] = f.Value
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ToComparatorOptions maps the yaml-facing ComparatorOptions onto
// pkg/comparator's runtime Options.
func ToComparatorOptions(o ComparatorOptions, regressionThresholdPct float64) comparator.Options {
	return comparator.Options{
		IgnoreAspects:          o.IgnoreAspects,
		ConfidenceMin:          o.ConfidenceMin,
		FailOnSeverity:         comparator.Severity(o.FailOnSeverity),
		RegressionThresholdPct: regressionThresholdPct,
	}
}
