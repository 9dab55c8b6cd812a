package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValidates(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
}

func TestOptionsRejectsZeroParallelism(t *testing.T) {
	o := DefaultOptions()
	o.ParallelTools = 0
	require.Error(t, o.Validate())
}

func TestComparatorOptionsRejectsBadFailOnSeverity(t *testing.T) {
	o := ComparatorOptions{FailOnSeverity: "catastrophic"}
	require.Error(t, o.Validate())
}

func TestComparatorOptionsAllowsEmptyFailOnSeverity(t *testing.T) {
	require.NoError(t, DefaultComparatorOptions().Validate())
}

func TestToInterviewOptionsAppliesQuestionCeiling(t *testing.T) {
	o := DefaultOptions()
	o.MaxQuestionsPerTool = 6
	interviewOpts := ToInterviewOptions(o)
	require.Equal(t, 6, interviewOpts.TestgenOptions.MaxTestsPerTool)
}

func TestToFixturesSeparatesExactAndPattern(t *testing.T) {
	fixtures := toFixtures([]Fixture{
		{Parameter: "username", Value: "alice"},
		{Pattern: "^email.*", Value: "a@example.com"},
	})
	require.Equal(t, "alice", fixtures.Exact["username"])
	require.Len(t, fixtures.Pattern, 1)
}
