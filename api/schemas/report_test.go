package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleReport() *ReviewReport {
	return &ReviewReport{
		ID:       "r-1",
		Language: "python",
		Order:    []string{"compile", "ruff", "runtime"},
		Tools: map[string]ToolOutcome{
			"compile": {},
			"ruff": {Findings: []FindingRecord{
				{Source: "ruff", Rule: "F401", Category: CategoryLintStyle, Message: "unused import", Line: 1, File: InputFile},
				{Source: "ruff", Rule: "E711", Category: CategoryLintStyle, Message: "comparison to None", Line: 3, File: InputFile},
			}},
			"runtime": {Findings: []FindingRecord{
				{Source: "runtime", Rule: "ZeroDivisionError", Category: CategoryRuntime, Message: "division by zero", Line: 3, File: InputFile},
			}},
		},
	}
}

func TestFlattenFollowsReportOrder(t *testing.T) {
	all := sampleReport().Flatten()

	var sources []string
	for _, f := range all {
		sources = append(sources, f.Source+"/"+f.Rule)
	}
	assert.Equal(t, []string{"ruff/F401", "ruff/E711", "runtime/ZeroDivisionError"}, sources)
}

func TestCountBySourceSkipsZeroEntries(t *testing.T) {
	counts := sampleReport().CountBySource()

	assert.Equal(t, map[string]int{"ruff": 2, "runtime": 1}, counts)
	assert.NotContains(t, counts, "compile")
}

func TestTotalFindings(t *testing.T) {
	assert.Equal(t, 3, sampleReport().TotalFindings())

	empty := &ReviewReport{Order: []string{"compile"}, Tools: map[string]ToolOutcome{"compile": {}}}
	assert.Equal(t, 0, empty.TotalFindings())
}

func TestToolOutcomeUnavailable(t *testing.T) {
	assert.True(t, ToolOutcome{UnavailableReason: "ruff not installed"}.Unavailable())
	assert.False(t, ToolOutcome{Note: "timed out"}.Unavailable())
}

func TestRuntimeProbeResultSkipped(t *testing.T) {
	assert.True(t, (&RuntimeProbeResult{SkippedReason: "disabled"}).Skipped())
	assert.False(t, (&RuntimeProbeResult{Stdout: "ok"}).Skipped())
}
