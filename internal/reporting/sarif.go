package reporting

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/revu-dev/revu/api/schemas"
)

// sarifReporter renders the findings as SARIF 2.1.0, one run per tool, for
// upload to code-scanning dashboards.
type sarifReporter struct{}

func (r *sarifReporter) Report(w io.Writer, report *schemas.ReviewReport) error {
	out, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	for _, name := range report.Order {
		outcome := report.Tools[name]
		if len(outcome.Findings) == 0 {
			continue
		}

		run := sarif.NewRunWithInformationURI(name, "https://github.com/revu-dev/revu")
		seen := map[string]bool{}
		for _, f := range outcome.Findings {
			ruleID := f.Rule
			if ruleID == "" {
				ruleID = string(f.Category)
			}
			if !seen[ruleID] {
				run.AddRule(ruleID).WithDescription(string(f.Category))
				seen[ruleID] = true
			}

			line := f.Line
			if line <= 0 {
				line = 1
			}
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.File)).
					WithRegion(sarif.NewRegion().WithStartLine(line)),
			)

			result := sarif.NewRuleResult(ruleID).
				WithMessage(sarif.NewTextMessage(f.Message)).
				WithLevel(toSarifLevel(f)).
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
		out.AddRun(run)
	}

	return out.PrettyWrite(w)
}

// toSarifLevel maps a finding onto the SARIF result levels.
func toSarifLevel(f schemas.FindingRecord) string {
	switch f.Category {
	case schemas.CategorySyntaxError, schemas.CategoryRuntime, schemas.CategoryTyping:
		return "error"
	}
	switch f.Severity {
	case "HIGH", "CRITICAL", "error":
		return "error"
	case "MEDIUM", "warning":
		return "warning"
	default:
		return "note"
	}
}
