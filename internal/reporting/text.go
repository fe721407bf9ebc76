package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/revu-dev/revu/api/schemas"
)

// textReporter renders a human-readable per-tool breakdown with a trailing
// summary line. This is the default format on a terminal.
type textReporter struct{}

func (r *textReporter) Report(w io.Writer, report *schemas.ReviewReport) error {
	fmt.Fprintf(w, "Review %s (%s)\n", report.ID, report.Language)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	if report.Note != "" {
		fmt.Fprintf(w, "\nnote: %s\n", report.Note)
	}

	for _, name := range report.Order {
		outcome := report.Tools[name]
		fmt.Fprintf(w, "\n%s\n", name)
		switch {
		case outcome.UnavailableReason != "":
			fmt.Fprintf(w, "  unavailable: %s\n", outcome.UnavailableReason)
		case len(outcome.Findings) == 0:
			if outcome.Note != "" {
				fmt.Fprintf(w, "  note: %s\n", outcome.Note)
			} else {
				fmt.Fprintln(w, "  no findings")
			}
		default:
			for _, f := range outcome.Findings {
				fmt.Fprintf(w, "  %s%s[%s] %s\n", position(f), ruleTag(f), f.Category, f.Message)
			}
			if outcome.Note != "" {
				fmt.Fprintf(w, "  note: %s\n", outcome.Note)
			}
		}
	}

	if qf := report.QuickFix; qf != nil && len(qf.EditedLines) > 0 {
		fmt.Fprintf(w, "\nQuick fixes applied on %d line(s)\n", len(qf.EditedLines))
		if qf.Diff != "" {
			fmt.Fprintln(w, qf.Diff)
		}
	}

	if ai := report.AIReview; ai != nil {
		fmt.Fprintln(w, "\nAI review")
		switch {
		case ai.Err != "":
			fmt.Fprintf(w, "  %s\n", ai.Err)
		case ai.Feedback != "":
			for _, line := range strings.Split(strings.TrimRight(ai.Feedback, "\n"), "\n") {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	total := report.TotalFindings()
	if total == 0 {
		fmt.Fprintln(w, "No findings.")
		return nil
	}
	fmt.Fprintf(w, "%d finding(s):", total)
	for _, name := range report.Order {
		if n := len(report.Tools[name].Findings); n > 0 {
			fmt.Fprintf(w, " %s=%d", name, n)
		}
	}
	fmt.Fprintln(w)
	return nil
}

func position(f schemas.FindingRecord) string {
	switch {
	case f.Line > 0 && f.Column > 0:
		return fmt.Sprintf("%d:%d ", f.Line, f.Column)
	case f.Line > 0:
		return fmt.Sprintf("%d ", f.Line)
	default:
		return ""
	}
}

func ruleTag(f schemas.FindingRecord) string {
	if f.Rule == "" {
		return ""
	}
	return f.Rule + " "
}
