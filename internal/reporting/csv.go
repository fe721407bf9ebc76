package reporting

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/revu-dev/revu/api/schemas"
)

// csvHeader is the column set, one row per finding across all tools.
var csvHeader = []string{"Source", "Rule", "Type", "Message", "Line", "Column", "File", "Severity/Level"}

// csvReporter flattens the report into a spreadsheet-ready table.
type csvReporter struct{}

func (r *csvReporter) Report(w io.Writer, report *schemas.ReviewReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, f := range report.Flatten() {
		row := []string{
			f.Source,
			f.Rule,
			string(f.Category),
			f.Message,
			formatOrdinal(f.Line),
			formatOrdinal(f.Column),
			f.File,
			f.Severity,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatOrdinal renders a 1-based position, leaving unknown (zero) blank.
func formatOrdinal(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
