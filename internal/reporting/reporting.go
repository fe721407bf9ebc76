// Package reporting renders a review report to its output formats. Every
// format writes the same report; only the shape differs.
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/revu-dev/revu/api/schemas"
)

// Supported output formats.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatSARIF = "sarif"
	FormatText  = "text"
)

// Reporter renders one review report to a writer.
type Reporter interface {
	Report(w io.Writer, report *schemas.ReviewReport) error
}

// New returns the reporter for the named format.
func New(format string) (Reporter, error) {
	switch format {
	case FormatJSON:
		return &jsonReporter{}, nil
	case FormatCSV:
		return &csvReporter{}, nil
	case FormatSARIF:
		return &sarifReporter{}, nil
	case FormatText, "":
		return &textReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Write renders the report in the given format to path, or to stdout when
// path is empty.
func Write(format, path string, report *schemas.ReviewReport) error {
	reporter, err := New(format)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return reporter.Report(w, report)
}
