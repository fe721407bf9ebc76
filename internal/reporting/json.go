package reporting

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/revu-dev/revu/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonReporter emits the full report as indented JSON, the machine-friendly
// default for piping into other tooling.
type jsonReporter struct{}

func (r *jsonReporter) Report(w io.Writer, report *schemas.ReviewReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
