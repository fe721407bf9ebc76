package schemas

// -- Finding Schemas --

// Category classifies a finding into the fixed taxonomy shared by every
// adapter. The values are the human-readable labels rendered by the
// presentation layer, so they double as display strings.
type Category string

// Constants defining the finding taxonomy. Every adapter maps its tool's
// native classification onto exactly one of these.
const (
	CategorySyntaxError Category = "SyntaxError" // Source does not parse.
	CategoryLintStyle   Category = "Lint/Style"  // Lint and style diagnostics.
	CategoryFormatting  Category = "Formatting"  // Formatter disagreement.
	CategoryImportOrder Category = "ImportOrder" // Import ordering/grouping.
	CategoryTyping      Category = "Typing"      // Static type errors.
	CategorySecurity    Category = "Security"    // Security findings.
	CategoryDocstring   Category = "Docstring"   // Docstring conventions.
	CategoryCodeSmell   Category = "CodeSmell"   // Code smells.
	CategoryComplexity  Category = "Complexity"  // Cyclomatic complexity.
	CategoryDeadCode    Category = "DeadCode"    // Unreachable/unused code.
	CategoryRuntime     Category = "Runtime"     // Observed at execution.
	CategoryInternal    Category = "Internal"    // RevU's own bookkeeping.
)

// InputFile is the file name reported for in-memory snippets. Adapters rewrite
// the temporary file path back to this before a finding leaves the adapter
// boundary.
const InputFile = "<input>"

// FindingRecord is the uniform record every adapter normalizes its tool's
// output into. It is an immutable value: adapters build records and hand them
// over, nothing mutates them afterwards.
//
// Line and Column are 1-based. Zero means "unknown" and is omitted from JSON
// rather than serialized as 0.
type FindingRecord struct {
	// Source names the tool that produced the record (e.g. "ruff", "runtime").
	Source string `json:"source"`
	// Rule is the tool-specific rule identifier. May be empty.
	Rule     string   `json:"rule,omitempty"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	// File is InputFile for in-memory snippets.
	File string `json:"file"`
	// Severity is a tool-defined free-text level ("HIGH", "warning", "conf=60").
	Severity string `json:"severity,omitempty"`
}

// ToolOutcome is the per-tool result inside a ReviewReport.
//
// UnavailableReason, when non-empty, means the tool could not be invoked at
// all (binary missing); Findings is empty in that case. Note carries a
// human-readable explanation for any other degraded outcome (timeout,
// unparseable output) so the presentation layer never has to show an
// unexplained empty section.
type ToolOutcome struct {
	Findings          []FindingRecord `json:"findings"`
	UnavailableReason string          `json:"unavailable_reason,omitempty"`
	Note              string          `json:"note,omitempty"`
}

// Unavailable reports whether the underlying tool could not be invoked.
func (o ToolOutcome) Unavailable() bool { return o.UnavailableReason != "" }
