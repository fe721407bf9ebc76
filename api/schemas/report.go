package schemas

import "time"

// -- Review Report Schemas --

// ReviewReport is the complete result of one review invocation. It is created
// fresh per call, owned by the caller, and never persisted.
type ReviewReport struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	// Language is the detected snippet language ("python").
	Language string `json:"language"`
	// Order is the fixed, documented tool iteration order. Rendering and
	// Flatten both follow it so output is reproducible across runs.
	Order []string               `json:"order"`
	Tools map[string]ToolOutcome `json:"tools"`
	// Note explains a degraded review, such as the tool pipeline being
	// skipped for non-Python input. Empty for a full run.
	Note string `json:"note,omitempty"`
	// QuickFix is set only when the runtime probe applied quick fixes.
	QuickFix *QuickFixResult `json:"quick_fix,omitempty"`
	// Runtime is set when the runtime probe stage was configured on, even if
	// it ended up skipping execution.
	Runtime *RuntimeProbeResult `json:"runtime,omitempty"`
	// AIReview is set when the AI review stage was configured on.
	AIReview *AIReviewResult `json:"ai_review,omitempty"`
}

// Flatten concatenates every tool's findings in report order. Within a tool
// the findings keep the tool's native output order.
func (r *ReviewReport) Flatten() []FindingRecord {
	var all []FindingRecord
	for _, name := range r.Order {
		all = append(all, r.Tools[name].Findings...)
	}
	return all
}

// CountBySource tallies findings per tool, preserving only non-zero entries.
func (r *ReviewReport) CountBySource() map[string]int {
	counts := make(map[string]int)
	for _, name := range r.Order {
		if n := len(r.Tools[name].Findings); n > 0 {
			counts[name] = n
		}
	}
	return counts
}

// TotalFindings returns the number of findings across all tools.
func (r *ReviewReport) TotalFindings() int {
	total := 0
	for _, name := range r.Order {
		total += len(r.Tools[name].Findings)
	}
	return total
}

// QuickFixResult describes the conservative syntax patch applied before a
// runtime probe. The original source is never mutated in place.
type QuickFixResult struct {
	FixedSource string `json:"fixed_source"`
	// EditedLines lists the 1-based line numbers actually changed, sorted.
	EditedLines []int `json:"edited_lines"`
	// Diff is a unified diff between the original and fixed source.
	Diff string `json:"diff"`
}

// RuntimeException is the first-raised exception extracted from a probe run.
type RuntimeException struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// RuntimeWarning is one warning emitted on the interpreter's error stream
// during a probe run.
type RuntimeWarning struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	File     string `json:"file,omitempty"`
}

// RuntimeProbeResult captures the outcome of the sandboxed execution stage.
// SkippedReason is mutually exclusive with the probe having run: when it is
// non-empty every other field is zero.
type RuntimeProbeResult struct {
	FirstException *RuntimeException `json:"first_exception,omitempty"`
	Warnings       []RuntimeWarning  `json:"warnings,omitempty"`
	Stdout         string            `json:"stdout,omitempty"`
	Stderr         string            `json:"stderr,omitempty"`
	SkippedReason  string            `json:"skipped_reason,omitempty"`
}

// Skipped reports whether execution was never attempted.
func (r *RuntimeProbeResult) Skipped() bool { return r.SkippedReason != "" }

// AIReviewResult carries the free-text feedback from the completion endpoint.
// Err holds a plain-text explanation when the service could not be reached;
// it is presentation text, not a Go error.
type AIReviewResult struct {
	Feedback string `json:"feedback,omitempty"`
	// Cached is true when the feedback was served from the TTL cache.
	Cached bool   `json:"cached,omitempty"`
	Err    string `json:"error,omitempty"`
}
