// Package quickfix applies a single conservative textual repair: appending
// the colon missing from block-introducing headers. It is deliberately
// non-semantic; it scans physical lines with regular expressions and can
// mis-fire inside multi-line string literals. Its only purpose is to unblock
// the runtime probe on almost-valid snippets, never to claim correctness.
package quickfix

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/revu-dev/revu/api/schemas"
)

// fixMarker is appended to every edited line so the change is visible in the
// fixed source without consulting the diff.
const fixMarker = ":  # [AUTO-FIXED]"

// headerPatterns match block-introducing statements. A line matches at most
// one pattern by construction (the keywords are mutually exclusive), and only
// the first match is considered.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*def\s+\w+\s*\(.*\)\s*`),
	regexp.MustCompile(`^\s*class\s+\w+`),
	regexp.MustCompile(`^\s*if\s+`),
	regexp.MustCompile(`^\s*elif\s+`),
	regexp.MustCompile(`^\s*else\s*$`),
	regexp.MustCompile(`^\s*for\s+`),
	regexp.MustCompile(`^\s*while\s+`),
	regexp.MustCompile(`^\s*try\s*$`),
	regexp.MustCompile(`^\s*except(\s+.*)?\s*$`),
	regexp.MustCompile(`^\s*finally\s*$`),
	regexp.MustCompile(`^\s*with\s+`),
}

// Apply scans the source line by line and appends the missing block
// terminator to header lines that lack one. It returns the possibly-edited
// text and the sorted 1-based numbers of the lines it changed.
//
// Apply is idempotent: input with no unterminated headers comes back
// unchanged with an empty edit list, and applying twice equals applying once.
func Apply(source string) (string, []int) {
	lines := strings.Split(source, "\n")
	var edited []int

	for i, line := range lines {
		if !matchesHeader(line) {
			continue
		}
		if !needsColon(line) {
			continue
		}
		lines[i] = strings.TrimRight(line, " \t") + fixMarker
		edited = append(edited, i+1)
	}

	fixed := strings.Join(lines, "\n")
	// strings.Split round-trips the trailing newline already; this guard is
	// for the empty-input edge where Join collapses it.
	if strings.HasSuffix(source, "\n") && !strings.HasSuffix(fixed, "\n") {
		fixed += "\n"
	}
	sort.Ints(edited)
	return fixed, edited
}

// Result runs Apply and packages the outcome with a unified diff, for
// surfacing to the presentation layer alongside the probe result.
func Result(source string) *schemas.QuickFixResult {
	fixed, edited := Apply(source)
	res := &schemas.QuickFixResult{
		FixedSource: fixed,
		EditedLines: edited,
	}
	if len(edited) > 0 {
		res.Diff = unifiedDiff(source, fixed)
	}
	return res
}

// matchesHeader reports whether the line looks like a block header. Comment
// and blank lines never match.
func matchesHeader(line string) bool {
	stripped := strings.TrimSpace(line)
	if stripped == "" || strings.HasPrefix(stripped, "#") {
		return false
	}
	for _, re := range headerPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// needsColon reports whether the line's content, stripped of any trailing
// comment, does not already end with the block terminator.
func needsColon(line string) bool {
	content := strings.TrimSpace(line)
	if i := strings.Index(content, "#"); i >= 0 {
		content = strings.TrimRight(content[:i], " \t")
	}
	return content != "" && !strings.HasSuffix(content, ":")
}

func unifiedDiff(original, fixed string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(fixed),
		FromFile: "original",
		ToFile:   "fixed",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
