// Package pytrace parses CPython diagnostic output: compile-stage syntax
// errors, runtime tracebacks, and warning lines emitted on stderr. The
// formats are line-oriented and stable across interpreter versions, which is
// why plain text scraping is acceptable here; it stays isolated behind this
// package so a structured-output mode could replace it without touching
// callers.
package pytrace

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/revu-dev/revu/api/schemas"
)

var (
	// `  File "/tmp/revu-x.py", line 3` (optionally `, in <module>`).
	fileLineRe = regexp.MustCompile(`^\s*File "(.+?)", line (\d+)`)
	// `ZeroDivisionError: division by zero`, exception class then message.
	excLineRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.]*(?:Error|Exception|Warning|Exit|Interrupt|StopIteration|StopAsyncIteration)):?\s*(.*)$`)
	// `/tmp/revu-x.py:3: DeprecationWarning: message`
	warningRe = regexp.MustCompile(`^(.+?):(\d+): ([A-Za-z_][A-Za-z0-9_]*Warning): (.*)$`)
)

const tracebackHeader = "Traceback (most recent call last):"

// CompileError is a syntax-stage failure reported by the interpreter.
type CompileError struct {
	Type    string
	Message string
	Line    int
}

// ParseCompileError extracts the syntax error from the stderr of a
// `python -m py_compile` run. Returns nil when no error is recognizable.
func ParseCompileError(stderr string) *CompileError {
	var (
		line    int
		errType string
		errMsg  string
	)
	for _, l := range strings.Split(stderr, "\n") {
		if m := fileLineRe.FindStringSubmatch(l); m != nil {
			if n, err := strconv.Atoi(m[2]); err == nil {
				line = n
			}
			continue
		}
		if m := excLineRe.FindStringSubmatch(l); m != nil {
			errType = m[1]
			errMsg = m[2]
		}
	}
	if errType == "" {
		return nil
	}
	return &CompileError{Type: errType, Message: errMsg, Line: line}
}

// ParseTraceback extracts the first-raised exception from the last traceback
// block in stderr. The deepest File line of that block is where the exception
// was raised, and the final exception line names it. Returns nil when stderr
// contains no traceback.
func ParseTraceback(stderr string) *schemas.RuntimeException {
	lines := strings.Split(stderr, "\n")

	// Find the start of the last traceback block.
	start := -1
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), tracebackHeader) {
			start = i
		}
	}
	if start == -1 {
		return nil
	}

	exc := &schemas.RuntimeException{}
	for _, l := range lines[start+1:] {
		if m := fileLineRe.FindStringSubmatch(l); m != nil {
			// The last File entry before the exception line is the raise site.
			if n, err := strconv.Atoi(m[2]); err == nil {
				exc.Line = n
			}
			continue
		}
		if m := excLineRe.FindStringSubmatch(l); m != nil {
			exc.Type = m[1]
			exc.Message = m[2]
			// Keep scanning: chained tracebacks repeat the header, but start
			// already points at the last block, so the first exception line
			// we hit there is the one raised.
			break
		}
	}
	if exc.Type == "" {
		return nil
	}
	return exc
}

// ParseWarnings collects interpreter warning lines of the form
// `file:line: SomeWarning: message` from stderr.
func ParseWarnings(stderr string) []schemas.RuntimeWarning {
	var warnings []schemas.RuntimeWarning
	for _, l := range strings.Split(stderr, "\n") {
		m := warningRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		warnings = append(warnings, schemas.RuntimeWarning{
			File:     m[1],
			Line:     line,
			Category: m[3],
			Message:  m[4],
		})
	}
	return warnings
}

// LastNonEmptyLine returns the last non-blank line of the given streams,
// preferring the first stream that has one. Used as the fallback message when
// a failed run produced no parseable traceback.
func LastNonEmptyLine(streams ...string) string {
	for _, s := range streams {
		lines := strings.Split(s, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
