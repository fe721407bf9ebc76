package adapters

import (
	"context"

	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/pytrace"
)

// CompileAdapter is the built-in parse check. It delegates to the
// interpreter's own compiler (`python -m py_compile`), so its verdict matches
// exactly what the runtime probe will later accept.
type CompileAdapter struct {
	base
	python string
}

// NewCompileAdapter creates the parse-check adapter.
func NewCompileAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *CompileAdapter {
	return &CompileAdapter{
		base:   newBase(ToolCompile, schemas.CategorySyntaxError, runner, cfg.Timeout(ToolCompile), logger),
		python: cfg.Python,
	}
}

// Analyze reports at most one syntax-error finding.
func (a *CompileAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		return []string{a.python, "-m", "py_compile", path}
	})

	switch {
	case res.NotInstalled():
		return a.unavailable()
	case res.TimedOut():
		return a.timedOut()
	case res.ExitCode == 0:
		return schemas.ToolOutcome{}
	}

	cerr := pytrace.ParseCompileError(res.Stderr)
	if cerr == nil {
		// Compiler failed for a reason we cannot attribute to a source line.
		msg := pytrace.LastNonEmptyLine(res.Stderr, res.Stdout)
		if msg == "" {
			msg = "source does not compile"
		}
		return schemas.ToolOutcome{Findings: []schemas.FindingRecord{a.exitFinding(res.ExitCode, msg)}}
	}

	return schemas.ToolOutcome{Findings: []schemas.FindingRecord{{
		Source:   a.name,
		Rule:     cerr.Type,
		Category: schemas.CategorySyntaxError,
		Message:  cerr.Message,
		Line:     cerr.Line,
		File:     schemas.InputFile,
	}}}
}

// Compiles reports whether the source parses, and whether the interpreter
// could be invoked at all. The runtime probe uses this as its gate before
// execution; a missing interpreter must not read as a broken snippet.
func (a *CompileAdapter) Compiles(ctx context.Context, source string) (ok, available bool) {
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		return []string{a.python, "-m", "py_compile", path}
	})
	if res.NotInstalled() {
		return false, false
	}
	return res.ExitCode == 0, true
}
