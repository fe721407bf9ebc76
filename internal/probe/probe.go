// Package probe executes user-supplied source in a subprocess sandbox: a
// short wall-clock timeout, an isolated interpreter invocation, a minimal
// environment, and a scratch working directory that is removed afterwards.
// The probe observes the first raised exception and any interpreter warnings;
// it never lets the snippet touch ambient user configuration.
package probe

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/pytrace"
	"github.com/revu-dev/revu/internal/quickfix"
	"github.com/revu-dev/revu/internal/toolexec"
)

// ToolName is the probe's entry name in review reports, always last in the
// tool order.
const ToolName = "runtime"

// Skip reasons, in the order the outcome ladder evaluates them.
const (
	SkipDisabled          = "disabled"
	SkipNoCompile         = "does not compile; quick fix disabled"
	SkipNoCompileAfterFix = "does not compile even after quick fixes"
	SkipInterpreter       = "interpreter not available"
)

// TimeoutMessage is the runtime finding emitted when execution is killed on
// timeout; a silent drop would hide the most interesting outcome.
const TimeoutMessage = "execution did not complete in time"

// Compiler gates execution on parseability. The compile adapter satisfies it.
// available is false when the interpreter itself could not be invoked, which
// the caller must report as its own skip reason rather than a parse failure.
type Compiler interface {
	Compiles(ctx context.Context, source string) (ok, available bool)
}

// Options configures one probe invocation.
type Options struct {
	// Enabled gates the whole stage; off yields SkipDisabled.
	Enabled bool
	// AllowQuickFix permits the conservative syntax patch when the source
	// does not parse as-is.
	AllowQuickFix bool
	// WarningsAsErrors runs the interpreter with -W error.
	WarningsAsErrors bool
	// CaptureWarnings collects warning lines from the error stream.
	CaptureWarnings bool
	// Timeout is the wall clock limit for the execution subprocess.
	Timeout time.Duration
}

// Outcome bundles the probe result with the quick fix that enabled it, when
// one was applied.
type Outcome struct {
	Result   *schemas.RuntimeProbeResult
	QuickFix *schemas.QuickFixResult
}

// Prober runs the runtime smoke test.
type Prober struct {
	runner   *toolexec.Runner
	compiler Compiler
	python   string
	logger   *zap.Logger
}

// New creates a Prober. The compiler is usually the compile adapter so the
// probe's gate agrees with the parse-check stage.
func New(runner *toolexec.Runner, compiler Compiler, cfg config.ToolsConfig, logger *zap.Logger) *Prober {
	return &Prober{
		runner:   runner,
		compiler: compiler,
		python:   cfg.Python,
		logger:   logger.Named("probe"),
	}
}

// Probe evaluates the outcome ladder: disabled, parses as-is, quick-fix path,
// then execution. It never returns an error; every degraded outcome is a
// skip reason or a populated result.
func (p *Prober) Probe(ctx context.Context, source string, opts Options) Outcome {
	if !opts.Enabled {
		return Outcome{Result: &schemas.RuntimeProbeResult{SkippedReason: SkipDisabled}}
	}

	runSource := source
	var fix *schemas.QuickFixResult

	ok, available := p.compiler.Compiles(ctx, source)
	if !available {
		return Outcome{Result: &schemas.RuntimeProbeResult{SkippedReason: SkipInterpreter}}
	}
	if !ok {
		if !opts.AllowQuickFix {
			return Outcome{Result: &schemas.RuntimeProbeResult{SkippedReason: SkipNoCompile}}
		}
		fix = quickfix.Result(source)
		fixedOK, fixedAvailable := false, true
		if len(fix.EditedLines) > 0 {
			fixedOK, fixedAvailable = p.compiler.Compiles(ctx, fix.FixedSource)
		}
		if !fixedAvailable {
			return Outcome{Result: &schemas.RuntimeProbeResult{SkippedReason: SkipInterpreter}}
		}
		if !fixedOK {
			return Outcome{Result: &schemas.RuntimeProbeResult{SkippedReason: SkipNoCompileAfterFix}}
		}
		p.logger.Info("quick fixes applied before runtime probe",
			zap.Ints("edited_lines", fix.EditedLines))
		runSource = fix.FixedSource
	}

	return Outcome{Result: p.execute(ctx, runSource, opts), QuickFix: fix}
}

// execute runs the snippet and extracts exception/warning information from
// the captured streams.
func (p *Prober) execute(ctx context.Context, source string, opts Options) *schemas.RuntimeProbeResult {
	scratch, err := os.MkdirTemp("", "revu-probe-")
	if err != nil {
		return &schemas.RuntimeProbeResult{SkippedReason: "scratch directory unavailable: " + err.Error()}
	}
	defer os.RemoveAll(scratch)

	res := p.runner.RunOnSourceIn(ctx, source, scratch, opts.Timeout, func(path string) []string {
		argv := []string{p.python}
		if opts.WarningsAsErrors {
			argv = append(argv, "-W", "error")
		}
		// -I isolates the interpreter from user site-packages and env vars;
		// faulthandler makes hard crashes report a traceback.
		argv = append(argv, "-I", "-X", "faulthandler", path)
		return argv
	})

	switch {
	case res.NotInstalled():
		return &schemas.RuntimeProbeResult{SkippedReason: SkipInterpreter}
	case res.TimedOut():
		return &schemas.RuntimeProbeResult{
			FirstException: &schemas.RuntimeException{Type: "Timeout", Message: TimeoutMessage},
			Stderr:         res.Stderr,
		}
	}

	out := &schemas.RuntimeProbeResult{Stdout: res.Stdout, Stderr: res.Stderr}
	if opts.CaptureWarnings {
		out.Warnings = pytrace.ParseWarnings(res.Stderr)
	}

	if res.ExitCode != 0 {
		if exc := pytrace.ParseTraceback(res.Stderr); exc != nil {
			out.FirstException = exc
		} else if msg := pytrace.LastNonEmptyLine(res.Stderr, res.Stdout); msg != "" {
			out.FirstException = &schemas.RuntimeException{Type: "Runtime", Message: msg}
		} else {
			out.FirstException = &schemas.RuntimeException{Type: "Runtime", Message: "runtime error"}
		}
	}
	return out
}

// Finding converts a probe outcome into the runtime ToolOutcome merged into
// the report.
func Finding(result *schemas.RuntimeProbeResult) schemas.ToolOutcome {
	if result == nil {
		return schemas.ToolOutcome{}
	}
	if result.Skipped() {
		return schemas.ToolOutcome{Note: result.SkippedReason}
	}

	var findings []schemas.FindingRecord
	if exc := result.FirstException; exc != nil {
		findings = append(findings, schemas.FindingRecord{
			Source:   ToolName,
			Rule:     exc.Type,
			Category: schemas.CategoryRuntime,
			Message:  exc.Message,
			Line:     exc.Line,
			File:     schemas.InputFile,
		})
	}
	for _, w := range result.Warnings {
		findings = append(findings, schemas.FindingRecord{
			Source:   ToolName,
			Rule:     w.Category,
			Category: schemas.CategoryRuntime,
			Message:  w.Message,
			Line:     w.Line,
			File:     schemas.InputFile,
			Severity: "warning",
		})
	}
	return schemas.ToolOutcome{Findings: findings}
}
