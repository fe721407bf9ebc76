// Package adapters wraps each external analysis tool behind the
// schemas.Analyzer contract: invoke the tool on a temporary copy of the
// source, parse its native output format, and normalize every diagnostic into
// FindingRecord. Tool-specific output shapes never leave this package.
package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/toolexec"
)

// Tool name constants double as the keys of ReviewReport.Tools.
const (
	ToolCompile    = "compile"
	ToolRuff       = "ruff"
	ToolBlack      = "black"
	ToolIsort      = "isort"
	ToolMypy       = "mypy"
	ToolBandit     = "bandit"
	ToolPydocstyle = "pydocstyle"
	ToolPylint     = "pylint"
	ToolRadon      = "radon"
	ToolVulture    = "vulture"
)

// Invoker is the slice of toolexec.Runner the adapters need. Tests substitute
// a fake returning canned tool output.
type Invoker interface {
	RunOnSource(ctx context.Context, source string, timeout time.Duration, argv func(path string) []string) toolexec.Result
}

// base carries the fields every adapter shares.
type base struct {
	name     string
	category schemas.Category
	runner   Invoker
	timeout  time.Duration
	logger   *zap.Logger
}

func newBase(name string, category schemas.Category, runner Invoker, timeout time.Duration, logger *zap.Logger) base {
	return base{
		name:     name,
		category: category,
		runner:   runner,
		timeout:  timeout,
		logger:   logger.Named(name),
	}
}

func (b base) Name() string               { return b.name }
func (b base) Category() schemas.Category { return b.category }

// unavailable builds the outcome for an uninvokable tool.
func (b base) unavailable() schemas.ToolOutcome {
	b.logger.Debug("tool not installed")
	return schemas.ToolOutcome{UnavailableReason: fmt.Sprintf("%s not installed", b.name)}
}

// timedOut builds the degraded outcome for an expired invocation.
func (b base) timedOut() schemas.ToolOutcome {
	b.logger.Warn("tool timed out", zap.Duration("timeout", b.timeout))
	return schemas.ToolOutcome{Note: fmt.Sprintf("timed out after %s", b.timeout)}
}

// exitFinding is the explicit record for a tool that exited non-zero without
// any parseable output. Silent passes would hide real failures, so the exit
// itself becomes the finding.
func (b base) exitFinding(exitCode int, message string) schemas.FindingRecord {
	return schemas.FindingRecord{
		Source:   b.name,
		Rule:     "exit-status",
		Category: b.category,
		Message:  fmt.Sprintf("%s (exit status %d)", message, exitCode),
		File:     schemas.InputFile,
	}
}

// normalizeFile maps the adapter's temporary file path back to the in-memory
// marker; any other path is kept as the tool reported it.
func normalizeFile(reported, tmpPath string) string {
	if reported == "" || reported == tmpPath || strings.HasSuffix(tmpPath, reported) {
		return schemas.InputFile
	}
	return reported
}

// Registry builds the full, ordered adapter set. The order is the documented
// report order: the built-in compile check first because it is the cheapest
// and always informative, then the external tools grouped by concern (style,
// formatting, imports, typing, security, docs, smells, complexity, dead
// code). Tools listed in cfg.Disabled are skipped.
func Registry(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) []schemas.Analyzer {
	all := []schemas.Analyzer{
		NewCompileAdapter(runner, cfg, logger),
		NewRuffAdapter(runner, cfg, logger),
		NewBlackAdapter(runner, cfg, logger),
		NewIsortAdapter(runner, cfg, logger),
		NewMypyAdapter(runner, cfg, logger),
		NewBanditAdapter(runner, cfg, logger),
		NewPydocstyleAdapter(runner, cfg, logger),
		NewPylintAdapter(runner, cfg, logger),
		NewRadonAdapter(runner, cfg, logger),
		NewVultureAdapter(runner, cfg, logger),
	}

	enabled := all[:0]
	for _, a := range all {
		// The compile check always runs; it is the one stage the rest of the
		// pipeline relies on for syntax awareness.
		if a.Name() != ToolCompile && cfg.IsDisabled(a.Name()) {
			continue
		}
		enabled = append(enabled, a)
	}
	return enabled
}
