package adapters

import (
	"context"

	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
)

// BlackAdapter wraps the black formatter in check mode. Black communicates
// purely through its exit code here: non-zero means the file would be
// reformatted, which becomes an explicit finding rather than a silent pass.
type BlackAdapter struct {
	base
}

// NewBlackAdapter creates the formatting adapter.
func NewBlackAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *BlackAdapter {
	return &BlackAdapter{base: newBase(ToolBlack, schemas.CategoryFormatting, runner, cfg.Timeout(ToolBlack), logger)}
}

func (a *BlackAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		return []string{"black", "--check", "--diff", path}
	})

	switch {
	case res.NotInstalled():
		return a.unavailable()
	case res.TimedOut():
		return a.timedOut()
	case res.ExitCode == 0:
		return schemas.ToolOutcome{}
	}

	return schemas.ToolOutcome{Findings: []schemas.FindingRecord{{
		Source:   a.name,
		Rule:     "format",
		Category: schemas.CategoryFormatting,
		Message:  "file would be reformatted",
		File:     schemas.InputFile,
	}}}
}

// IsortAdapter wraps isort in check-only mode; exit-code contract as black.
type IsortAdapter struct {
	base
}

// NewIsortAdapter creates the import-order adapter.
func NewIsortAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *IsortAdapter {
	return &IsortAdapter{base: newBase(ToolIsort, schemas.CategoryImportOrder, runner, cfg.Timeout(ToolIsort), logger)}
}

func (a *IsortAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		return []string{"isort", "--check-only", "--diff", path}
	})

	switch {
	case res.NotInstalled():
		return a.unavailable()
	case res.TimedOut():
		return a.timedOut()
	case res.ExitCode == 0:
		return schemas.ToolOutcome{}
	}

	return schemas.ToolOutcome{Findings: []schemas.FindingRecord{{
		Source:   a.name,
		Rule:     "imports",
		Category: schemas.CategoryImportOrder,
		Message:  "imports are not correctly sorted",
		File:     schemas.InputFile,
	}}}
}
