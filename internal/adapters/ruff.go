package adapters

import (
	"context"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
)

// RuffAdapter wraps the ruff linter's JSON diagnostics.
type RuffAdapter struct {
	base
}

// NewRuffAdapter creates the lint/style adapter.
func NewRuffAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *RuffAdapter {
	return &RuffAdapter{base: newBase(ToolRuff, schemas.CategoryLintStyle, runner, cfg.Timeout(ToolRuff), logger)}
}

// ruffDiagnostic is one entry of `ruff check --output-format=json`.
type ruffDiagnostic struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Location struct {
		Row    int `json:"row"`
		Column int `json:"column"`
	} `json:"location"`
}

func (a *RuffAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	var tmpPath string
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		tmpPath = path
		return []string{"ruff", "check", "--output-format=json", path}
	})

	switch {
	case res.NotInstalled():
		return a.unavailable()
	case res.TimedOut():
		return a.timedOut()
	}

	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		if res.ExitCode != 0 {
			return schemas.ToolOutcome{Findings: []schemas.FindingRecord{
				a.exitFinding(res.ExitCode, "ruff reported issues but produced no output"),
			}}
		}
		return schemas.ToolOutcome{}
	}

	var diags []ruffDiagnostic
	if err := json.UnmarshalFromString(out, &diags); err != nil {
		a.logger.Warn("unparseable ruff output", zap.Error(err))
		return schemas.ToolOutcome{Note: "ruff produced unparseable output"}
	}

	findings := make([]schemas.FindingRecord, 0, len(diags))
	for _, d := range diags {
		findings = append(findings, schemas.FindingRecord{
			Source:   a.name,
			Rule:     d.Code,
			Category: schemas.CategoryLintStyle,
			Message:  d.Message,
			Line:     d.Location.Row,    // ruff is already 1-based
			Column:   d.Location.Column, // ditto
			File:     normalizeFile(d.Filename, tmpPath),
		})
	}
	return schemas.ToolOutcome{Findings: findings}
}
