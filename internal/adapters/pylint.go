package adapters

import (
	"context"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
)

// PylintAdapter wraps pylint's JSON output. Pylint is the slowest tool in the
// battery, so it carries its own timeout default.
type PylintAdapter struct {
	base
}

// NewPylintAdapter creates the code-smell adapter.
func NewPylintAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *PylintAdapter {
	return &PylintAdapter{base: newBase(ToolPylint, schemas.CategoryCodeSmell, runner, cfg.Timeout(ToolPylint), logger)}
}

type pylintMessage struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Path    string `json:"path"`
}

func (a *PylintAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	var tmpPath string
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		tmpPath = path
		return []string{"pylint", "--output-format=json", "--score=n", path}
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
				a.exitFinding(res.ExitCode, "pylint reported issues but produced no output"),
			}}
		}
		return schemas.ToolOutcome{}
	}

	var messages []pylintMessage
	if err := json.UnmarshalFromString(out, &messages); err != nil {
		a.logger.Warn("unparseable pylint output", zap.Error(err))
		return schemas.ToolOutcome{Note: "pylint produced unparseable output"}
	}

	findings := make([]schemas.FindingRecord, 0, len(messages))
	for _, m := range messages {
		findings = append(findings, schemas.FindingRecord{
			Source:   a.name,
			Rule:     m.Symbol,
			Category: schemas.CategoryCodeSmell,
			Message:  m.Message,
			Line:     m.Line,
			Column:   m.Column + 1, // pylint columns are 0-based
			File:     normalizeFile(m.Path, tmpPath),
			Severity: m.Type,
		})
	}
	return schemas.ToolOutcome{Findings: findings}
}
