package adapters

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
)

// VultureAdapter wraps the vulture dead-code detector's JSON output.
type VultureAdapter struct {
	base
}

// NewVultureAdapter creates the dead-code adapter.
func NewVultureAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *VultureAdapter {
	return &VultureAdapter{base: newBase(ToolVulture, schemas.CategoryDeadCode, runner, cfg.Timeout(ToolVulture), logger)}
}

type vultureItem struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Line       int    `json:"line"`
	Filename   string `json:"filename"`
	Confidence int    `json:"confidence"`
}

func (a *VultureAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	var tmpPath string
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		tmpPath = path
		return []string{"vulture", path, "--min-confidence", "0", "--json"}
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
				a.exitFinding(res.ExitCode, "vulture reported issues but produced no output"),
			}}
		}
		return schemas.ToolOutcome{}
	}

	var items []vultureItem
	if err := json.UnmarshalFromString(out, &items); err != nil {
		a.logger.Warn("unparseable vulture output", zap.Error(err))
		return schemas.ToolOutcome{Note: "vulture produced unparseable output"}
	}

	findings := make([]schemas.FindingRecord, 0, len(items))
	for _, item := range items {
		findings = append(findings, schemas.FindingRecord{
			Source:   a.name,
			Rule:     item.Type,
			Category: schemas.CategoryDeadCode,
			Message:  item.Message,
			Line:     item.Line,
			File:     normalizeFile(item.Filename, tmpPath),
			Severity: fmt.Sprintf("conf=%d", item.Confidence),
		})
	}
	return schemas.ToolOutcome{Findings: findings}
}
