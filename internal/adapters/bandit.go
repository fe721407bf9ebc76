package adapters

import (
	"context"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
)

// BanditAdapter wraps the bandit security scanner's JSON report.
type BanditAdapter struct {
	base
}

// NewBanditAdapter creates the security adapter.
func NewBanditAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *BanditAdapter {
	return &BanditAdapter{base: newBase(ToolBandit, schemas.CategorySecurity, runner, cfg.Timeout(ToolBandit), logger)}
}

type banditReport struct {
	Results []struct {
		TestID        string `json:"test_id"`
		IssueText     string `json:"issue_text"`
		IssueSeverity string `json:"issue_severity"`
		LineNumber    int    `json:"line_number"`
		Filename      string `json:"filename"`
	} `json:"results"`
}

func (a *BanditAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	var tmpPath string
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		tmpPath = path
		return []string{"bandit", "-f", "json", "-q", path}
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
				a.exitFinding(res.ExitCode, "bandit reported issues but produced no output"),
			}}
		}
		return schemas.ToolOutcome{}
	}

	var report banditReport
	if err := json.UnmarshalFromString(out, &report); err != nil {
		a.logger.Warn("unparseable bandit output", zap.Error(err))
		return schemas.ToolOutcome{Note: "bandit produced unparseable output"}
	}

	findings := make([]schemas.FindingRecord, 0, len(report.Results))
	for _, issue := range report.Results {
		findings = append(findings, schemas.FindingRecord{
			Source:   a.name,
			Rule:     issue.TestID,
			Category: schemas.CategorySecurity,
			Message:  issue.IssueText,
			Line:     issue.LineNumber,
			File:     normalizeFile(issue.Filename, tmpPath),
			Severity: issue.IssueSeverity,
		})
	}
	return schemas.ToolOutcome{Findings: findings}
}
