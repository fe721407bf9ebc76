package adapters

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
)

// MypyAdapter wraps the mypy type checker's line-oriented diagnostics.
type MypyAdapter struct {
	base
}

// NewMypyAdapter creates the typing adapter.
func NewMypyAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *MypyAdapter {
	return &MypyAdapter{base: newBase(ToolMypy, schemas.CategoryTyping, runner, cfg.Timeout(ToolMypy), logger)}
}

// `<path>:<line>:<col>: error: message  [error-code]`
var mypyLineRe = regexp.MustCompile(`^(.+?):(\d+):(\d+): (error|warning|note): (.*)$`)

// trailing `[code]` tag on the message.
var mypyCodeRe = regexp.MustCompile(`\s*\[([a-z0-9-]+)\]$`)

func (a *MypyAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	var tmpPath string
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		tmpPath = path
		return []string{
			"mypy",
			"--hide-error-context", "--no-pretty", "--show-column-numbers",
			"--no-error-summary", "--strict",
			path,
		}
	})

	switch {
	case res.NotInstalled():
		return a.unavailable()
	case res.TimedOut():
		return a.timedOut()
	}

	var findings []schemas.FindingRecord
	for _, line := range strings.Split(res.Stdout+"\n"+res.Stderr, "\n") {
		if !strings.Contains(line, tmpPath) {
			continue
		}
		m := mypyLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ln, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		msg := m[5]

		rule := ""
		if cm := mypyCodeRe.FindStringSubmatch(msg); cm != nil {
			rule = cm[1]
			msg = strings.TrimSpace(strings.TrimSuffix(msg, cm[0]))
		}

		findings = append(findings, schemas.FindingRecord{
			Source:   a.name,
			Rule:     rule,
			Category: schemas.CategoryTyping,
			Message:  msg,
			Line:     ln,
			Column:   col, // mypy columns are 1-based with --show-column-numbers
			File:     schemas.InputFile,
			Severity: m[4],
		})
	}

	if len(findings) == 0 && res.ExitCode != 0 {
		return schemas.ToolOutcome{Findings: []schemas.FindingRecord{
			a.exitFinding(res.ExitCode, "mypy failed without reporting diagnostics"),
		}}
	}
	return schemas.ToolOutcome{Findings: findings}
}
