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

// PydocstyleAdapter wraps the pydocstyle docstring checker. Its output is
// two-line pairs: a location line (`path:line in context`) followed by an
// indented violation line (`Dxxx: message`).
type PydocstyleAdapter struct {
	base
}

// NewPydocstyleAdapter creates the docstring adapter.
func NewPydocstyleAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *PydocstyleAdapter {
	return &PydocstyleAdapter{base: newBase(ToolPydocstyle, schemas.CategoryDocstring, runner, cfg.Timeout(ToolPydocstyle), logger)}
}

var pydocViolationRe = regexp.MustCompile(`^\s+(D\d+): (.*)$`)

func (a *PydocstyleAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	var tmpPath string
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		tmpPath = path
		return []string{"pydocstyle", path}
	})

	switch {
	case res.NotInstalled():
		return a.unavailable()
	case res.TimedOut():
		return a.timedOut()
	}

	var findings []schemas.FindingRecord
	pendingLine := 0
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.HasPrefix(line, tmpPath+":") {
			rest := strings.TrimPrefix(line, tmpPath+":")
			if fields := strings.Fields(rest); len(fields) > 0 {
				pendingLine, _ = strconv.Atoi(fields[0])
			}
			continue
		}
		if m := pydocViolationRe.FindStringSubmatch(line); m != nil && pendingLine > 0 {
			findings = append(findings, schemas.FindingRecord{
				Source:   a.name,
				Rule:     m[1],
				Category: schemas.CategoryDocstring,
				Message:  m[2],
				Line:     pendingLine,
				File:     schemas.InputFile,
			})
			pendingLine = 0
		}
	}

	if len(findings) == 0 && res.ExitCode != 0 {
		return schemas.ToolOutcome{Findings: []schemas.FindingRecord{
			a.exitFinding(res.ExitCode, "pydocstyle failed without reporting violations"),
		}}
	}
	return schemas.ToolOutcome{Findings: findings}
}
