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

// RadonAdapter wraps radon's cyclomatic-complexity JSON report, a map from
// file name to the list of analyzed blocks.
type RadonAdapter struct {
	base
}

// NewRadonAdapter creates the complexity adapter.
func NewRadonAdapter(runner Invoker, cfg config.ToolsConfig, logger *zap.Logger) *RadonAdapter {
	return &RadonAdapter{base: newBase(ToolRadon, schemas.CategoryComplexity, runner, cfg.Timeout(ToolRadon), logger)}
}

type radonBlock struct {
	Name       string `json:"name"`
	Complexity int    `json:"complexity"`
	Rank       string `json:"rank"`
	LineNo     int    `json:"lineno"`
}

func (a *RadonAdapter) Analyze(ctx context.Context, source string) schemas.ToolOutcome {
	var tmpPath string
	res := a.runner.RunOnSource(ctx, source, a.timeout, func(path string) []string {
		tmpPath = path
		return []string{"radon", "cc", "-j", path}
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
				a.exitFinding(res.ExitCode, "radon failed without producing output"),
			}}
		}
		return schemas.ToolOutcome{}
	}

	// On parse errors radon replaces the block list with an error object, so
	// decode per file into raw messages first.
	var perFile map[string]json.RawMessage
	if err := json.UnmarshalFromString(out, &perFile); err != nil {
		a.logger.Warn("unparseable radon output", zap.Error(err))
		return schemas.ToolOutcome{Note: "radon produced unparseable output"}
	}

	var findings []schemas.FindingRecord
	for file, raw := range perFile {
		var blocks []radonBlock
		if err := json.Unmarshal(raw, &blocks); err != nil {
			continue // error entry, not a block list
		}
		for _, b := range blocks {
			findings = append(findings, schemas.FindingRecord{
				Source:   a.name,
				Rule:     fmt.Sprintf("CC %s", b.Rank),
				Category: schemas.CategoryComplexity,
				Message:  fmt.Sprintf("%s has cyclomatic complexity %d", b.Name, b.Complexity),
				Line:     b.LineNo,
				File:     normalizeFile(file, tmpPath),
			})
		}
	}
	return schemas.ToolOutcome{Findings: findings}
}
