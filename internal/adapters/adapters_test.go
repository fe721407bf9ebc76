package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/toolexec"
)

const fakeTmpPath = "/tmp/revu-fake.py"

// fakeInvoker returns a canned result and records the built command line.
type fakeInvoker struct {
	result toolexec.Result
	argv   []string
}

func (f *fakeInvoker) RunOnSource(_ context.Context, _ string, _ time.Duration, argv func(path string) []string) toolexec.Result {
	f.argv = argv(fakeTmpPath)
	return f.result
}

func toolsConfig() config.ToolsConfig {
	return config.NewDefaultConfig().Tools
}

func TestRegistryOrder(t *testing.T) {
	analyzers := Registry(&fakeInvoker{}, toolsConfig(), zap.NewNop())

	var names []string
	for _, a := range analyzers {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{
		ToolCompile, ToolRuff, ToolBlack, ToolIsort, ToolMypy,
		ToolBandit, ToolPydocstyle, ToolPylint, ToolRadon, ToolVulture,
	}, names)
}

func TestRegistrySkipsDisabledButNeverCompile(t *testing.T) {
	cfg := toolsConfig()
	cfg.Disabled = []string{ToolCompile, ToolPylint, ToolVulture}

	analyzers := Registry(&fakeInvoker{}, cfg, zap.NewNop())

	var names []string
	for _, a := range analyzers {
		names = append(names, a.Name())
	}
	assert.Contains(t, names, ToolCompile, "the parse check cannot be disabled")
	assert.NotContains(t, names, ToolPylint)
	assert.NotContains(t, names, ToolVulture)
}

func TestAdapterNotInstalled(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: toolexec.ExitNotInstalled,
		Stderr:   "ruff: not installed",
	}}
	a := NewRuffAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\n")

	assert.True(t, outcome.Unavailable())
	assert.Equal(t, "ruff not installed", outcome.UnavailableReason)
	assert.Empty(t, outcome.Findings)
}

func TestAdapterTimedOut(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{ExitCode: toolexec.ExitTimeout, Stderr: "timeout"}}
	a := NewPylintAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\n")

	assert.False(t, outcome.Unavailable())
	assert.Empty(t, outcome.Findings)
	assert.Contains(t, outcome.Note, "timed out after")
}

func TestCompileAdapterParsesSyntaxError(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 1,
		Stderr: `  File "` + fakeTmpPath + `", line 2
    if x > 1
            ^
SyntaxError: expected ':'
`,
	}}
	a := NewCompileAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\nif x > 1\n")

	require.Len(t, outcome.Findings, 1)
	f := outcome.Findings[0]
	assert.Equal(t, ToolCompile, f.Source)
	assert.Equal(t, "SyntaxError", f.Rule)
	assert.Equal(t, schemas.CategorySyntaxError, f.Category)
	assert.Equal(t, "expected ':'", f.Message)
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, schemas.InputFile, f.File)

	assert.Equal(t, []string{"python3", "-m", "py_compile", fakeTmpPath}, inv.argv)
}

func TestCompileAdapterCleanSource(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{ExitCode: 0}}
	a := NewCompileAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\n")

	assert.Empty(t, outcome.Findings)
	assert.Empty(t, outcome.Note)

	ok, available := a.Compiles(context.Background(), "x = 1\n")
	assert.True(t, ok)
	assert.True(t, available)
}

func TestCompileAdapterCompilesReportsMissingInterpreter(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: toolexec.ExitNotInstalled,
		Stderr:   "python3: not installed",
	}}
	a := NewCompileAdapter(inv, toolsConfig(), zap.NewNop())

	ok, available := a.Compiles(context.Background(), "x = 1\n")
	assert.False(t, ok)
	assert.False(t, available)
}

func TestCompileAdapterUnattributableFailure(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{ExitCode: 1, Stderr: "python3: bad interpreter state\n"}}
	a := NewCompileAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\n")

	require.Len(t, outcome.Findings, 1)
	assert.Equal(t, "exit-status", outcome.Findings[0].Rule)
	assert.Contains(t, outcome.Findings[0].Message, "exit status 1")
	assert.Contains(t, outcome.Findings[0].Message, "bad interpreter state")
}

func TestRuffAdapterParsesDiagnostics(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 1,
		Stdout: `[
  {"code": "F401", "message": "os imported but unused", "filename": "` + fakeTmpPath + `", "location": {"row": 1, "column": 8}},
  {"code": "E711", "message": "comparison to None", "filename": "` + fakeTmpPath + `", "location": {"row": 3, "column": 4}}
]`,
	}}
	a := NewRuffAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "import os\n")

	require.Len(t, outcome.Findings, 2)
	assert.Equal(t, "F401", outcome.Findings[0].Rule)
	assert.Equal(t, 1, outcome.Findings[0].Line)
	assert.Equal(t, 8, outcome.Findings[0].Column)
	assert.Equal(t, schemas.InputFile, outcome.Findings[0].File)
	assert.Equal(t, "E711", outcome.Findings[1].Rule)
}

func TestRuffAdapterNonzeroExitWithoutOutput(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{ExitCode: 2}}
	a := NewRuffAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\n")

	require.Len(t, outcome.Findings, 1)
	assert.Equal(t, "exit-status", outcome.Findings[0].Rule)
	assert.Contains(t, outcome.Findings[0].Message, "exit status 2")
}

func TestRuffAdapterMalformedOutput(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{ExitCode: 1, Stdout: "not json at all"}}
	a := NewRuffAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\n")

	assert.Empty(t, outcome.Findings)
	assert.Equal(t, "ruff produced unparseable output", outcome.Note)
}

func TestBlackAdapterExitCodeContract(t *testing.T) {
	clean := NewBlackAdapter(&fakeInvoker{result: toolexec.Result{ExitCode: 0}}, toolsConfig(), zap.NewNop())
	assert.Empty(t, clean.Analyze(context.Background(), "x = 1\n").Findings)

	dirty := NewBlackAdapter(&fakeInvoker{result: toolexec.Result{ExitCode: 1, Stdout: "--- a diff"}}, toolsConfig(), zap.NewNop())
	outcome := dirty.Analyze(context.Background(), "x=1\n")
	require.Len(t, outcome.Findings, 1)
	assert.Equal(t, "format", outcome.Findings[0].Rule)
	assert.Equal(t, schemas.CategoryFormatting, outcome.Findings[0].Category)
}

func TestIsortAdapterExitCodeContract(t *testing.T) {
	dirty := NewIsortAdapter(&fakeInvoker{result: toolexec.Result{ExitCode: 1}}, toolsConfig(), zap.NewNop())
	outcome := dirty.Analyze(context.Background(), "import sys\nimport os\n")
	require.Len(t, outcome.Findings, 1)
	assert.Equal(t, "imports", outcome.Findings[0].Rule)
	assert.Equal(t, schemas.CategoryImportOrder, outcome.Findings[0].Category)
}

func TestMypyAdapterParsesDiagnostics(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 1,
		Stdout: fakeTmpPath + `:3:5: error: Incompatible return value type (got "str", expected "int")  [return-value]
` + fakeTmpPath + `:7:1: warning: unused "type: ignore" comment  [unused-ignore]
some/other/file.py:1:1: error: not ours
`,
	}}
	a := NewMypyAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "def f() -> int: return ''\n")

	require.Len(t, outcome.Findings, 2)
	f := outcome.Findings[0]
	assert.Equal(t, "return-value", f.Rule)
	assert.Equal(t, `Incompatible return value type (got "str", expected "int")`, f.Message)
	assert.Equal(t, 3, f.Line)
	assert.Equal(t, 5, f.Column)
	assert.Equal(t, "error", f.Severity)
	assert.Equal(t, "warning", outcome.Findings[1].Severity)
}

func TestMypyAdapterFailureWithoutDiagnostics(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{ExitCode: 2, Stderr: "mypy: error: invalid flag"}}
	a := NewMypyAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\n")

	require.Len(t, outcome.Findings, 1)
	assert.Equal(t, "exit-status", outcome.Findings[0].Rule)
}

func TestBanditAdapterParsesReport(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 1,
		Stdout: `{"results": [
  {"test_id": "B105", "issue_text": "Possible hardcoded password: 'hunter2'", "issue_severity": "HIGH", "line_number": 4, "filename": "` + fakeTmpPath + `"}
]}`,
	}}
	a := NewBanditAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "password = 'hunter2'\n")

	require.Len(t, outcome.Findings, 1)
	f := outcome.Findings[0]
	assert.Equal(t, "B105", f.Rule)
	assert.Equal(t, schemas.CategorySecurity, f.Category)
	assert.Equal(t, "HIGH", f.Severity)
	assert.Equal(t, 4, f.Line)
	assert.Equal(t, schemas.InputFile, f.File)
}

func TestPydocstyleAdapterParsesPairs(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 1,
		Stdout: fakeTmpPath + `:1 at module level:
        D100: Missing docstring in public module
` + fakeTmpPath + `:3 in public function ` + "`f`" + `:
        D103: Missing docstring in public function
`,
	}}
	a := NewPydocstyleAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "def f():\n    pass\n")

	require.Len(t, outcome.Findings, 2)
	assert.Equal(t, "D100", outcome.Findings[0].Rule)
	assert.Equal(t, 1, outcome.Findings[0].Line)
	assert.Equal(t, "D103", outcome.Findings[1].Rule)
	assert.Equal(t, 3, outcome.Findings[1].Line)
}

func TestPylintAdapterShiftsColumns(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 4,
		Stdout: `[
  {"type": "convention", "symbol": "invalid-name", "message": "Constant name x", "line": 1, "column": 0, "path": "` + fakeTmpPath + `"}
]`,
	}}
	a := NewPylintAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "x = 1\n")

	require.Len(t, outcome.Findings, 1)
	f := outcome.Findings[0]
	assert.Equal(t, "invalid-name", f.Rule)
	assert.Equal(t, 1, f.Column, "pylint's 0-based column becomes 1-based")
	assert.Equal(t, "convention", f.Severity)
	assert.Equal(t, schemas.InputFile, f.File)
}

func TestRadonAdapterParsesBlocks(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 0,
		Stdout: `{"` + fakeTmpPath + `": [
  {"name": "busy", "complexity": 12, "rank": "C", "lineno": 2}
]}`,
	}}
	a := NewRadonAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "def busy(): ...\n")

	require.Len(t, outcome.Findings, 1)
	f := outcome.Findings[0]
	assert.Equal(t, "CC C", f.Rule)
	assert.Equal(t, "busy has cyclomatic complexity 12", f.Message)
	assert.Equal(t, 2, f.Line)
}

func TestRadonAdapterSkipsErrorEntries(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 0,
		Stdout:   `{"` + fakeTmpPath + `": {"error": "invalid syntax"}}`,
	}}
	a := NewRadonAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "if x\n")

	assert.Empty(t, outcome.Findings)
	assert.Empty(t, outcome.Note)
}

func TestVultureAdapterParsesItems(t *testing.T) {
	inv := &fakeInvoker{result: toolexec.Result{
		ExitCode: 1,
		Stdout: `[
  {"type": "unused_variable", "message": "unused variable 'y'", "line": 2, "filename": "` + fakeTmpPath + `", "confidence": 60}
]`,
	}}
	a := NewVultureAdapter(inv, toolsConfig(), zap.NewNop())

	outcome := a.Analyze(context.Background(), "y = 1\n")

	require.Len(t, outcome.Findings, 1)
	f := outcome.Findings[0]
	assert.Equal(t, "unused_variable", f.Rule)
	assert.Equal(t, schemas.CategoryDeadCode, f.Category)
	assert.Equal(t, "conf=60", f.Severity)
}

func TestNormalizeFile(t *testing.T) {
	assert.Equal(t, schemas.InputFile, normalizeFile(fakeTmpPath, fakeTmpPath))
	assert.Equal(t, schemas.InputFile, normalizeFile("revu-fake.py", fakeTmpPath))
	assert.Equal(t, schemas.InputFile, normalizeFile("", fakeTmpPath))
	assert.Equal(t, "lib/helper.py", normalizeFile("lib/helper.py", fakeTmpPath))
}
