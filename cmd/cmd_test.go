package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/internal/config"
)

func TestReviewCmdFlags(t *testing.T) {
	cmd := newReviewCmd()

	for _, name := range []string{
		"format", "output", "runtime-probe", "quick-fix",
		"warnings-as-errors", "capture-warnings", "ai-review", "language",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag --%s", name)
	}

	format, err := cmd.Flags().GetString("format")
	require.NoError(t, err)
	assert.Equal(t, "text", format)
}

func TestServeCmdFlags(t *testing.T) {
	cmd := newServeCmd()
	assert.NotNil(t, cmd.Flags().Lookup("addr"))
}

func TestRootCmdRegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "review")
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "version")
}

func TestVersionCmdPrintsVersion(t *testing.T) {
	cmd := newVersionCmd()
	var out strings.Builder
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, Version+"\n", out.String())
}

func TestReadSourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snippet.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o600))

	source, err := readSource([]string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", source)
}

func TestReadSourceFromStdin(t *testing.T) {
	source, err := readSource(nil, strings.NewReader("print('hi')\n"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", source)
}

func TestReadSourceMissingFile(t *testing.T) {
	_, err := readSource([]string{"/nonexistent/snippet.py"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/snippet.py")
}

func TestBuildOrchestratorWithoutAI(t *testing.T) {
	cfg := config.NewDefaultConfig()

	orch, cache, err := buildOrchestrator(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, orch)
	assert.Nil(t, cache)
}

func TestBuildOrchestratorRequiresKeyForAI(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Review.AIReview = true

	_, _, err := buildOrchestrator(cfg, zap.NewNop())
	require.Error(t, err)

	cfg.AI.APIKey = "sk-test"
	orch, cache, err := buildOrchestrator(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, orch)
	assert.NotNil(t, cache)
}
