package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "python3", cfg.Tools.Python)
	assert.Equal(t, 30*time.Second, cfg.Tools.DefaultTimeout)
	assert.Equal(t, 60*time.Second, cfg.Tools.Timeout("pylint"))
	assert.Equal(t, 30*time.Second, cfg.Tools.Timeout("ruff"))
	assert.Equal(t, 3*time.Second, cfg.Review.ProbeTimeout)
	assert.Equal(t, 4, cfg.Review.AdapterConcurrency)
	assert.True(t, cfg.Review.CaptureWarnings)
	assert.False(t, cfg.Review.RuntimeProbe)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxSourceBytes)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 10*time.Minute, cfg.AI.CacheTTL)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("tools.python", "python3.12")
	v.Set("tools.default_timeout", "5s")
	v.Set("tools.disabled", []string{"pylint"})
	v.Set("review.runtime_probe", true)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "python3.12", cfg.Tools.Python)
	assert.Equal(t, 5*time.Second, cfg.Tools.DefaultTimeout)
	assert.True(t, cfg.Tools.IsDisabled("pylint"))
	assert.False(t, cfg.Tools.IsDisabled("ruff"))
	assert.True(t, cfg.Review.RuntimeProbe)
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("REVU_AI_API_KEY", "sk-test-key")

	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", cfg.AI.APIKey)
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty interpreter",
			mutate:  func(c *Config) { c.Tools.Python = "" },
			wantErr: "tools.python",
		},
		{
			name:    "non-positive tool timeout",
			mutate:  func(c *Config) { c.Tools.DefaultTimeout = 0 },
			wantErr: "tools.default_timeout",
		},
		{
			name:    "non-positive probe timeout",
			mutate:  func(c *Config) { c.Review.ProbeTimeout = -time.Second },
			wantErr: "review.probe_timeout",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Review.AdapterConcurrency = 0 },
			wantErr: "review.adapter_concurrency",
		},
		{
			name:    "ai review without key",
			mutate:  func(c *Config) { c.Review.AIReview = true },
			wantErr: "REVU_AI_API_KEY",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestTimeoutIgnoresNonPositiveOverride(t *testing.T) {
	tools := ToolsConfig{
		DefaultTimeout: 10 * time.Second,
		Timeouts:       map[string]time.Duration{"mypy": 0},
	}
	assert.Equal(t, 10*time.Second, tools.Timeout("mypy"))
}
