package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Review ReviewConfig `mapstructure:"review" yaml:"review"`
	Tools  ToolsConfig  `mapstructure:"tools" yaml:"tools"`
	AI     AIConfig     `mapstructure:"ai" yaml:"ai"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// LoggerConfig configures the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ReviewConfig enumerates the optional review stages and their knobs.
type ReviewConfig struct {
	// RuntimeProbe enables the sandboxed execution stage.
	RuntimeProbe bool `mapstructure:"runtime_probe" yaml:"runtime_probe"`
	// QuickFix enables the best-effort syntax patch before the runtime probe.
	QuickFix bool `mapstructure:"quick_fix" yaml:"quick_fix"`
	// WarningsAsErrors runs the probe with the interpreter's warnings-as-errors flag.
	WarningsAsErrors bool `mapstructure:"warnings_as_errors" yaml:"warnings_as_errors"`
	// CaptureWarnings collects interpreter warnings from the probe's error stream.
	CaptureWarnings bool `mapstructure:"capture_warnings" yaml:"capture_warnings"`
	// AIReview enables the completion-endpoint feedback stage.
	AIReview bool `mapstructure:"ai_review" yaml:"ai_review"`
	// AdapterConcurrency bounds how many tool adapters run at once.
	AdapterConcurrency int `mapstructure:"adapter_concurrency" yaml:"adapter_concurrency"`
	// ProbeTimeout is the wall clock limit for the runtime probe subprocess.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
}

// ToolsConfig carries per-tool invocation settings.
type ToolsConfig struct {
	// Python is the interpreter binary used for the parse check and the probe.
	Python string `mapstructure:"python" yaml:"python"`
	// DefaultTimeout applies to every tool without an explicit override.
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	// Timeouts overrides the default per tool name (e.g. pylint is slow).
	Timeouts map[string]time.Duration `mapstructure:"timeouts" yaml:"timeouts"`
	// Disabled lists tool names to skip entirely.
	Disabled []string `mapstructure:"disabled" yaml:"disabled"`
}

// Timeout returns the effective timeout for the named tool.
func (t ToolsConfig) Timeout(name string) time.Duration {
	if d, ok := t.Timeouts[name]; ok && d > 0 {
		return d
	}
	return t.DefaultTimeout
}

// IsDisabled reports whether the named tool is configured off.
func (t ToolsConfig) IsDisabled(name string) bool {
	for _, d := range t.Disabled {
		if d == name {
			return true
		}
	}
	return false
}

// AIConfig configures the completion endpoint client.
type AIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Model   string `mapstructure:"model" yaml:"model"`
	// MaxRetries bounds the backoff loop on rate-limited calls.
	MaxRetries uint          `mapstructure:"max_retries" yaml:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// RequestsPerMinute is the client-side rate limit.
	RequestsPerMinute float64 `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	// CacheTTL is how long identical (source, language) requests are served
	// from cache instead of hitting the endpoint again.
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// MaxSourceBytes rejects oversized review submissions.
	MaxSourceBytes  int64         `mapstructure:"max_source_bytes" yaml:"max_source_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "revu")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Review stages --
	v.SetDefault("review.runtime_probe", false)
	v.SetDefault("review.quick_fix", false)
	v.SetDefault("review.warnings_as_errors", false)
	v.SetDefault("review.capture_warnings", true)
	v.SetDefault("review.ai_review", false)
	v.SetDefault("review.adapter_concurrency", 4)
	v.SetDefault("review.probe_timeout", "3s")

	// -- Tools --
	v.SetDefault("tools.python", "python3")
	v.SetDefault("tools.default_timeout", "30s")
	v.SetDefault("tools.timeouts.pylint", "60s")

	// -- AI --
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_retries", 5)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.requests_per_minute", 20)
	v.SetDefault("ai.cache_ttl", "10m")

	// -- Server --
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_source_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", "10s")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	v.BindEnv("ai.api_key", "REVU_AI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Unmarshal does not consult BindEnv for keys absent from the file.
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("REVU_AI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Tools.Python == "" {
		return fmt.Errorf("tools.python must not be empty")
	}
	if c.Tools.DefaultTimeout <= 0 {
		return fmt.Errorf("tools.default_timeout must be positive, got %s", c.Tools.DefaultTimeout)
	}
	if c.Review.ProbeTimeout <= 0 {
		return fmt.Errorf("review.probe_timeout must be positive, got %s", c.Review.ProbeTimeout)
	}
	if c.Review.AdapterConcurrency < 1 {
		return fmt.Errorf("review.adapter_concurrency must be at least 1, got %d", c.Review.AdapterConcurrency)
	}
	if c.Review.AIReview && c.AI.APIKey == "" {
		return fmt.Errorf("ai review is enabled but no API key is configured (set REVU_AI_API_KEY)")
	}
	return nil
}
