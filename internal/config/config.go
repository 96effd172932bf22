// Package config handles loading and validating taskhive configuration.
// Supports YAML config files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/taskhive/taskhive/internal/ai"
	"github.com/taskhive/taskhive/internal/logging"
	"github.com/taskhive/taskhive/internal/store"
)

// Defaults applied when neither config file nor environment sets a value.
const (
	DefaultModel        = "gemini-2.5-flash"
	DefaultBaseURL      = "https://generativelanguage.googleapis.com"
	DefaultChatTimeout  = "20s"
	DefaultQuickTimeout = "10s"
	DefaultMaxAttempts  = 3
	DefaultBackoffBase  = "2s"
	DefaultCacheTTL     = "5m"
	DefaultCacheSize    = 256

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultLogRetention  = 7
	DefaultSweepSchedule = "*/30 * * * *"
)

// Validation errors.
var (
	ErrInvalidLogLevel      = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat     = errors.New("logging.format must be one of: json, text")
	ErrInvalidMaxAttempts   = errors.New("ai.max_attempts must be at least 1")
	ErrInvalidSweepSchedule = errors.New("sweep.cron is not a valid cron expression")
)

// Config holds all taskhive configuration.
type Config struct {
	User     UserConfig     `mapstructure:"user"`
	AI       AIConfig       `mapstructure:"ai"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
}

// UserConfig identifies the acting user for CLI operations.
type UserConfig struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// AIConfig holds Gemini provider settings. Durations are strings in
// time.ParseDuration syntax so they round-trip through YAML and env vars.
type AIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"base_url"`
	ChatTimeout  string `mapstructure:"chat_timeout"`
	QuickTimeout string `mapstructure:"quick_timeout"`
	MaxAttempts  int    `mapstructure:"max_attempts"`
	BackoffBase  string `mapstructure:"backoff_base"`
	CacheTTL     string `mapstructure:"cache_ttl"`
	CacheSize    int    `mapstructure:"cache_size"`
}

// DatabaseConfig holds store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Path          string `mapstructure:"path"`
	Format        string `mapstructure:"format"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// SweepConfig schedules the reconciliation sweep in daemon mode.
type SweepConfig struct {
	Cron string `mapstructure:"cron"`
}

// Load reads configuration from the working directory's taskhive.yaml, the
// global config, and TASKHIVE_* environment variables.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return LoadFromPaths(cwd, GlobalConfigPath())
}

// GlobalConfigPath returns the user-level config file location.
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "taskhive", "config.yaml")
}

// LoadFromPaths loads the global config, merges the project-level
// taskhive.yaml from projectDir over it, applies environment overrides,
// and validates the result.
func LoadFromPaths(projectDir, globalPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("TASKHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(globalPath); err == nil {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config %s: %w", globalPath, err)
		}
	}

	projectPath := filepath.Join(projectDir, "taskhive.yaml")
	if _, err := os.Stat(projectPath); err == nil {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Logging.Path = expandPath(cfg.Logging.Path)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user.name", "")
	v.SetDefault("user.email", "")

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", DefaultModel)
	v.SetDefault("ai.base_url", DefaultBaseURL)
	v.SetDefault("ai.chat_timeout", DefaultChatTimeout)
	v.SetDefault("ai.quick_timeout", DefaultQuickTimeout)
	v.SetDefault("ai.max_attempts", DefaultMaxAttempts)
	v.SetDefault("ai.backoff_base", DefaultBackoffBase)
	v.SetDefault("ai.cache_ttl", DefaultCacheTTL)
	v.SetDefault("ai.cache_size", DefaultCacheSize)

	v.SetDefault("database.path", store.DefaultPath())

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", logging.DefaultConfig().Path)
	v.SetDefault("logging.format", DefaultLogFormat)
	v.SetDefault("logging.retention_days", DefaultLogRetention)

	v.SetDefault("sweep.cron", DefaultSweepSchedule)
}

// Validate checks config values against the allowed sets.
func Validate(cfg *Config) error {
	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch cfg.Logging.Format {
	case "", "json", "text":
	default:
		return ErrInvalidLogFormat
	}

	if cfg.AI.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	for key, val := range map[string]string{
		"ai.chat_timeout":  cfg.AI.ChatTimeout,
		"ai.quick_timeout": cfg.AI.QuickTimeout,
		"ai.backoff_base":  cfg.AI.BackoffBase,
		"ai.cache_ttl":     cfg.AI.CacheTTL,
	} {
		if val == "" {
			continue
		}
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("%s: invalid duration %q", key, val)
		}
	}

	if cfg.Sweep.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Sweep.Cron); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidSweepSchedule, cfg.Sweep.Cron)
		}
	}
	return nil
}

// ProviderConfig converts the AI section into a client configuration.
func (c *Config) ProviderConfig() ai.Config {
	return ai.Config{
		APIKey:       c.AI.APIKey,
		Model:        c.AI.Model,
		BaseURL:      c.AI.BaseURL,
		ChatTimeout:  parseDuration(c.AI.ChatTimeout, 20*time.Second),
		QuickTimeout: parseDuration(c.AI.QuickTimeout, 10*time.Second),
		MaxAttempts:  c.AI.MaxAttempts,
		BackoffBase:  parseDuration(c.AI.BackoffBase, 2*time.Second),
		CacheTTL:     parseDuration(c.AI.CacheTTL, 5*time.Minute),
		CacheSize:    c.AI.CacheSize,
	}
}

// LogConfig converts the logging section into the logger configuration.
func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		Level:         c.Logging.Level,
		Path:          c.Logging.Path,
		Format:        c.Logging.Format,
		RetentionDays: c.Logging.RetentionDays,
	}
}

// parseDuration falls back to def for empty or invalid values; Validate has
// already rejected invalid ones on the load path.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
