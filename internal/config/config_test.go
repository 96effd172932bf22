package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := &Config{
		AI:      AIConfig{MaxAttempts: 3},
		Logging: LoggingConfig{Level: "verbose"},
	}
	if err := Validate(cfg); err != ErrInvalidLogLevel {
		t.Errorf("expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := &Config{
		AI:      AIConfig{MaxAttempts: 3},
		Logging: LoggingConfig{Format: "xml"},
	}
	if err := Validate(cfg); err != ErrInvalidLogFormat {
		t.Errorf("expected ErrInvalidLogFormat, got %v", err)
	}
}

func TestValidate_InvalidMaxAttempts(t *testing.T) {
	cfg := &Config{AI: AIConfig{MaxAttempts: 0}}
	if err := Validate(cfg); err != ErrInvalidMaxAttempts {
		t.Errorf("expected ErrInvalidMaxAttempts, got %v", err)
	}
}

func TestValidate_InvalidDuration(t *testing.T) {
	cfg := &Config{
		AI: AIConfig{MaxAttempts: 3, ChatTimeout: "twenty seconds"},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
}

func TestValidate_InvalidSweepCron(t *testing.T) {
	cfg := &Config{
		AI:    AIConfig{MaxAttempts: 3},
		Sweep: SweepConfig{Cron: "every tuesday"},
	}
	err := Validate(cfg)
	if !errors.Is(err, ErrInvalidSweepSchedule) {
		t.Errorf("expected ErrInvalidSweepSchedule, got %v", err)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		AI: AIConfig{
			MaxAttempts:  3,
			ChatTimeout:  "20s",
			QuickTimeout: "10s",
			BackoffBase:  "2s",
			CacheTTL:     "5m",
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Sweep:   SweepConfig{Cron: "*/30 * * * *"},
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestLoadFromPaths_WithYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "taskhive.yaml")

	configContent := `
user:
  email: mara@example.com
ai:
  model: gemini-2.0-pro
  chat_timeout: 30s
logging:
  level: debug
sweep:
  cron: "0 * * * *"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPaths(tmpDir, filepath.Join(tmpDir, "nonexistent", "global.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPaths error: %v", err)
	}

	if cfg.User.Email != "mara@example.com" {
		t.Errorf("User.Email = %q", cfg.User.Email)
	}
	if cfg.AI.Model != "gemini-2.0-pro" {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.ChatTimeout != "30s" {
		t.Errorf("AI.ChatTimeout = %q", cfg.AI.ChatTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Sweep.Cron != "0 * * * *" {
		t.Errorf("Sweep.Cron = %q", cfg.Sweep.Cron)
	}
}

func TestLoadFromPaths_MergeConfigs(t *testing.T) {
	tmpDir := t.TempDir()

	globalDir := filepath.Join(tmpDir, "global")
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		t.Fatal(err)
	}
	globalConfig := filepath.Join(globalDir, "config.yaml")
	globalContent := `
user:
  email: mara@example.com
ai:
  model: gemini-2.0-pro
logging:
  level: info
`
	if err := os.WriteFile(globalConfig, []byte(globalContent), 0644); err != nil {
		t.Fatal(err)
	}

	projectDir := filepath.Join(tmpDir, "project")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	projectConfig := filepath.Join(projectDir, "taskhive.yaml")
	projectContent := `
logging:
  level: debug
`
	if err := os.WriteFile(projectConfig, []byte(projectContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPaths(projectDir, globalConfig)
	if err != nil {
		t.Fatalf("LoadFromPaths error: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug (project override)", cfg.Logging.Level)
	}
	if cfg.User.Email != "mara@example.com" {
		t.Errorf("User.Email = %q, want mara@example.com (from global)", cfg.User.Email)
	}
	if cfg.AI.Model != "gemini-2.0-pro" {
		t.Errorf("AI.Model = %q, want gemini-2.0-pro (from global)", cfg.AI.Model)
	}
}

func TestLoadFromPaths_Defaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := LoadFromPaths(tmpDir, filepath.Join(tmpDir, "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPaths error: %v", err)
	}

	if cfg.AI.Model != DefaultModel {
		t.Errorf("AI.Model = %q, want %q", cfg.AI.Model, DefaultModel)
	}
	if cfg.AI.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("AI.MaxAttempts = %d, want %d", cfg.AI.MaxAttempts, DefaultMaxAttempts)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.Sweep.Cron != DefaultSweepSchedule {
		t.Errorf("Sweep.Cron = %q, want %q", cfg.Sweep.Cron, DefaultSweepSchedule)
	}
	if cfg.Database.Path == "" {
		t.Error("Database.Path should default to a non-empty path")
	}
}

func TestLoadFromPaths_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TASKHIVE_AI_MODEL", "gemini-exp")
	t.Setenv("TASKHIVE_AI_API_KEY", "secret")

	cfg, err := LoadFromPaths(tmpDir, filepath.Join(tmpDir, "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPaths error: %v", err)
	}

	if cfg.AI.Model != "gemini-exp" {
		t.Errorf("AI.Model = %q, want gemini-exp (env override)", cfg.AI.Model)
	}
	if cfg.AI.APIKey != "secret" {
		t.Errorf("AI.APIKey = %q, want secret (env override)", cfg.AI.APIKey)
	}
}

func TestProviderConfig(t *testing.T) {
	cfg := &Config{
		AI: AIConfig{
			APIKey:       "k",
			ChatTimeout:  "30s",
			QuickTimeout: "5s",
			MaxAttempts:  4,
			BackoffBase:  "1s",
			CacheTTL:     "10m",
			CacheSize:    64,
		},
	}

	pc := cfg.ProviderConfig()
	if pc.ChatTimeout != 30*time.Second {
		t.Errorf("ChatTimeout = %v, want 30s", pc.ChatTimeout)
	}
	if pc.QuickTimeout != 5*time.Second {
		t.Errorf("QuickTimeout = %v, want 5s", pc.QuickTimeout)
	}
	if pc.BackoffBase != time.Second {
		t.Errorf("BackoffBase = %v, want 1s", pc.BackoffBase)
	}
	if pc.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", pc.CacheTTL)
	}
	if pc.MaxAttempts != 4 || pc.CacheSize != 64 {
		t.Errorf("MaxAttempts/CacheSize = %d/%d, want 4/64", pc.MaxAttempts, pc.CacheSize)
	}
}

func TestProviderConfig_EmptyDurationsUseDefaults(t *testing.T) {
	cfg := &Config{AI: AIConfig{MaxAttempts: 3}}
	pc := cfg.ProviderConfig()
	if pc.ChatTimeout != 20*time.Second {
		t.Errorf("ChatTimeout = %v, want 20s default", pc.ChatTimeout)
	}
	if pc.QuickTimeout != 10*time.Second {
		t.Errorf("QuickTimeout = %v, want 10s default", pc.QuickTimeout)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}
	for _, tc := range tests {
		if got := expandPath(tc.input); got != tc.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
