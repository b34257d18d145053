package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leadsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Zero(t, cfg.API.Timeout)
	assert.Equal(t, DefaultPageSize, cfg.Table.PageSize)
	assert.True(t, cfg.Table.PruneSelection)
	assert.True(t, cfg.Poll.Enabled)
	assert.Equal(t, DefaultPollEvery, cfg.Poll.Interval)
	assert.Equal(t, DefaultPollWorkers, cfg.Poll.Concurrency)
	assert.Equal(t, DefaultUIPort, cfg.UI.Port)
	assert.True(t, cfg.UI.AutoOpen)
	assert.Equal(t, DefaultSessionTTL, cfg.UI.SessionTTL)
	assert.False(t, cfg.UI.SecureCookie)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, GetConfigFileUsed())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FindsFileInWorkingDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leadsync.yml"), []byte("table:\n  page_size: 25\n"), 0600))
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Table.PageSize)
	assert.Equal(t, "leadsync.yml", GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	cfgPath := writeConfig(t, `api:
  base_url: https://leads.example.com/
  timeout: 15s
poll:
  enabled: false
  interval: 2s
ui:
  allowed_origins:
    - https://app.example.com
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://leads.example.com", cfg.API.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.Poll.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.UI.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	cfgPath := writeConfig(t, "table:\n  page_size: 25\n")

	t.Setenv("LEADSYNC_TABLE_PAGE_SIZE", "50")
	t.Setenv("LEADSYNC_API_URL", "http://api.internal:9000")
	t.Setenv("LEADSYNC_UI_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Table.PageSize, "env var should override config file")
	assert.Equal(t, "http://api.internal:9000", cfg.API.BaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.UI.AllowedOrigins)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"LEADSYNC_API_URL=http://from-dotenv:8000\nLEADSYNC_POLL_INTERVAL=750ms\nUNRELATED=1\n"), 0600))

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv:8000", cfg.API.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Poll.Interval)

	// Real environment wins over .env
	ResetConfig()
	t.Setenv("LEADSYNC_API_URL", "http://from-env:8000")
	cfg, err = LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8000", cfg.API.BaseURL)
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	cfgPath := writeConfig(t, "api:\n  base_url: http://from-file\n")
	t.Setenv("LEADSYNC_API_URL", "http://from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "API base URL")
	flags.String("log-level", "", "log level")
	flags.Bool("no-browser", false, "do not open a browser")
	require.NoError(t, flags.Set("api-url", "http://from-flag"))
	require.NoError(t, flags.Set("log-level", "error"))
	require.NoError(t, flags.Set("no-browser", "true"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "http://from-flag", cfg.API.BaseURL, "flag value should override config file and env var")
	assert.Equal(t, "error", cfg.Log.Level)
	assert.False(t, cfg.UI.AutoOpen)
}

func TestLoadConfig_IgnoresCommandFlags(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("watch", false, "follow enrichment")
	flags.Bool("yes", false, "skip confirmation")
	require.NoError(t, flags.Set("watch", "true"))
	require.NoError(t, flags.Set("yes", "true"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, DefaultWatchDir, cfg.Watch.Dir)
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("LEADSYNC_API_URL", "http://from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", DefaultBaseURL, "API base URL")

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.API.BaseURL, "env var should be used when flag is not set")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:          APIConfig{BaseURL: DefaultBaseURL},
			Table:        TableConfig{PageSize: 10},
			Poll:         PollConfig{Interval: time.Second},
			UI:           UIConfig{Port: DefaultUIPort},
			Log:          LogConfig{Level: "info", Format: "text"},
			OutputFormat: "auto",
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"relative url", func(c *Config) { c.API.BaseURL = "localhost" }, "api.base_url"},
		{"zero page size", func(c *Config) { c.Table.PageSize = 0 }, "page_size"},
		{"zero interval", func(c *Config) { c.Poll.Interval = 0 }, "poll.interval"},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "output format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"port range", func(c *Config) { c.UI.Port = 70000 }, "ui.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "warn"}}
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	cfg.Verbose = true
	lvl, err = cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestGetLogger_Fallback(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	l := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), l)
	assert.Same(t, l, GetLogger(ctx))
}
