// Package config provides configuration management for the leadsync CLI.
//
// Values are layered from defaults, a leadsync.yaml file, a .env file,
// LEADSYNC_* environment variables and explicitly set command-line flags,
// in increasing order of precedence.
package config

import "time"

// Default configuration values.
const (
	DefaultBaseURL     = "http://localhost:8000"
	DefaultPageSize    = 10
	DefaultPollEvery   = 5 * time.Second
	DefaultPollWorkers = 4
	DefaultUIPort      = 8765
	DefaultSessionTTL  = 30 * time.Minute
	DefaultWatchDir    = "inbox"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultEnvFile     = ".env"
)

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL string `koanf:"base_url"`
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration `koanf:"timeout"`
}

// TableConfig configures the leads table.
type TableConfig struct {
	PageSize       int  `koanf:"page_size"`
	PruneSelection bool `koanf:"prune_selection"`
}

// PollConfig configures enrichment status polling.
type PollConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Interval    time.Duration `koanf:"interval"`
	Timeout     time.Duration `koanf:"timeout"`
	Concurrency int           `koanf:"concurrency"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port           int           `koanf:"port"`
	AutoOpen       bool          `koanf:"auto_open"`
	SessionSecret  string        `koanf:"session_secret"`
	SessionTTL     time.Duration `koanf:"session_ttl"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	// SecureCookie marks the session cookie Secure; only for TLS deployments.
	SecureCookie bool `koanf:"secure_cookie"`
}

// WatchConfig configures the drop folder.
type WatchConfig struct {
	Dir string `koanf:"dir"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File receives log output instead of stderr when set.
	File string `koanf:"file"`
}

// Config holds all CLI configuration options.
type Config struct {
	API          APIConfig   `koanf:"api"`
	Table        TableConfig `koanf:"table"`
	Poll         PollConfig  `koanf:"poll"`
	UI           UIConfig    `koanf:"ui"`
	Watch        WatchConfig `koanf:"watch"`
	Log          LogConfig   `koanf:"log"`
	OutputFormat string      `koanf:"output"`
	Verbose      bool        `koanf:"verbose"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"api.base_url":          DefaultBaseURL,
		"api.timeout":           "0s",
		"table.page_size":       DefaultPageSize,
		"table.prune_selection": true,
		"poll.enabled":          true,
		"poll.interval":         DefaultPollEvery.String(),
		"poll.timeout":          "0s",
		"poll.concurrency":      DefaultPollWorkers,
		"ui.port":               DefaultUIPort,
		"ui.auto_open":          true,
		"ui.session_secret":     "",
		"ui.session_ttl":        DefaultSessionTTL.String(),
		"ui.allowed_origins":    []string{},
		"ui.secure_cookie":      false,
		"watch.dir":             DefaultWatchDir,
		"log.level":             DefaultLogLevel,
		"log.format":            DefaultLogFormat,
		"log.file":              "",
		"output":                DefaultOutput,
		"verbose":               false,
	}
}
