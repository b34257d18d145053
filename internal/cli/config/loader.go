package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "LEADSYNC_"

// Config sections; an env var or flag starting with one of these maps into it.
var sections = []string{"api", "table", "poll", "ui", "watch", "log"}

// Short names that do not follow the section_key pattern.
var aliases = map[string]string{
	"api_url":    "api.base_url",
	"port":       "ui.port",
	"dir":        "watch.dir",
	"no_browser": "ui.auto_open",
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > leadsync.yaml > leadsync.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"leadsync.yaml", "leadsync.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// keyFor maps a snake_case name (env suffix or flag name) to a config key.
func keyFor(name string) string {
	if key, ok := aliases[name]; ok {
		return key
	}
	for _, s := range sections {
		if rest, ok := strings.CutPrefix(name, s+"_"); ok {
			return s + "." + rest
		}
	}
	return name
}

// envValue splits list-valued settings on commas.
func envValue(key, value string) interface{} {
	if key == "ui.allowed_origins" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return value
}

// dotenvValues reads LEADSYNC_* entries from an env file. A missing file
// is not an error.
func dotenvValues(path string) (map[string]interface{}, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading env file %s: %w", path, err)
	}

	out := make(map[string]interface{})
	for name, value := range vars {
		rest, ok := strings.CutPrefix(name, EnvPrefix)
		if !ok {
			continue
		}
		key := keyFor(strings.ToLower(rest))
		out[key] = envValue(key, value)
	}
	return out, nil
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > .env file > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithEnvFile(cfgFile, DefaultEnvFile, flags)
}

// LoadConfigWithEnvFile is LoadConfig with an explicit .env path. An empty
// envFile skips the .env layer.
func LoadConfigWithEnvFile(cfgFile, envFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load the .env file, then real environment variables on top
	if envFile != "" {
		vals, err := dotenvValues(envFile)
		if err != nil {
			return nil, err
		}
		if len(vals) > 0 {
			if err := k.Load(confmap.Provider(vals, "."), nil); err != nil {
				return nil, fmt.Errorf("failed to load env file: %w", err)
			}
		}
	}

	// Transform: LEADSYNC_POLL_INTERVAL -> poll.interval
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(s, v string) (string, interface{}) {
		key := keyFor(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)))
		return key, envValue(key, v)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := keyFor(strings.ReplaceAll(f.Name, "-", "_"))
			// Command-local flags such as --all or --yes are not settings
			if _, ok := defaults()[key]; !ok {
				return "", nil
			}

			// --no-browser is the negation of ui.auto_open
			if f.Name == "no-browser" {
				v, _ := flags.GetBool(f.Name)
				return key, !v
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the most recently loaded configuration, or nil.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
