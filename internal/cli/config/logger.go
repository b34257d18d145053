package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the CLI logger from log.level and log.format. When
// log.file is set, records go there and the returned closer releases it.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, io.Closer, error) {
	lvl, err := c.LogLevel()
	if err != nil {
		return nil, nil, err
	}

	var closer io.Closer = nopCloser{}
	if c.Log.File != "" {
		f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", c.Log.File, err)
		}
		w, closer = f, f
	}
	return NewLoggerTo(w, lvl, c.Log.Format), closer, nil
}

// NewLoggerTo builds a text or JSON slog logger writing to w.
func NewLoggerTo(w io.Writer, lvl slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
