// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leadsync/internal/cli/config"
)

// SetupWorkspace moves the test into an empty directory and points the
// config at apiURL. Polling is made fast so --watch runs finish quickly.
// The loaded config is current when it returns.
func SetupWorkspace(t *testing.T, apiURL string) *config.Config {
	t.Helper()

	t.Chdir(t.TempDir())
	t.Setenv(config.EnvPrefix+"API_URL", apiURL)
	t.Setenv(config.EnvPrefix+"POLL_INTERVAL", "1ms")

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown fails on unbalanced code fences, empty headings and
// table rows whose cell count differs from their header.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	cells := -1
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
		if !strings.HasPrefix(trimmed, "|") {
			cells = -1
			continue
		}
		n := strings.Count(strings.ReplaceAll(trimmed, `\|`, ""), "|")
		if cells == -1 {
			cells = n
		} else if n != cells {
			t.Errorf("table row at line %d has %d separators, header has %d", i+1, n, cells)
		}
	}
}
