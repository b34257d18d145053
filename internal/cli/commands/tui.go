package commands

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/internal/cli/config"
	"github.com/leapstack-labs/leadsync/internal/page"
	"github.com/leapstack-labs/leadsync/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewTUICommand creates the tui command.
func NewTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and manage leads in the terminal",
		Long: `Open an interactive leads table in the terminal.

Select rows with space, enrich the selection with e, upload a CSV with u and
delete the lead under the cursor with d. Press ? for every key.

Logs go to log.file, or to leadsync-tui.log in the temp directory, so they
do not draw over the screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd)
		},
	}
}

func runTUI(cmd *cobra.Command) error {
	if f, ok := cmd.InOrStdin().(*os.File); !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return fmt.Errorf("the tui needs an interactive terminal")
	}

	c := NewCommandContext(cmd)
	cfg := c.Cfg

	logPath := cfg.Log.File
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "leadsync-tui.log")
	}
	logFile, err := tea.LogToFile(logPath, "leadsync")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	lvl, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := config.NewLoggerTo(logFile, lvl, cfg.Log.Format)
	c.Logger = logger
	c.Client = api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger.With("component", "api"),
	})

	p := page.New(c.Client, page.Options{
		Logger:      logger,
		Table:       c.TableOptions(),
		Poll:        cfg.Poll.Enabled,
		PollOptions: c.PollOptions(),
	})
	defer p.Close()

	return tui.Run(cmd.Context(), p, logger,
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
}
