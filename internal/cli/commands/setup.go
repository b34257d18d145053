package commands

import (
	"log/slog"

	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/internal/cli/config"
	"github.com/leapstack-labs/leadsync/internal/cli/output"
	"github.com/leapstack-labs/leadsync/internal/poller"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Client   *api.Client
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an API client and renderer.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	client := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger.With("component", "api"),
	})

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Client:   client,
		Renderer: r,
	}
}

// TableOptions turns table settings into store options.
func (c *CommandContext) TableOptions() []table.Option {
	return []table.Option{
		table.WithPageSize(c.Cfg.Table.PageSize),
		table.WithPruneSelection(c.Cfg.Table.PruneSelection),
		table.WithLogger(c.Logger.With("component", "table")),
	}
}

// PollOptions turns poll settings into poller options.
func (c *CommandContext) PollOptions() poller.Options {
	return poller.Options{
		Interval:    c.Cfg.Poll.Interval,
		Timeout:     c.Cfg.Poll.Timeout,
		Concurrency: c.Cfg.Poll.Concurrency,
		Logger:      c.Logger.With("component", "poller"),
	}
}

// getConfig returns the current configuration, loading defaults and
// environment when no command has loaded one yet.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return &config.Config{
			API:          config.APIConfig{BaseURL: config.DefaultBaseURL},
			Table:        config.TableConfig{PageSize: config.DefaultPageSize, PruneSelection: true},
			Poll:         config.PollConfig{Enabled: true, Interval: config.DefaultPollEvery, Concurrency: config.DefaultPollWorkers},
			UI:           config.UIConfig{Port: config.DefaultUIPort, AutoOpen: true, SessionTTL: config.DefaultSessionTTL},
			Watch:        config.WatchConfig{Dir: config.DefaultWatchDir},
			Log:          config.LogConfig{Level: config.DefaultLogLevel, Format: config.DefaultLogFormat},
			OutputFormat: config.DefaultOutput,
		}
	}
	return cfg
}
