package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/leadsync/internal/ui"
	"github.com/spf13/cobra"
)

// UIOptions holds options for the ui command.
type UIOptions struct {
	Port      int
	NoBrowser bool
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the leads web UI",
		Long: `Start a local web server with the leads page.

The UI provides:
- A paginated leads table with status badges
- Row and page selection with bulk enrichment
- CSV upload with drag and drop
- Live status updates while enrichment runs

Each browser session gets its own page state, dropped after ui.session_ttl
of inactivity.`,
		Example: `  leadsync ui
  leadsync ui --port 3000 --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: ui.port)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Do not open a browser tab")

	return cmd
}

func runUI(cmd *cobra.Command, opts *UIOptions) error {
	c := NewCommandContext(cmd)
	uiCfg := c.Cfg.UI

	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	if uiCfg.SessionSecret == "" {
		c.Logger.Debug("no ui.session_secret set, sessions end when the server stops")
	}

	server := ui.NewServer(ui.Config{
		Client:         c.Client,
		Port:           port,
		SessionSecret:  uiCfg.SessionSecret,
		SessionTTL:     uiCfg.SessionTTL,
		AllowedOrigins: uiCfg.AllowedOrigins,
		SecureCookie:   uiCfg.SecureCookie,
		Table:          c.TableOptions(),
		Poll:           c.Cfg.Poll.Enabled,
		PollOptions:    c.PollOptions(),
		Logger:         c.Logger,
	})

	ctx := cmd.Context()
	url := fmt.Sprintf("http://localhost:%d", port)
	if uiCfg.AutoOpen && !opts.NoBrowser {
		go func() {
			if err := openBrowser(ctx, url); err != nil {
				c.Logger.Warn("could not open browser", "url", url, "error", err)
			}
		}()
	}

	c.Renderer.Println("Serving leads on " + url)
	c.Renderer.Println("Press Ctrl+C to stop")

	return server.Serve(ctx)
}

// browserCommand returns the command that opens url on goos, or nil.
func browserCommand(ctx context.Context, goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.CommandContext(ctx, "open", url)
	case "linux", "freebsd", "openbsd":
		return exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	}
	return nil
}

func openBrowser(ctx context.Context, url string) error {
	cmd := browserCommand(ctx, runtime.GOOS, url)
	if cmd == nil {
		return fmt.Errorf("no browser launcher for %s", runtime.GOOS)
	}
	return cmd.Start()
}
