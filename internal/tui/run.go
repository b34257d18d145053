package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/leadsync/internal/page"
)

// Run shows the leads screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, p *page.Page, logger *slog.Logger, opts ...tea.ProgramOption) error {
	m := New(ctx, p, logger)
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
