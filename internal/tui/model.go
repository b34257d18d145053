// Package tui is the terminal front end for the leads page.
package tui

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/leadsync/internal/notifier"
	"github.com/leapstack-labs/leadsync/internal/page"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/leapstack-labs/leadsync/pkg/lead"
)

type mode int

const (
	modeBrowse mode = iota
	modeConfirmDelete
	modeUpload
)

// chromeHeight is the number of lines around the grid.
const chromeHeight = 9

type (
	// eventMsg carries one notifier event into the update loop.
	eventMsg notifier.Event
	// opDoneMsg reports the end of a backend operation.
	opDoneMsg struct {
		op  string
		err error
	}
)

// Model is the bubbletea model for the leads screen.
type Model struct {
	ctx    context.Context
	page   *page.Page
	store  *table.Store
	events chan notifier.Event
	logger *slog.Logger

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	grid    btable.Model
	styles  styles

	mode          mode
	alerts        []notifier.Event
	pendingDelete int
	uploadErr     string
	width         int
	quitting      bool
}

// New builds a model over p and subscribes to its notifier.
// Close releases the subscription.
func New(ctx context.Context, p *page.Page, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	in := textinput.New()
	in.Placeholder = "path/to/leads.csv"
	in.Prompt = "File: "
	in.CharLimit = 1024

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	grid := btable.New(
		btable.WithColumns(columns()),
		btable.WithFocused(true),
		btable.WithHeight(10),
	)

	st := newStyles()
	ts := btable.DefaultStyles()
	ts.Header = ts.Header.BorderStyle(st.border).BorderBottom(true).Bold(true)
	ts.Selected = st.cursor
	grid.SetStyles(ts)

	m := &Model{
		ctx:     ctx,
		page:    p,
		store:   p.Table(),
		events:  p.Notifier().Subscribe(),
		logger:  logger,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		input:   in,
		grid:    grid,
		styles:  st,
	}
	m.syncRows()
	return m
}

// Close unsubscribes from the page notifier.
func (m *Model) Close() {
	m.page.Notifier().Unsubscribe(m.events)
}

func columns() []btable.Column {
	return []btable.Column{
		{Title: " ", Width: 3},
		{Title: "ID", Width: 5},
		{Title: "Name", Width: 22},
		{Title: "Company", Width: 20},
		{Title: "Email", Width: 28},
		{Title: "Status", Width: 12},
	}
}

// Init starts the spinner, the first load and the event listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run("load", m.page.Mount), m.waitForEvent())
}

func (m *Model) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m *Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

// Update handles a message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if h := msg.Height - chromeHeight; h > 3 {
			m.grid.SetHeight(h)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		if msg.Kind == notifier.Alert {
			m.alerts = append(m.alerts, notifier.Event(msg))
		}
		m.syncRows()
		return m, m.waitForEvent()

	case opDoneMsg:
		m.finish(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == modeUpload {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) finish(msg opDoneMsg) {
	if msg.err != nil {
		m.logger.Debug("operation failed", "op", msg.op, "error", msg.err)
	}
	if msg.op == "upload" {
		if msg.err != nil {
			m.uploadErr = msg.err.Error()
		} else if !m.page.UploadOpen() {
			m.closeUpload()
		}
	}
	m.syncRows()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if len(m.alerts) > 0 {
		if key.Matches(msg, m.keys.Dismiss) {
			m.alerts = m.alerts[1:]
		}
		return m, nil
	}

	switch m.mode {
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	case modeUpload:
		return m.handleUploadKey(msg)
	}
	return m.handleBrowseKey(msg)
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.grid.MoveUp(1)
	case key.Matches(msg, m.keys.Down):
		m.grid.MoveDown(1)
	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.currentID(); ok {
			m.store.ToggleRow(id)
		}
	case key.Matches(msg, m.keys.ToggleAll):
		m.store.ToggleAll()
	case key.Matches(msg, m.keys.Enrich):
		return m, m.run("enrich", func(ctx context.Context) error {
			_, err := m.store.EnrichSelected(ctx)
			return err
		})
	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.currentID(); ok {
			m.pendingDelete = id
			m.mode = modeConfirmDelete
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.run("refresh", m.store.Refresh)
	case key.Matches(msg, m.keys.NextPage):
		if m.store.NextPage() {
			m.grid.SetCursor(0)
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.store.PrevPage() {
			m.grid.SetCursor(0)
		}
	case key.Matches(msg, m.keys.Upload):
		m.page.OpenUpload()
		m.mode = modeUpload
		m.uploadErr = ""
		m.input.Reset()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	m.syncRows()
	return m, nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		id := m.pendingDelete
		m.mode = modeBrowse
		m.pendingDelete = 0
		return m, m.run("delete", func(ctx context.Context) error {
			return m.store.DeleteRow(ctx, id, table.Always(true))
		})
	case key.Matches(msg, m.keys.No):
		m.mode = modeBrowse
		m.pendingDelete = 0
	}
	return m, nil
}

func (m *Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	flow := m.page.Upload()
	if flow == nil {
		m.closeUpload()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if err := flow.Cancel(); err != nil {
			m.uploadErr = err.Error()
			return m, nil
		}
		m.closeUpload()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if flow.State() == upload.Uploading {
			return m, nil
		}
		path := strings.TrimSpace(m.input.Value())
		if path == "" {
			m.uploadErr = "enter the path of a .csv file"
			return m, nil
		}
		f, err := upload.OpenFile(expandHome(path))
		if err == nil {
			err = flow.Select(f)
		}
		if err != nil {
			m.uploadErr = err.Error()
			return m, nil
		}
		m.uploadErr = ""
		return m, m.run("upload", func(ctx context.Context) error {
			_, err := flow.Confirm(ctx)
			return err
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeUpload() {
	m.mode = modeBrowse
	m.uploadErr = ""
	m.input.Blur()
	m.input.Reset()
}

// currentID returns the lead id under the cursor.
func (m *Model) currentID() (int, bool) {
	row := m.grid.SelectedRow()
	if len(row) < 2 {
		return 0, false
	}
	id, err := strconv.Atoi(row[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// syncRows copies the store's current page into the grid.
func (m *Model) syncRows() {
	v := m.store.View()
	rows := make([]btable.Row, 0, len(v.Rows))
	for _, r := range v.Rows {
		mark := "[ ]"
		if r.Selected {
			mark = "[x]"
		}
		rows = append(rows, btable.Row{
			mark,
			strconv.Itoa(r.Lead.ID),
			r.Lead.FullName(),
			lead.Display(r.Lead.Company),
			lead.Display(r.Lead.Email),
			statusLabel(r.Class),
		})
	}
	m.grid.SetRows(rows)
	if c := m.grid.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.grid.SetCursor(len(rows) - 1)
	}
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}
