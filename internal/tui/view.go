package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/leadsync/internal/notifier"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/leapstack-labs/leadsync/pkg/lead"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	errText lipgloss.Style
	info    lipgloss.Style
	box     lipgloss.Style
	alert   lipgloss.Style
	border  lipgloss.Border
	cursor  lipgloss.Style
	status  map[lead.Class]lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		errText: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1),
		alert: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		border: lipgloss.NormalBorder(),
		cursor: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		status: map[lead.Class]lipgloss.Style{
			lead.ClassPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
			lead.ClassProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
			lead.ClassCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
			lead.ClassFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}

var titleCase = cases.Title(language.English)

func statusLabel(c lead.Class) string {
	return titleCase.String(string(c))
}

// View renders the screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	v := m.store.View()
	var b strings.Builder

	b.WriteString(m.styles.title.Render("Leads"))
	if v.Loading || v.Enriching {
		b.WriteString("  " + m.spinner.View())
		if v.Enriching {
			b.WriteString(m.styles.muted.Render(" enriching"))
		}
	}
	b.WriteString("\n")
	if v.LoadErr != "" {
		b.WriteString(m.styles.errText.Render("Could not load leads: "+v.LoadErr) + "\n")
	}
	b.WriteString("\n")

	switch {
	case v.Empty() && !v.Loading:
		b.WriteString(m.styles.muted.Render("No leads yet. Press u to upload a CSV file.") + "\n")
	default:
		b.WriteString(m.grid.View() + "\n")
	}

	b.WriteString(m.footer(v) + "\n")

	if overlay := m.overlay(); overlay != "" {
		b.WriteString("\n" + overlay + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) footer(v table.View) string {
	parts := []string{
		fmt.Sprintf("Page %d/%d", v.Page+1, max(v.PageCount, 1)),
		fmt.Sprintf("%d leads", v.Total),
	}
	if v.SelectedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", v.SelectedCount))
	}
	if id, ok := m.currentID(); ok {
		for _, r := range v.Rows {
			if r.Lead.ID == id {
				parts = append(parts, "status "+m.badge(r.Class))
				break
			}
		}
	}
	return m.styles.muted.Render(strings.Join(parts, " · "))
}

func (m *Model) badge(c lead.Class) string {
	st, ok := m.styles.status[c]
	if !ok {
		st = m.styles.status[lead.ClassPending]
	}
	return st.Render(statusLabel(c))
}

// overlay returns the modal on top of the table, alerts first.
func (m *Model) overlay() string {
	if len(m.alerts) > 0 {
		return m.alertView(m.alerts[0])
	}
	switch m.mode {
	case modeConfirmDelete:
		return m.styles.box.Render(fmt.Sprintf("Delete lead %d? This cannot be undone.\n\ny: delete   n: keep", m.pendingDelete))
	case modeUpload:
		return m.uploadView()
	}
	return ""
}

func (m *Model) alertView(ev notifier.Event) string {
	st := m.styles.alert.BorderForeground(lipgloss.Color("14"))
	text := m.styles.info.Render(ev.Message)
	if ev.Level == notifier.LevelError {
		st = m.styles.alert.BorderForeground(lipgloss.Color("9"))
		text = m.styles.errText.Render(ev.Message)
	}
	more := ""
	if n := len(m.alerts) - 1; n > 0 {
		more = m.styles.muted.Render(fmt.Sprintf(" (+%d more)", n))
	}
	return st.Render(text + more + "\n\n" + m.styles.muted.Render("enter: dismiss"))
}

func (m *Model) uploadView() string {
	var b strings.Builder
	b.WriteString("Upload CSV\n\n")
	b.WriteString(m.input.View() + "\n")

	if flow := m.page.Upload(); flow != nil {
		snap := flow.Snapshot()
		switch snap.State {
		case upload.FileSelected:
			b.WriteString(m.styles.muted.Render(fmt.Sprintf("%s (%d bytes)", snap.FileName, snap.FileSize)) + "\n")
		case upload.Uploading:
			b.WriteString(m.spinner.View() + " Uploading " + snap.FileName + "\n")
		}
	}
	if m.uploadErr != "" {
		b.WriteString(m.styles.errText.Render(m.uploadErr) + "\n")
	}
	b.WriteString("\n" + m.styles.muted.Render("enter: upload   esc: cancel"))
	return m.styles.box.Render(b.String())
}
