package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/leadsync/pkg/lead"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	status map[lead.Class]lipgloss.Style
}

// Badge colors per status class.
var statusColors = map[lead.Class]lipgloss.Color{
	lead.ClassPending:    lipgloss.Color("11"),
	lead.ClassProcessing: lipgloss.Color("12"),
	lead.ClassCompleted:  lipgloss.Color("10"),
	lead.ClassFailed:     lipgloss.Color("9"),
}

func newStyles(w io.Writer, color bool) *Styles {
	re := lipgloss.NewRenderer(w)
	s := &Styles{status: make(map[lead.Class]lipgloss.Style, len(statusColors))}
	if !color {
		plain := re.NewStyle()
		s.Header1, s.Header2, s.Bold, s.Muted = plain, plain, plain, plain
		s.Success, s.Warning, s.Error, s.Info = plain, plain, plain, plain
		for c := range statusColors {
			s.status[c] = plain
		}
		return s
	}

	s.Header1 = re.NewStyle().Bold(true).Underline(true)
	s.Header2 = re.NewStyle().Bold(true)
	s.Bold = re.NewStyle().Bold(true)
	s.Muted = re.NewStyle().Foreground(lipgloss.Color("8"))
	s.Success = re.NewStyle().Foreground(lipgloss.Color("10"))
	s.Warning = re.NewStyle().Foreground(lipgloss.Color("11"))
	s.Error = re.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	s.Info = re.NewStyle().Foreground(lipgloss.Color("12"))
	for c, col := range statusColors {
		s.status[c] = re.NewStyle().Foreground(col)
	}
	return s
}

var titleCaser = cases.Title(language.English)

// StatusLabel is the human label of a status. Unknown values read as pending.
func StatusLabel(st lead.Status) string {
	return titleCaser.String(string(lead.Presentation(st)))
}

// Status renders a status badge in its class style.
func (s *Styles) Status(st lead.Status) string {
	return s.status[lead.Presentation(st)].Render(StatusLabel(st))
}
