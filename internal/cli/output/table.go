package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Table writes rows under headers. Text mode draws a rounded box, markdown
// mode a pipe table.
func (r *Renderer) Table(headers []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	hdr := make(table.Row, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	t.AppendHeader(hdr)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, c := range row {
			tr[i] = c
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		r.Println("")
		return
	}

	style := table.StyleRounded
	if !r.isTTY {
		style = table.StyleLight
	}
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)
	t.Render()
}

// FormatHeader returns a markdown heading.
func FormatHeader(level int, title string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + title
}

// FormatKeyValue returns a markdown list item "- **key:** value".
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// KeyValues writes aligned pairs in text mode and a list in markdown mode.
func (r *Renderer) KeyValues(pairs [][2]string) {
	if r.EffectiveMode() == ModeMarkdown {
		for _, p := range pairs {
			r.Println(FormatKeyValue(p[0], p[1]))
		}
		r.Println("")
		return
	}

	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0])+1)
	}
	for _, p := range pairs {
		r.Printf("%s  %s\n", r.styles.Bold.Render(fmt.Sprintf("%-*s", width, p[0]+":")), p[1])
	}
}
