package ui

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate -f components.templ

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/leadsync/internal/notifier"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/leapstack-labs/leadsync/pkg/lead"
)

// appData is everything the app fragment renders.
type appData struct {
	View       table.View
	Upload     *upload.Snapshot
	UploadErr  string
	Alert      *notifier.Event
	AlertCount int
}

func snapshot(e *entry) appData {
	d := appData{
		View:      e.page.Table().View(),
		UploadErr: e.UploadErr(),
	}
	if flow := e.page.Upload(); flow != nil {
		s := flow.Snapshot()
		d.Upload = &s
	}
	if alerts := e.Alerts(); len(alerts) > 0 {
		d.Alert = &alerts[0]
		d.AlertCount = len(alerts)
	}
	return d
}

func enrichLabel(v table.View) string {
	switch {
	case v.Enriching:
		return "Enriching..."
	case v.SelectedCount > 0:
		return fmt.Sprintf("Enrich selected (%d)", v.SelectedCount)
	default:
		return "Enrich selected"
	}
}

func rowID(id int) string { return fmt.Sprintf("lead-%d", id) }

func selectLabel(id int) string { return fmt.Sprintf("Select lead %d", id) }

func rowAction(id int, action string) string {
	return fmt.Sprintf("@post('/leads/%d/%s')", id, action)
}

// deleteAction asks for confirmation before issuing the delete. The prompt
// is embedded as a JSON string literal so quotes in it cannot break out.
func deleteAction(id int) (string, error) {
	prompt, err := templ.JSONString(table.MsgDeletePrompt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("confirm(%s) && @delete('/leads/%d')", prompt, id), nil
}

func showing(v table.View) string {
	return fmt.Sprintf("Showing %d-%d of %d", v.FirstRow(), v.LastRow(), v.Total)
}

func pageOf(v table.View) string {
	return fmt.Sprintf("Page %d of %d", v.Page+1, max(v.PageCount, 1))
}

func columnsHint() string {
	return "Columns: " + strings.Join(lead.Columns, ", ")
}

func fileLabel(s upload.Snapshot) string {
	return fmt.Sprintf("%s (%d bytes)", s.FileName, s.FileSize)
}

func discardedNote(s upload.Snapshot) string {
	return "Only one file is uploaded; ignored " + strings.Join(s.Discarded, ", ")
}

func moreLabel(count int) string {
	return fmt.Sprintf("%d more", count-1)
}

func statusLabel(c lead.Class) string {
	s := string(c)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
