package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leapstack-labs/leadsync/internal/cli/testutil"
	"github.com/leapstack-labs/leadsync/internal/page"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/internal/testutil"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/leapstack-labs/leadsync/pkg/lead"
)

const leadsCSV = "first_name,last_name,email\nAda,Lovelace,ada@example.com\nAlan,Turing,alan@example.com\n"

type result struct {
	out    string
	errOut string
	err    error
}

// execute runs cmd the way the root command does, without usage or error
// text on the output streams.
func execute(cmd *cobra.Command, args ...string) result {
	var out, errOut bytes.Buffer
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func leads(args ...string) result {
	return execute(NewLeadsCommand(), args...)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o600))
	return name
}

// =============================================================================
// leads list
// =============================================================================

func TestLeadsList(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(3)...)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("list")

	require.NoError(t, res.err)
	clitest.AssertNoANSI(t, res.out)
	clitest.AssertValidMarkdown(t, res.out)
	assert.Contains(t, res.out, "# Leads (3 total)")
	assert.Contains(t, res.out, "| ID | Name")
	assert.Contains(t, res.out, "First2 Last2")
	assert.Contains(t, res.out, "Showing 1-3 of 3 (page 1/1)")
}

func TestLeadsList_Page(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(12)...)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("list", "--page", "2")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "First11 Last11")
	assert.NotContains(t, res.out, "First1 Last1 ")
	assert.Contains(t, res.out, "Showing 11-12 of 12 (page 2/2)")
}

func TestLeadsList_Empty(t *testing.T) {
	b := testutil.NewBackend(t)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("list")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No leads found")
}

func TestLeadsList_JSON(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(12)...)
	cfg := clitest.SetupWorkspace(t, b.URL)
	cfg.OutputFormat = "json"

	res := leads("list", "--all")
	require.NoError(t, res.err)

	var got leadList
	require.NoError(t, json.Unmarshal([]byte(res.out), &got))
	assert.Equal(t, 12, got.Total)
	assert.Len(t, got.Leads, 12)
	assert.Equal(t, 2, got.PageCount)
}

func TestLeadsList_SkipLimit(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(5)...)
	cfg := clitest.SetupWorkspace(t, b.URL)
	cfg.OutputFormat = "json"

	res := leads("list", "--skip", "1", "--limit", "2")
	require.NoError(t, res.err)

	var got leadList
	require.NoError(t, json.Unmarshal([]byte(res.out), &got))
	require.Len(t, got.Leads, 2)
	assert.Equal(t, 2, got.Leads[0].ID)
	assert.Equal(t, 3, got.Leads[1].ID)
}

func TestLeadsList_BackendDown(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail(testutil.RouteList, http.StatusInternalServerError, "database is down")
	clitest.SetupWorkspace(t, b.URL)

	res := leads("list")

	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "database is down")
}

// =============================================================================
// leads show
// =============================================================================

func TestLeadsShow(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(2)...)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("show", "2")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "# Lead 2: First2 Last2")
	assert.Contains(t, res.out, "lead2@example.com")
	assert.Contains(t, res.out, "No enriched data yet")
}

func TestLeadsShow_Errors(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(1)...)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("show", "abc")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `invalid lead id "abc"`)

	res = leads("show", "99")
	require.Error(t, res.err)
}

// =============================================================================
// leads upload
// =============================================================================

func TestLeadsUpload(t *testing.T) {
	b := testutil.NewBackend(t)
	clitest.SetupWorkspace(t, b.URL)
	path := writeFile(t, "contacts.csv", leadsCSV)

	res := leads("upload", path)

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "(2 leads)")
	assert.Equal(t, "contacts.csv", b.LastUpload())
	assert.Len(t, b.Leads(), 2)
}

func TestLeadsUpload_ExtraFilesSkipped(t *testing.T) {
	b := testutil.NewBackend(t)
	clitest.SetupWorkspace(t, b.URL)
	first := writeFile(t, "first.csv", leadsCSV)
	second := writeFile(t, "second.csv", leadsCSV)

	res := leads("upload", first, second)

	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "skipping second.csv")
	assert.Equal(t, 1, b.Calls(testutil.RouteUpload))
	assert.Equal(t, "first.csv", b.LastUpload())
}

func TestLeadsUpload_NotCSV(t *testing.T) {
	b := testutil.NewBackend(t)
	clitest.SetupWorkspace(t, b.URL)
	path := writeFile(t, "notes.txt", "hello")

	res := leads("upload", path)

	require.ErrorIs(t, res.err, upload.ErrNotCSV)
	assert.Equal(t, 0, b.Calls(testutil.RouteUpload))
}

func TestLeadsUpload_UnknownColumnsWarns(t *testing.T) {
	b := testutil.NewBackend(t)
	clitest.SetupWorkspace(t, b.URL)
	path := writeFile(t, "odd.csv", "foo,bar\n1,2\n")

	res := leads("upload", path)

	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "no recognized columns")
}

func TestLeadsUpload_BackendError(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail(testutil.RouteUpload, http.StatusBadRequest, "Only CSV files are allowed")
	clitest.SetupWorkspace(t, b.URL)
	path := writeFile(t, "contacts.csv", leadsCSV)

	res := leads("upload", path)

	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), page.MsgUploadFailed)
}

// =============================================================================
// leads enrich
// =============================================================================

func TestLeadsEnrich(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(3)...)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("enrich", "3", "1")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Enrichment started for 2 leads")
	assert.Equal(t, []int{1, 3}, b.LastEnrich().LeadIDs)
	assert.Equal(t, lead.DefaultEnrichmentTypes, b.LastEnrich().EnrichmentTypes)
}

func TestLeadsEnrich_All(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(3)...)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("enrich", "--all")

	require.NoError(t, res.err)
	assert.Equal(t, []int{1, 2, 3}, b.LastEnrich().LeadIDs)
}

func TestLeadsEnrich_Arguments(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(2)...)
	clitest.SetupWorkspace(t, b.URL)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"nothing to enrich", []string{"enrich"}, "pass at least one lead id or --all"},
		{"ids and all", []string{"enrich", "1", "--all"}, "not both"},
		{"unknown lead", []string{"enrich", "99"}, "lead 99 not found"},
		{"bad id", []string{"enrich", "x"}, `invalid lead id "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := leads(tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.wantErr)
		})
	}
	assert.Equal(t, 0, b.Calls(testutil.RouteEnrich))
}

func TestLeadsEnrich_BackendError(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(1)...)
	b.Fail(testutil.RouteEnrich, http.StatusInternalServerError, "queue unavailable")
	clitest.SetupWorkspace(t, b.URL)

	res := leads("enrich", "1")

	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), table.MsgEnrichFailed)
}

func TestLeadsEnrich_Watch(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(2)...)
	b.ScriptStatus(1, lead.StatusProcessing, lead.StatusCompleted)
	b.ScriptStatus(2, lead.StatusFailed)
	cfg := clitest.SetupWorkspace(t, b.URL)
	cfg.OutputFormat = "json"

	res := leads("enrich", "--all", "--watch")
	require.NoError(t, res.err)

	var got enrichOutput
	require.NoError(t, json.Unmarshal([]byte(res.out), &got))
	assert.Equal(t, 2, got.LeadCount)
	assert.Equal(t, map[int]lead.Status{1: lead.StatusCompleted, 2: lead.StatusFailed}, got.Final)
}

// =============================================================================
// leads delete
// =============================================================================

func TestLeadsDelete_Yes(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(3)...)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("delete", "2", "--yes")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Deleted lead 2")
	assert.Len(t, b.Leads(), 2)
}

func TestLeadsDelete_NeedsTerminal(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(1)...)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("delete", "1")

	require.ErrorIs(t, res.err, ErrConfirmationRequired)
	assert.Equal(t, 0, b.Calls(testutil.RouteDelete))
}

func TestIsYes(t *testing.T) {
	for _, s := range []string{"y", "Y", "yes", " YES "} {
		assert.True(t, isYes(s), s)
	}
	for _, s := range []string{"", "n", "no", "yep"} {
		assert.False(t, isYes(s), s)
	}
}

// =============================================================================
// leads status / retry
// =============================================================================

func TestLeadsStatus(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(1)...)
	b.SetStatus(1, lead.StatusProcessing)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("status", "1")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Enrichment status of lead 1")
	assert.Contains(t, res.out, "Processing")
}

func TestLeadsRetry(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(1)...)
	b.SetStatus(1, lead.StatusFailed)
	clitest.SetupWorkspace(t, b.URL)

	res := leads("retry", "1")

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Retrying 1 failed tasks")
	assert.Equal(t, 1, b.Calls(testutil.RouteRetry))
}

// =============================================================================
// doctor
// =============================================================================

func TestDoctor_Healthy(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(1)...)
	clitest.SetupWorkspace(t, b.URL)

	res := execute(NewDoctorCommand())

	require.NoError(t, res.err)
	assert.Contains(t, res.out, "backend health")
	assert.Contains(t, res.out, "drop folder")
}

func TestDoctor_BackendDown(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail(testutil.RouteHealth, http.StatusServiceUnavailable, "maintenance")
	cfg := clitest.SetupWorkspace(t, b.URL)
	cfg.OutputFormat = "json"

	res := execute(NewDoctorCommand())

	require.Error(t, res.err)
	var got DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(res.out), &got))
	assert.False(t, got.Healthy)
	assert.Equal(t, b.URL, got.BaseURL)
}

// =============================================================================
// watch
// =============================================================================

func TestWatch_UploadsDroppedFiles(t *testing.T) {
	b := testutil.NewBackend(t)
	clitest.SetupWorkspace(t, b.URL)
	require.NoError(t, os.MkdirAll("inbox", 0o750))
	writeFile(t, filepath.Join("inbox", "early.csv"), leadsCSV)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewWatchCommand()
	var out bytes.Buffer
	cmd.SetArgs([]string{"--dir", "inbox"})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join("inbox", "processed", "early.csv"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	writeFile(t, filepath.Join("inbox", "bad.txt"), "not a csv")
	writeFile(t, filepath.Join("inbox", "late.csv"), leadsCSV)
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join("inbox", "processed", "late.csv"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 2, b.Calls(testutil.RouteUpload))
	assert.FileExists(t, filepath.Join("inbox", "bad.txt"), "non-csv files are left alone")
}

func TestWatch_FailedUploadMovesFile(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Fail(testutil.RouteUpload, http.StatusInternalServerError, "boom")
	clitest.SetupWorkspace(t, b.URL)
	require.NoError(t, os.MkdirAll("inbox", 0o750))
	writeFile(t, filepath.Join("inbox", "leads.csv"), leadsCSV)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewWatchCommand()
	cmd.SetArgs([]string{"--dir", "inbox"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join("inbox", "failed", "leads.csv"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

// =============================================================================
// tui / ui
// =============================================================================

func TestTUI_NeedsTerminal(t *testing.T) {
	b := testutil.NewBackend(t)
	clitest.SetupWorkspace(t, b.URL)

	res := execute(NewTUICommand())

	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "interactive terminal")
}

func TestUICommandFlags(t *testing.T) {
	cmd := NewUICommand()

	port := cmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("no-browser"))
}

func TestBrowserCommand(t *testing.T) {
	ctx := context.Background()
	url := "http://localhost:8765"

	for goos, want := range map[string]string{"darwin": "open", "linux": "xdg-open", "windows": "rundll32"} {
		cmd := browserCommand(ctx, goos, url)
		require.NotNil(t, cmd, goos)
		assert.Equal(t, want, filepath.Base(cmd.Args[0]))
		assert.Equal(t, url, cmd.Args[len(cmd.Args)-1])
	}
	assert.Nil(t, browserCommand(ctx, "plan9", url))
}
