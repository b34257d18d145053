package ui

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leapstack-labs/leadsync/internal/api"
	"github.com/leapstack-labs/leadsync/internal/table"
	"github.com/leapstack-labs/leadsync/internal/testutil"
	"github.com/leapstack-labs/leadsync/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

type fixture struct {
	backend *testutil.Backend
	server  *Server
	http    *httptest.Server
	client  *http.Client
}

func setup(t *testing.T, n int, mutate ...func(*Config)) *fixture {
	t.Helper()

	b := testutil.NewBackend(t, testutil.SampleLeads(n)...)
	logger := testutil.NewTestLoggerAt(t, slog.LevelInfo)
	cfg := Config{
		Client:        api.New(api.Config{BaseURL: b.URL, Logger: logger}),
		SessionSecret: "test-secret-test-secret-test-sec",
		Table:         []table.Option{table.WithPageSize(2)},
		Logger:        logger,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	s := NewServer(cfg)
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		hs.Close()
		s.sessions.closeAll()
	})

	return &fixture{backend: b, server: s, http: hs, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (f *fixture) do(t *testing.T, method, path string, body io.Reader, contentType string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, f.http.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	return f.do(t, http.MethodGet, path, nil, "")
}

func (f *fixture) post(t *testing.T, path string) (int, string) {
	t.Helper()
	return f.do(t, http.MethodPost, path, nil, "")
}

// entry returns the single live session.
func (f *fixture) entry(t *testing.T) *entry {
	t.Helper()
	f.server.sessions.mu.Lock()
	defer f.server.sessions.mu.Unlock()
	require.Len(t, f.server.sessions.entries, 1)
	for _, e := range f.server.sessions.entries {
		return e
	}
	return nil
}

func multipartBody(t *testing.T, files ...upload.File) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		w, err := mw.CreateFormFile("file", f.Name)
		require.NoError(t, err)
		_, err = w.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// =============================================================================
// Page and session tests
// =============================================================================

func TestPage(t *testing.T) {
	f := setup(t, 3)

	status, body := f.get(t, "/")

	assert.Equal(t, http.StatusOK, status)
	for _, want := range []string{
		"<!doctype html>",
		"<title>Leads - leadsync</title>",
		"data-init",
		"/updates",
		`id="app"`,
		"First1 Last1",
		"lead2@example.com",
		"Showing 1-2 of 3",
		"Page 1 of 2",
		"badge-pending",
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
	assert.NotContains(t, body, "First3 Last3", "third lead is on page two")
}

func TestPage_Empty(t *testing.T) {
	f := setup(t, 0)

	_, body := f.get(t, "/")
	assert.Contains(t, body, "No leads yet")
}

func TestSessions_OnePagePerBrowser(t *testing.T) {
	f := setup(t, 2)

	f.get(t, "/")
	f.get(t, "/")
	assert.Equal(t, 1, f.server.sessions.Len())
	assert.Equal(t, 1, f.backend.Calls(testutil.RouteList), "the page mounts once per session")

	other := &fixture{http: f.http, client: newClient(t)}
	other.get(t, "/")
	assert.Equal(t, 2, f.server.sessions.Len())
}

func TestSessions_CookieOverPlainHTTP(t *testing.T) {
	f := setup(t, 2)

	resp, err := f.client.Get(f.http.URL + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Len(t, resp.Cookies(), 1)
	assert.False(t, resp.Cookies()[0].Secure)

	f.post(t, "/leads/1/toggle")
	assert.Equal(t, 1, f.server.sessions.Len(), "the cookie jar must send the cookie back")
	assert.Equal(t, []int{1}, f.entry(t).page.Table().SelectedIDs())
}

func TestSessions_SecureCookie(t *testing.T) {
	f := setup(t, 1, func(c *Config) { c.SecureCookie = true })

	resp, err := f.client.Get(f.http.URL + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Len(t, resp.Cookies(), 1)
	assert.True(t, resp.Cookies()[0].Secure)
}

func TestSessions_ReapIdle(t *testing.T) {
	f := setup(t, 1, func(c *Config) { c.SessionTTL = time.Minute })
	f.get(t, "/")
	require.Equal(t, 1, f.server.sessions.Len())

	reg := f.server.sessions
	assert.Equal(t, 0, reg.reap())

	reg.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 1, reg.reap())
	assert.Equal(t, 0, reg.Len())
}

func TestSessions_StreamKeepsSessionAlive(t *testing.T) {
	f := setup(t, 1, func(c *Config) { c.SessionTTL = time.Minute })
	f.get(t, "/")

	e := f.entry(t)
	e.streams.Add(1)
	reg := f.server.sessions
	reg.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 0, reg.reap())
	e.streams.Add(-1)
}

func TestHealth(t *testing.T) {
	f := setup(t, 0)

	status, body := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestStatic(t *testing.T) {
	f := setup(t, 0)

	status, body := f.get(t, "/static/app.css")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, ".badge-completed")
}

// =============================================================================
// Action tests
// =============================================================================

func TestToggleRow(t *testing.T) {
	f := setup(t, 2)
	f.get(t, "/")

	status, body := f.post(t, "/leads/2/toggle")

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, "Enrich selected (1)")
	assert.Equal(t, []int{2}, f.entry(t).page.Table().SelectedIDs())
}

func TestToggleRow_BadID(t *testing.T) {
	f := setup(t, 1)

	status, _ := f.post(t, "/leads/abc/toggle")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestToggleAll(t *testing.T) {
	f := setup(t, 3)
	f.get(t, "/")

	f.post(t, "/leads/toggle-all")
	assert.Equal(t, []int{1, 2, 3}, f.entry(t).page.Table().SelectedIDs())
}

func TestEnrich(t *testing.T) {
	f := setup(t, 3)
	f.get(t, "/")
	f.post(t, "/leads/1/toggle")
	f.post(t, "/leads/3/toggle")

	status, _ := f.post(t, "/leads/enrich")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []int{1, 3}, f.backend.LastEnrich().LeadIDs)
	assert.Empty(t, f.entry(t).page.Table().SelectedIDs())
}

func TestEnrich_NothingSelectedAlerts(t *testing.T) {
	f := setup(t, 2)
	f.get(t, "/")

	f.post(t, "/leads/enrich")
	assert.Equal(t, 0, f.backend.Calls(testutil.RouteEnrich))

	e := f.entry(t)
	require.Eventually(t, func() bool { return len(e.Alerts()) == 1 }, testutil.WaitTimeout, testutil.WaitTick)
	assert.Equal(t, table.MsgSelectFirst, e.Alerts()[0].Message)

	_, body := f.get(t, "/")
	assert.Contains(t, body, table.MsgSelectFirst)

	_, body = f.post(t, "/alerts/dismiss")
	assert.NotContains(t, body, table.MsgSelectFirst)
	assert.Empty(t, e.Alerts())
}

func TestDeleteRow(t *testing.T) {
	f := setup(t, 3)
	f.get(t, "/")

	status, body := f.do(t, http.MethodDelete, "/leads/1", nil, "")

	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, f.backend.Leads(), 2)
	assert.NotContains(t, body, "First1 Last1")
}

func TestPaging(t *testing.T) {
	f := setup(t, 3)
	f.get(t, "/")

	_, body := f.post(t, "/page/next")
	assert.Contains(t, body, "First3 Last3")
	assert.Contains(t, body, "Page 2 of 2")

	_, body = f.post(t, "/page/prev")
	assert.Contains(t, body, "Page 1 of 2")
}

// =============================================================================
// Upload tests
// =============================================================================

func TestUpload(t *testing.T) {
	f := setup(t, 0)
	f.get(t, "/")

	_, body := f.post(t, "/upload/open")
	assert.Contains(t, body, `id="upload-modal"`)

	buf, ct := multipartBody(t, upload.File{
		Name: "leads.csv",
		Data: []byte("first_name,email\nAda,ada@example.com\nAlan,alan@example.com\n"),
	})
	status, body := f.do(t, http.MethodPost, "/upload", buf, ct)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "leads.csv", f.backend.LastUpload())
	assert.NotContains(t, body, `id="upload-modal"`, "the modal closes on success")
	assert.Len(t, f.entry(t).page.Table().Leads(), 2)
}

func TestUpload_RejectsNonCSV(t *testing.T) {
	f := setup(t, 0)
	f.get(t, "/")
	f.post(t, "/upload/open")

	buf, ct := multipartBody(t, upload.File{Name: "notes.txt", Data: []byte("hello")})
	_, body := f.do(t, http.MethodPost, "/upload", buf, ct)

	assert.Contains(t, body, "only CSV files are accepted")
	assert.Contains(t, body, `id="upload-modal"`)
	assert.Equal(t, 0, f.backend.Calls(testutil.RouteUpload))

	_, body = f.post(t, "/upload/cancel")
	assert.NotContains(t, body, `id="upload-modal"`)
}

func TestUpload_FailureOffersRetry(t *testing.T) {
	f := setup(t, 0)
	f.backend.Fail(testutil.RouteUpload, http.StatusInternalServerError, "boom")
	f.get(t, "/")
	f.post(t, "/upload/open")

	buf, ct := multipartBody(t, upload.File{Name: "leads.csv", Data: []byte("first_name\nAda\n")})
	_, body := f.do(t, http.MethodPost, "/upload", buf, ct)
	assert.Contains(t, body, `id="upload-modal"`)
	assert.Contains(t, body, "/upload/retry")

	f.backend.Heal(testutil.RouteUpload)
	_, body = f.post(t, "/upload/retry")
	assert.NotContains(t, body, `id="upload-modal"`)
	assert.Len(t, f.backend.Leads(), 1)
}

func TestUpload_MissingFile(t *testing.T) {
	f := setup(t, 0)

	buf, ct := multipartBody(t)
	status, _ := f.do(t, http.MethodPost, "/upload", buf, ct)
	assert.Equal(t, http.StatusBadRequest, status)
}

// =============================================================================
// Middleware tests
// =============================================================================

func TestCORS(t *testing.T) {
	f := setup(t, 0, func(c *Config) { c.AllowedOrigins = []string{"http://app.example.com"} })

	req, err := http.NewRequest(http.MethodOptions, f.http.URL+"/leads/refresh", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "http://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
