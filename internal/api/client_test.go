package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leapstack-labs/leadsync/internal/testutil"
	"github.com/leapstack-labs/leadsync/pkg/lead"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, b *testutil.Backend) *Client {
	t.Helper()
	return New(Config{BaseURL: b.URL, Logger: testutil.NewTestLogger(t)})
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{BaseURL: "http://example.com/"})
	assert.Equal(t, "http://example.com", c.BaseURL())
	assert.Zero(t, c.httpClient.Timeout)

	c = New(Config{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestListLeads(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(3)...)
	c := newTestClient(t, b)

	leads, err := c.ListLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, 1, leads[0].ID)
	assert.Equal(t, lead.StatusPending, leads[0].Status)
	assert.Equal(t, 1, b.Calls(testutil.RouteList))
}

func TestListLeads_SkipLimit(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(5)...)
	c := newTestClient(t, b)

	leads, err := c.ListLeads(context.Background(), WithSkip(1), WithLimit(2))
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, 2, leads[0].ID)
	assert.Equal(t, 3, leads[1].ID)
}

func TestListLeads_NoQueryByDefault(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	leads, err := New(Config{BaseURL: srv.URL}).ListLeads(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
	assert.NotNil(t, leads)
	assert.Empty(t, rawQuery)
}

func TestUploadCSV(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newTestClient(t, b)

	body := "first_name,last_name,email\nAda,Lovelace,ada@example.com\nAlan,Turing,\n"
	res, err := c.UploadCSV(context.Background(), "leads.csv", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "leads.csv", b.LastUpload())
	assert.Len(t, b.Leads(), 2)
}

func TestUploadCSV_BackendRejects(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newTestClient(t, b)

	_, err := c.UploadCSV(context.Background(), "leads.txt", strings.NewReader("x"))
	require.Error(t, err)

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.StatusCode)
	assert.Equal(t, "File must be a CSV", he.Detail)
}

func TestEnrichLeads(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(3)...)
	c := newTestClient(t, b)

	res, err := c.EnrichLeads(context.Background(), []int{1, 3}, lead.EnrichmentTypes())
	require.NoError(t, err)
	assert.Equal(t, 2, res.LeadCount)
	assert.Len(t, res.TaskIDs, 6)

	sent := b.LastEnrich()
	assert.Equal(t, []int{1, 3}, sent.LeadIDs)
	assert.Equal(t, []string{"apollo", "email", "ai"}, sent.EnrichmentTypes)
}

func TestDeleteLead(t *testing.T) {
	b := testutil.NewBackend(t, testutil.SampleLeads(2)...)
	c := newTestClient(t, b)

	require.NoError(t, c.DeleteLead(context.Background(), 1))
	assert.Len(t, b.Leads(), 1)

	err := c.DeleteLead(context.Background(), 99)
	assert.True(t, IsNotFound(err))
}

func TestGetAndCreateLead(t *testing.T) {
	b := testutil.NewBackend(t)
	c := newTestClient(t, b)

	created, err := c.CreateLead(context.Background(), lead.Input{FirstName: lead.Ptr("Grace")})
	require.NoError(t, err)

	got, err := c.GetLead(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", lead.Display(got.FirstName))
	assert.Equal(t, lead.Placeholder, lead.Display(got.Company))
}

func TestEnrichmentStatusAndRetry(t *testing.T) {
	seed := testutil.SampleLeads(1)
	seed[0].Status = lead.StatusFailed
	b := testutil.NewBackend(t, seed...)
	c := newTestClient(t, b)

	rep, err := c.EnrichmentStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, lead.StatusFailed, rep.OverallStatus)

	res, err := c.RetryEnrichment(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, res.TaskIDs, 1)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
}

func TestHTTPError_Detail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Lead not found"}`, "Lead not found"},
		{"validation list", `{"detail":[{"msg":"a"},{"msg":"b"}]}`, "a; b"},
		{"plain body", "  boom \n", "boom"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detail([]byte(tt.body)))
		})
	}
}

func TestHTTPError_Message(t *testing.T) {
	err := newHTTPError(http.MethodGet, "/api/leads/", 500, nil)
	assert.Equal(t, "GET /api/leads/: 500 Internal Server Error", err.Error())
	assert.Equal(t, 500, StatusCode(err))
	assert.Equal(t, 0, StatusCode(errors.New("x")))
}

func TestTransportErrorReturnedUntouched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := testutil.NewBackend(t)
	_, err := newTestClient(t, b).ListLeads(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var he *HTTPError
	assert.False(t, errors.As(err, &he))
}

func TestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).ListLeads(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}
