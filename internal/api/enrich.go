package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/leapstack-labs/leadsync/pkg/lead"
)

// EnrichLeads starts enrichment of ids with the given types.
// The caller is responsible for passing a non-empty id list.
func (c *Client) EnrichLeads(ctx context.Context, ids []int, types []string) (*lead.EnrichResult, error) {
	body, err := jsonBody(lead.EnrichRequest{LeadIDs: ids, EnrichmentTypes: types})
	if err != nil {
		return nil, err
	}

	var res lead.EnrichResult
	req := request{
		method:      http.MethodPost,
		path:        "/api/enrich/",
		body:        body,
		contentType: "application/json",
	}
	if err := c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EnrichmentStatus reports per-task enrichment progress of one lead.
func (c *Client) EnrichmentStatus(ctx context.Context, id int) (*lead.StatusReport, error) {
	var rep lead.StatusReport
	path := "/api/enrich/status/" + strconv.Itoa(id)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// RetryEnrichment re-queues the failed tasks of one lead.
func (c *Client) RetryEnrichment(ctx context.Context, id int) (*lead.RetryResult, error) {
	var res lead.RetryResult
	path := "/api/enrich/retry/" + strconv.Itoa(id)
	if err := c.do(ctx, request{method: http.MethodPost, path: path}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Health calls the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) (*lead.Health, error) {
	var h lead.Health
	if err := c.do(ctx, request{method: http.MethodGet, path: "/health"}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
