package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/leapstack-labs/leadsync/pkg/lead"
)

// ListOption tunes a ListLeads call.
type ListOption func(url.Values)

// WithSkip sets the backend's skip parameter.
func WithSkip(n int) ListOption {
	return func(q url.Values) { q.Set("skip", strconv.Itoa(n)) }
}

// WithLimit sets the backend's limit parameter.
func WithLimit(n int) ListOption {
	return func(q url.Values) { q.Set("limit", strconv.Itoa(n)) }
}

// ListLeads fetches the lead collection.
// Without options the backend's default window applies.
func (c *Client) ListLeads(ctx context.Context, opts ...ListOption) ([]lead.Lead, error) {
	q := url.Values{}
	for _, opt := range opts {
		opt(q)
	}

	var leads []lead.Lead
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/leads/", query: q}, &leads); err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []lead.Lead{}
	}
	return leads, nil
}

// GetLead fetches one lead by id.
func (c *Client) GetLead(ctx context.Context, id int) (*lead.Lead, error) {
	var l lead.Lead
	if err := c.do(ctx, request{method: http.MethodGet, path: leadPath(id)}, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLead creates a single lead.
func (c *Client) CreateLead(ctx context.Context, in lead.Input) (*lead.Lead, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}

	var l lead.Lead
	req := request{
		method:      http.MethodPost,
		path:        "/api/leads/",
		body:        body,
		contentType: "application/json",
	}
	if err := c.do(ctx, req, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteLead removes a lead. Any 2xx is success.
func (c *Client) DeleteLead(ctx context.Context, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: leadPath(id)}, nil)
}

// UploadCSV sends one file as multipart form field "file".
func (c *Client) UploadCSV(ctx context.Context, name string, r io.Reader) (*lead.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var res lead.UploadResult
	req := request{
		method:      http.MethodPost,
		path:        "/api/leads/upload-csv",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}
	if err := c.do(ctx, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func leadPath(id int) string {
	return "/api/leads/" + strconv.Itoa(id)
}
