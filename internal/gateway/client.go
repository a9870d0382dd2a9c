// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package gateway talks to the remote validation API: it fetches the state of
// a validation request and pages through its per-row details.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/davetashner/checkview/internal/pipeline"
	"github.com/davetashner/checkview/internal/validation"
)

// DefaultTimeout bounds each API call when the caller sets none.
const DefaultTimeout = 30 * time.Second

// Messages shown for API failures.
const (
	MsgBadRequest  = "Bad request sent to the api"
	MsgNotFound    = "Validation endpoint not found"
	MsgServerError = "Internal Server Error"
	MsgUnreachable = "Unable to reach the api"
	MsgOther       = "Error contacting the api"
)

// HTTPError is a failed API call. StatusCode is 0 when no response arrived.
type HTTPError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Message(), e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s returned %d", e.Message(), e.URL, e.StatusCode)
}

// Message returns the user-facing description of the failure.
func (e *HTTPError) Message() string {
	if e.StatusCode == 0 {
		if errors.Is(e.Err, syscall.ECONNREFUSED) {
			return MsgUnreachable
		}
		return MsgOther
	}
	switch e.StatusCode {
	case http.StatusBadRequest:
		return MsgBadRequest
	case http.StatusNotFound:
		return MsgNotFound
	case http.StatusInternalServerError:
		return MsgServerError
	default:
		return MsgOther
	}
}

// Unwrap exposes both the upstream sentinel and the transport error.
func (e *HTTPError) Unwrap() []error {
	if e.Err == nil {
		return []error{pipeline.ErrUpstream}
	}
	return []error{pipeline.ErrUpstream, e.Err}
}

// Client reads validation requests from the API rooted at BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a Client with its own http.Client bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Get fetches the state of one validation request.
func (c *Client) Get(ctx context.Context, id string) (*Result, error) {
	var req Request
	if _, err := c.getJSON(ctx, "/requests/"+url.PathEscape(id), nil, &req); err != nil {
		return nil, err
	}
	return &Result{client: c, req: req}, nil
}

// details fetches one page of per-row details.
func (c *Client) details(ctx context.Context, id string, offset, limit int, severity validation.Severity) ([]Detail, int, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if severity != "" {
		q.Set("jsonpath", fmt.Sprintf(`$.issue_logs[*].severity=="%s"`, severity))
	}

	var out []Detail
	hdr, err := c.getJSON(ctx, "/requests/"+url.PathEscape(id)+"/response-details", q, &out)
	if err != nil {
		return nil, 0, err
	}
	total, err := strconv.Atoi(hdr.Get("X-Pagination-Total-Results"))
	if err != nil {
		total = offset + len(out)
	}
	return out, total, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) (http.Header, error) {
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &HTTPError{URL: u, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		herr := &HTTPError{StatusCode: resp.StatusCode, URL: u}
		slog.Warn("validation api error", "url", u, "status", resp.StatusCode, "message", herr.Message())
		return nil, herr
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", u, validation.ErrMalformed, err)
	}
	return resp.Header, nil
}
