// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package client implements the browser-side application logic as an
// importable Go package: session bootstrap and role state, gated
// routing decisions, the event submission form model, and the
// moderation queue engine. Every type here is a thin state container
// over the REST API; the backend stays authoritative and no two
// components share mutable state except through SessionStore.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"
)

// Client issues authenticated requests against the REST API. The
// cookie jar carries the session cookie across calls, so one Client
// represents one browser session.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New returns a Client rooted at baseURL (the server origin, without
// the /api/v1 prefix).
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Jar: jar},
	}, nil
}

// APIError is a non-2xx response decoded from the API's error
// envelope. Details maps field names to messages when the server
// returned per-field validation errors.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// UserMessage returns the text to show the user, preferring the most
// specific field error over the general message.
func (e *APIError) UserMessage() string {
	if len(e.Details) > 0 {
		fields := make([]string, 0, len(e.Details))
		for f := range e.Details {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		return e.Details[fields[0]]
	}
	if e.Message != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// FieldError returns the server-side message for one field, if any.
func (e *APIError) FieldError(field string) (string, bool) {
	msg, ok := e.Details[field]
	return msg, ok
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *Meta           `json:"meta"`
}

// Meta carries list pagination data.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// do sends one JSON request to path (relative to /api/v1) and decodes
// the response's data field into out when out is non-nil. Non-2xx
// responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	url := c.baseURL + "/api/v1" + path
	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var ee errorEnvelope
		if decodeErr := json.NewDecoder(resp.Body).Decode(&ee); decodeErr == nil {
			apiErr.Code = ee.Error.Code
			apiErr.Message = ee.Error.Message
			apiErr.Details = ee.Error.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Get issues a GET and decodes data into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}
