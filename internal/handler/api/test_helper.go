// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/cache"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/session"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/testutil"
)

// testServer wraps an httptest server with a cookie-jar client so session
// auth works across requests.
type testServer struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
	db     *sql.DB
}

// newTestServer boots the full API stack on an in-process server.
func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	db, dbCleanup := testutil.TestDB(t)

	sessions := session.New(db, true)
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	h := NewHandler(db, sessions, c)

	srv := httptest.NewServer(sessions.LoadAndSave(Routes(h, sessions, db)))

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	ts := &testServer{
		t:      t,
		server: srv,
		client: &http.Client{Jar: jar},
		db:     db,
	}
	return ts, func() {
		srv.Close()
		_ = c.Close()
		dbCleanup()
	}
}

// do issues a JSON request and returns the response.
func (ts *testServer) do(method, path string, body any) *http.Response {
	ts.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			ts.t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, ts.server.URL+path, &buf)
	if err != nil {
		ts.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.client.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// decode unmarshals a response body into dst and closes the body.
func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// login authenticates the test client as the given user.
// Test users are created with the shared testutil password.
func (ts *testServer) login(username string) {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/api/v1/auth/login/", map[string]string{
		"username": username,
		"password": "changeme123!",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ts.t.Fatalf("login as %s: status %d", username, resp.StatusCode)
	}
}

// logout ends the current session.
func (ts *testServer) logout() {
	ts.t.Helper()
	resp := ts.do(http.MethodPost, "/api/v1/auth/logout/", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ts.t.Fatalf("logout: status %d", resp.StatusCode)
	}
}
