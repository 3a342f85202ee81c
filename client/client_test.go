// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeAPIError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func TestClientDecodesDataEnvelope(t *testing.T) {
	c := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/user/", r.URL.Path)
		writeData(w, http.StatusOK, User{ID: 3, Username: "amina", Role: RoleContributor, IsActive: true})
	}))

	var u User
	require.NoError(t, c.Get(context.Background(), "/auth/user/", &u))
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, "amina", u.Username)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	c := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", map[string]string{
			"title": "This field is required.",
		})
	}))

	err := c.Post(context.Background(), "/events/", map[string]string{}, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)

	msg, ok := apiErr.FieldError("title")
	assert.True(t, ok)
	assert.Equal(t, "This field is required.", msg)
}

func TestAPIErrorUserMessagePrefersFieldDetail(t *testing.T) {
	withDetail := &APIError{
		StatusCode: 422,
		Message:    "Validation failed",
		Details:    map[string]string{"username": "Username is already taken"},
	}
	assert.Equal(t, "Username is already taken", withDetail.UserMessage())

	generalOnly := &APIError{StatusCode: 403, Message: "Admin access required"}
	assert.Equal(t, "Admin access required", generalOnly.UserMessage())

	bare := &APIError{StatusCode: 500}
	assert.Equal(t, "Something went wrong. Please try again.", bare.UserMessage())
}

func TestClientErrorWithoutEnvelopeStillTyped(t *testing.T) {
	c := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := c.Get(context.Background(), "/events/", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Error())
}
