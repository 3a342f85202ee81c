// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"sync"
)

// Session is an immutable snapshot of authentication state. User is
// nil for anonymous visitors. Loading is true until the initial
// identity check has completed.
type Session struct {
	User    *User
	Loading bool
}

// SessionStore holds the process-wide authentication state. It is
// created once per application instance and is the single source of
// truth for who is logged in and what role they hold. State is only
// replaced wholesale by the named operations, never mutated field by
// field.
type SessionStore struct {
	client *Client

	mu      sync.RWMutex
	user    *User
	loading bool
}

// NewSessionStore returns a store in its pre-init state: no user,
// loading until Init has run.
func NewSessionStore(c *Client) *SessionStore {
	return &SessionStore{client: c, loading: true}
}

// Snapshot returns the current session state.
func (s *SessionStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{User: s.user, Loading: s.loading}
}

// Current returns the logged-in user, or false for anonymous.
func (s *SessionStore) Current() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Init issues the initial identity check. A failed check, including
// plain 401, resolves silently to the anonymous state; it is the
// expected outcome for visitors without a session and is never
// surfaced as an error.
func (s *SessionStore) Init(ctx context.Context) {
	var u User
	err := s.client.Get(ctx, "/auth/user/", &u)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.user = nil
		return
	}
	s.user = &u
}

// Login authenticates with the backend and, on success, re-fetches
// the identity record and replaces session state. On failure the
// error is returned for display and session state is left untouched.
func (s *SessionStore) Login(ctx context.Context, username, password string) error {
	creds := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}

	if err := s.client.Post(ctx, "/auth/login/", creds, nil); err != nil {
		return err
	}

	var u User
	if err := s.client.Get(ctx, "/auth/user/", &u); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = &u
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Logout terminates the backend session and clears local state. When
// the backend call fails the local user is kept, since the caller
// cannot tell whether the server still considers the session live;
// the error is reported instead.
func (s *SessionStore) Logout(ctx context.Context) error {
	if err := s.client.Post(ctx, "/auth/logout/", nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}

// RegisterInput is the payload for creating a contributor account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new contributor account. It never authenticates
// the caller; a successful registration still requires a separate
// login.
func (s *SessionStore) Register(ctx context.Context, input RegisterInput) error {
	return s.client.Post(ctx, "/auth/register/", input, nil)
}
