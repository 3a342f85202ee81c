// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/auth"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/middleware"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"
)

const minPasswordLength = 8

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}

// CurrentUser returns the authenticated user's identity.
// Routed behind LoadUser, which already replies 401 for anonymous callers.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	WriteSuccess(w, toUserResponse(*user), nil)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a user and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.queries.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Warn("login failed: user not found", "category", "auth", "username", req.Username)
			WriteUnauthorized(w, "Invalid credentials")
			return
		}
		slog.Error("database error during login", "error", err)
		WriteInternalError(w, "Login failed")
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		slog.Warn("login failed: invalid password", "category", "auth", "user_id", user.ID)
		WriteUnauthorized(w, "Invalid credentials")
		return
	}

	if !user.IsActive {
		slog.Warn("login rejected for suspended account", "category", "auth", "user_id", user.ID)
		WriteForbidden(w, "Account is suspended")
		return
	}

	// Re-hash if stored with old parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), user.ID, newHash); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
		// Don't block login on this error
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
		WriteInternalError(w, "Login failed")
		return
	}
	h.sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	WriteSuccess(w, toUserResponse(user), nil)
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
		WriteInternalError(w, "Logout failed")
		return
	}
	WriteSuccess(w, map[string]string{"status": "logged_out"}, nil)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new contributor account. Registration never starts a
// session; the new contributor logs in separately.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := make(map[string]string)
	if req.Username == "" {
		fieldErrors["username"] = "Username is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fieldErrors["email"] = "A valid email address is required"
	}
	if len(req.Password) < minPasswordLength {
		fieldErrors["password"] = "Password must be at least 8 characters"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	count, err := h.queries.CountUsersByUsername(r.Context(), req.Username)
	if err != nil {
		slog.Error("database error during registration", "error", err)
		WriteInternalError(w, "Registration failed")
		return
	}
	if count > 0 {
		WriteValidationError(w, map[string]string{"username": "Username is already taken"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hash error", "error", err)
		WriteInternalError(w, "Registration failed")
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleContributor,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		WriteInternalError(w, "Registration failed")
		return
	}

	slog.Info("contributor registered", "user_id", user.ID, "username", user.Username)
	WriteCreated(w, toUserResponse(user))
}
