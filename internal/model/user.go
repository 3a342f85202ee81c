// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Event, EventSource, Tag and the moderation log structures.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleContributor = "contributor"
	RoleAdmin       = "admin"
)

// User represents a platform account.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Role         string       `json:"role"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	LastLoginAt  sql.NullTime `json:"last_login,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsContributor returns true if the user has contributor role.
func (u *User) IsContributor() bool {
	return u.Role == RoleContributor
}
