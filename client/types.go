// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package client

// Roles as the API reports them.
const (
	RoleContributor = "contributor"
	RoleAdmin       = "admin"
)

// Event lifecycle statuses.
const (
	StatusPending           = "PENDING"
	StatusApproved          = "APPROVED"
	StatusRejected          = "REJECTED"
	StatusDeletionRequested = "DELETION_REQUESTED"
)

// User is the identity record returned by /auth/user/.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Source is one reference attached to an event.
type Source struct {
	ID              int64  `json:"id,omitempty"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	IsPrimarySource bool   `json:"is_primary_source"`
}

// Tag is a named label associated with events.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Event mirrors the API's event representation. Optional columns are
// pointers so absent values survive a round trip unchanged.
type Event struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Summary         *string  `json:"summary"`
	DescriptionMD   string   `json:"description_md"`
	DescriptionHTML string   `json:"description_html,omitempty"`
	LocationName    *string  `json:"location_name"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	StartYearAD     int64    `json:"start_year_ad"`
	EndYearAD       *int64   `json:"end_year_ad"`
	StartYearHijri  *int64   `json:"start_year_hijri"`
	EndYearHijri    *int64   `json:"end_year_hijri"`
	ImportanceLevel int64    `json:"importance_level"`
	VisibilityRank  int64    `json:"visibility_rank"`
	Status          string   `json:"status"`
	CreatedBy       *int64   `json:"created_by"`
	CreatedByName   string   `json:"created_by_username,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	ApprovedAt      *string  `json:"approved_at"`
	Sources         []Source `json:"sources,omitempty"`
	Tags            []Tag    `json:"tags,omitempty"`
}
