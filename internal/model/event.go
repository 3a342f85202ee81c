// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Event lifecycle statuses. Only PENDING events are contributor-editable;
// DELETED is a terminal soft-delete state reached from DELETION_REQUESTED.
const (
	StatusPending           = "PENDING"
	StatusApproved          = "APPROVED"
	StatusRejected          = "REJECTED"
	StatusDeletionRequested = "DELETION_REQUESTED"
	StatusDeleted           = "DELETED"
)

// ValidStatus reports whether s is a known event status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDeletionRequested, StatusDeleted:
		return true
	}
	return false
}

// Event is the central domain entity: one historical event on the timeline.
type Event struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Summary         sql.NullString  `json:"summary"`
	DescriptionMD   string          `json:"description_md"`
	LocationName    sql.NullString  `json:"location_name"`
	Latitude        sql.NullFloat64 `json:"latitude"`
	Longitude       sql.NullFloat64 `json:"longitude"`
	StartYearAD     int64           `json:"start_year_ad"`
	EndYearAD       sql.NullInt64   `json:"end_year_ad"`
	StartYearHijri  sql.NullInt64   `json:"start_year_hijri"`
	EndYearHijri    sql.NullInt64   `json:"end_year_hijri"`
	ImportanceLevel int64           `json:"importance_level"` // 1-5 scale
	VisibilityRank  int64           `json:"visibility_rank"`  // Timeline ordering, >= 1
	Status          string          `json:"status"`
	CreatedBy       sql.NullInt64   `json:"created_by"`
	UpdatedBy       sql.NullInt64   `json:"updated_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ApprovedAt      sql.NullTime    `json:"approved_at"`
}

// EventSource is a reference owned by an event. Sources have no identity
// outside their event; they are replaced wholesale on update.
type EventSource struct {
	ID              int64  `json:"id"`
	EventID         int64  `json:"event_id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	IsPrimarySource bool   `json:"is_primary_source"`
	Position        int64  `json:"position"`
}

// Tag is a free-text label with a URL-friendly slug.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Moderation log actions, one per status transition plus create/update.
const (
	ActionCreated           = "CREATED"
	ActionUpdated           = "UPDATED"
	ActionApproved          = "APPROVED"
	ActionRejected          = "REJECTED"
	ActionDeletionRequested = "DELETION_REQUESTED"
	ActionDeleted           = "DELETED"
	ActionDeletionDenied    = "DELETION_DENIED"
)

// ModerationLog records a single moderation action on an event.
type ModerationLog struct {
	ID          int64          `json:"id"`
	EventID     int64          `json:"event_id"`
	Action      string         `json:"action"`
	PerformedBy sql.NullInt64  `json:"performed_by"`
	Note        sql.NullString `json:"note"`
	CreatedAt   time.Time      `json:"created_at"`
}
