// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/middleware"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/service"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"
)

// listEventsByStatus returns every event currently in the given status.
func (h *Handler) listEventsByStatus(w http.ResponseWriter, r *http.Request, status string) {
	events, err := h.queries.ListEvents(r.Context(), store.EventFilter{
		Statuses: []string{status},
	})
	if err != nil {
		slog.Error("failed to list moderation queue", "error", err, "status", status)
		WriteInternalError(w, "Failed to list events")
		return
	}

	items := make([]EventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResponse(e))
	}
	WriteSuccess(w, items, &Meta{Total: int64(len(items))})
}

// PendingEvents lists events awaiting review.
func (h *Handler) PendingEvents(w http.ResponseWriter, r *http.Request) {
	h.listEventsByStatus(w, r, model.StatusPending)
}

// DeletionRequests lists events flagged for removal.
func (h *Handler) DeletionRequests(w http.ResponseWriter, r *http.Request) {
	h.listEventsByStatus(w, r, model.StatusDeletionRequested)
}

// Contributors lists all contributor accounts.
func (h *Handler) Contributors(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsersByRole(r.Context(), model.RoleContributor)
	if err != nil {
		slog.Error("failed to list contributors", "error", err)
		WriteInternalError(w, "Failed to list contributors")
		return
	}

	items := make([]UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	WriteSuccess(w, items, &Meta{Total: int64(len(items))})
}

// ModerationLogResponse is one entry of an event's moderation trail.
type ModerationLogResponse struct {
	ID          int64   `json:"id"`
	EventID     int64   `json:"event_id"`
	Action      string  `json:"action"`
	PerformedBy *int64  `json:"performed_by"`
	Note        *string `json:"note"`
	CreatedAt   string  `json:"created_at"`
}

// ModerationLogs returns an event's moderation trail, newest first.
func (h *Handler) ModerationLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireEventID(w, r)
	if !ok {
		return
	}

	logs, err := h.moderation.History(r.Context(), id)
	if err != nil {
		slog.Error("failed to list moderation logs", "error", err, "event_id", id)
		WriteInternalError(w, "Failed to list moderation logs")
		return
	}

	items := make([]ModerationLogResponse, 0, len(logs))
	for _, l := range logs {
		item := ModerationLogResponse{
			ID:        l.ID,
			EventID:   l.EventID,
			Action:    l.Action,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		}
		if l.PerformedBy.Valid {
			item.PerformedBy = &l.PerformedBy.Int64
		}
		if l.Note.Valid {
			item.Note = &l.Note.String
		}
		items = append(items, item)
	}
	WriteSuccess(w, items, &Meta{Total: int64(len(items))})
}

// moderate runs one moderation action and writes the standard responses.
func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, action func(eventID, adminID int64, note string) (model.Event, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid event ID", nil)
		return
	}

	var req noteRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	admin := middleware.GetUser(r)
	event, err := action(id, admin.ID, strings.TrimSpace(req.Note))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		WriteNotFound(w, "Event not found")
		return
	case errors.Is(err, service.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, "invalid_status", "Event is not in a status that allows this action", nil)
		return
	case err != nil:
		slog.Error("moderation action failed", "error", err, "event_id", id)
		WriteInternalError(w, "Moderation action failed")
		return
	}

	h.invalidateTimeline(r)
	WriteSuccess(w, toEventResponse(event), nil)
}

// ApproveEvent publishes a pending event.
func (h *Handler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, func(eventID, adminID int64, _ string) (model.Event, error) {
		return h.moderation.Approve(r.Context(), eventID, adminID)
	})
}

// RejectEvent declines a pending event with an optional note.
func (h *Handler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, func(eventID, adminID int64, note string) (model.Event, error) {
		return h.moderation.Reject(r.Context(), eventID, adminID, note)
	})
}

// ConfirmDeletion soft-deletes an event whose removal was requested.
func (h *Handler) ConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, func(eventID, adminID int64, _ string) (model.Event, error) {
		return h.moderation.ConfirmDeletion(r.Context(), eventID, adminID)
	})
}

// DenyDeletion returns a deletion-requested event to the public timeline.
func (h *Handler) DenyDeletion(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, func(eventID, adminID int64, note string) (model.Event, error) {
		return h.moderation.DenyDeletion(r.Context(), eventID, adminID, note)
	})
}

// setContributorActive toggles a contributor account and replies with the
// updated record.
func (h *Handler) setContributorActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid contributor ID", nil)
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Contributor not found")
		} else {
			WriteInternalError(w, "Failed to retrieve contributor")
		}
		return
	}
	if user.Role != model.RoleContributor {
		WriteNotFound(w, "Contributor not found")
		return
	}

	if err := h.queries.SetUserActive(r.Context(), id, active); err != nil {
		slog.Error("failed to update contributor status", "error", err, "user_id", id)
		WriteInternalError(w, "Failed to update contributor")
		return
	}
	user.IsActive = active

	admin := middleware.GetUser(r)
	verb := "suspended"
	if active {
		verb = "activated"
	}
	slog.Info("contributor "+verb, "category", "user", "user_id", id, "admin_id", admin.ID)
	WriteSuccess(w, toUserResponse(user), nil)
}

// SuspendContributor deactivates a contributor account. Suspended
// contributors cannot log in or submit events.
func (h *Handler) SuspendContributor(w http.ResponseWriter, r *http.Request) {
	h.setContributorActive(w, r, false)
}

// ActivateContributor re-enables a suspended contributor account.
func (h *Handler) ActivateContributor(w http.ResponseWriter, r *http.Request) {
	h.setContributorActive(w, r, true)
}
