// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic for the event moderation workflow.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"
)

// ErrInvalidTransition is returned when an event is not in the status the
// requested moderation action expects.
var ErrInvalidTransition = errors.New("event status does not allow this action")

// ModerationService drives event lifecycle transitions and records each
// action in the moderation trail.
type ModerationService struct {
	queries *store.Queries
}

// NewModerationService creates a new ModerationService.
func NewModerationService(db *sql.DB) *ModerationService {
	return &ModerationService{
		queries: store.New(db),
	}
}

// transition moves an event from one of fromStatuses to toStatus and logs
// the action. It returns ErrInvalidTransition when the event's current
// status is not in fromStatuses, and the updated event on success.
func (s *ModerationService) transition(ctx context.Context, eventID, actorID int64, fromStatuses []string, toStatus, action, note string, approved bool) (model.Event, error) {
	event, err := s.queries.GetEventByID(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}

	allowed := false
	for _, st := range fromStatuses {
		if event.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.Event{}, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, action, event.Status)
	}

	now := time.Now()
	var approvedAt sql.NullTime
	if approved {
		approvedAt = sql.NullTime{Time: now, Valid: true}
	}

	if err := s.queries.UpdateEventStatus(ctx, store.UpdateEventStatusParams{
		ID:         eventID,
		Status:     toStatus,
		UpdatedBy:  actorID,
		UpdatedAt:  now,
		ApprovedAt: approvedAt,
	}); err != nil {
		return model.Event{}, err
	}

	s.logAction(ctx, eventID, actorID, action, note)

	event.Status = toStatus
	event.UpdatedBy = sql.NullInt64{Int64: actorID, Valid: true}
	event.UpdatedAt = now
	if approved {
		event.ApprovedAt = approvedAt
	}
	return event, nil
}

// Approve moves a pending event to APPROVED and stamps approved_at.
func (s *ModerationService) Approve(ctx context.Context, eventID, adminID int64) (model.Event, error) {
	return s.transition(ctx, eventID, adminID,
		[]string{model.StatusPending}, model.StatusApproved, model.ActionApproved, "", true)
}

// Reject moves a pending event to REJECTED with an optional note for the
// contributor.
func (s *ModerationService) Reject(ctx context.Context, eventID, adminID int64, note string) (model.Event, error) {
	return s.transition(ctx, eventID, adminID,
		[]string{model.StatusPending}, model.StatusRejected, model.ActionRejected, note, false)
}

// RequestDeletion flags an approved event for removal. The event stays
// visible until an admin confirms.
func (s *ModerationService) RequestDeletion(ctx context.Context, eventID, contributorID int64, note string) (model.Event, error) {
	return s.transition(ctx, eventID, contributorID,
		[]string{model.StatusApproved}, model.StatusDeletionRequested, model.ActionDeletionRequested, note, false)
}

// ConfirmDeletion soft-deletes an event whose removal was requested. The row
// is kept until the retention sweep purges it.
func (s *ModerationService) ConfirmDeletion(ctx context.Context, eventID, adminID int64) (model.Event, error) {
	return s.transition(ctx, eventID, adminID,
		[]string{model.StatusDeletionRequested}, model.StatusDeleted, model.ActionDeleted, "", false)
}

// DenyDeletion returns a deletion-requested event to APPROVED.
func (s *ModerationService) DenyDeletion(ctx context.Context, eventID, adminID int64, note string) (model.Event, error) {
	return s.transition(ctx, eventID, adminID,
		[]string{model.StatusDeletionRequested}, model.StatusApproved, model.ActionDeletionDenied, note, false)
}

// LogCreated records the initial moderation trail entry for a new event.
func (s *ModerationService) LogCreated(ctx context.Context, eventID, contributorID int64) {
	s.logAction(ctx, eventID, contributorID, model.ActionCreated, "")
}

// LogUpdated records a contributor edit in the moderation trail.
func (s *ModerationService) LogUpdated(ctx context.Context, eventID, contributorID int64) {
	s.logAction(ctx, eventID, contributorID, model.ActionUpdated, "")
}

// History returns an event's moderation trail, newest first.
func (s *ModerationService) History(ctx context.Context, eventID int64) ([]model.ModerationLog, error) {
	return s.queries.ListModerationLogs(ctx, eventID)
}

// logAction appends to the moderation trail. Trail failures are logged but
// never fail the transition itself.
func (s *ModerationService) logAction(ctx context.Context, eventID, actorID int64, action, note string) {
	var nullNote sql.NullString
	if note != "" {
		nullNote = sql.NullString{String: note, Valid: true}
	}

	err := s.queries.CreateModerationLog(ctx, store.CreateModerationLogParams{
		EventID:     eventID,
		Action:      action,
		PerformedBy: sql.NullInt64{Int64: actorID, Valid: true},
		Note:        nullNote,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		slog.Error("failed to write moderation log",
			"event_id", eventID, "action", action, "error", err)
	}
}
