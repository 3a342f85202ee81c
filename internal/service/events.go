// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/util"
)

// ErrNotEditable is returned when a contributor tries to edit an event that
// is not theirs or has already left the pending queue.
var ErrNotEditable = errors.New("event can no longer be edited")

// EventInput carries the submission payload for a new or edited event.
// Blank sources and tags are expected to be stripped before it reaches the
// service.
type EventInput struct {
	Title           string
	Summary         string
	DescriptionMD   string
	LocationName    string
	Latitude        *float64
	Longitude       *float64
	StartYearAD     int64
	EndYearAD       *int64
	StartYearHijri  *int64
	EndYearHijri    *int64
	ImportanceLevel int64
	VisibilityRank  int64
	Sources         []store.SourceInput
	Tags            []string
}

// EventService composes event rows with their sources and tags.
type EventService struct {
	db         *sql.DB
	queries    *store.Queries
	moderation *ModerationService
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, moderation *ModerationService) *EventService {
	return &EventService{
		db:         db,
		queries:    store.New(db),
		moderation: moderation,
	}
}

// Create inserts a new pending event with its sources and tags and records
// the CREATED moderation entry.
func (s *EventService) Create(ctx context.Context, in EventInput, contributorID int64) (model.Event, error) {
	event, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Title:           in.Title,
		Summary:         nullString(in.Summary),
		DescriptionMD:   in.DescriptionMD,
		LocationName:    nullString(in.LocationName),
		Latitude:        nullFloat(in.Latitude),
		Longitude:       nullFloat(in.Longitude),
		StartYearAD:     in.StartYearAD,
		EndYearAD:       nullInt(in.EndYearAD),
		StartYearHijri:  nullInt(in.StartYearHijri),
		EndYearHijri:    nullInt(in.EndYearHijri),
		ImportanceLevel: in.ImportanceLevel,
		VisibilityRank:  in.VisibilityRank,
		CreatedBy:       contributorID,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}

	if err := s.saveRelations(ctx, event.ID, in); err != nil {
		return model.Event{}, err
	}

	s.moderation.LogCreated(ctx, event.ID, contributorID)
	return event, nil
}

// Update replaces an event's fields, sources, and tags. Only the owning
// contributor may edit, and only while the event is still pending. Admins
// bypass both checks.
func (s *EventService) Update(ctx context.Context, eventID int64, in EventInput, actor *model.User) (model.Event, error) {
	event, err := s.queries.GetEventByID(ctx, eventID)
	if err != nil {
		return model.Event{}, err
	}

	if !actor.IsAdmin() {
		owns := event.CreatedBy.Valid && event.CreatedBy.Int64 == actor.ID
		if !owns || event.Status != model.StatusPending {
			return model.Event{}, ErrNotEditable
		}
	}

	err = s.queries.UpdateEvent(ctx, store.UpdateEventParams{
		ID:              eventID,
		Title:           in.Title,
		Summary:         nullString(in.Summary),
		DescriptionMD:   in.DescriptionMD,
		LocationName:    nullString(in.LocationName),
		Latitude:        nullFloat(in.Latitude),
		Longitude:       nullFloat(in.Longitude),
		StartYearAD:     in.StartYearAD,
		EndYearAD:       nullInt(in.EndYearAD),
		StartYearHijri:  nullInt(in.StartYearHijri),
		EndYearHijri:    nullInt(in.EndYearHijri),
		ImportanceLevel: in.ImportanceLevel,
		VisibilityRank:  in.VisibilityRank,
		UpdatedBy:       actor.ID,
		UpdatedAt:       time.Now(),
	})
	if err != nil {
		return model.Event{}, fmt.Errorf("update event: %w", err)
	}

	if err := s.saveRelations(ctx, eventID, in); err != nil {
		return model.Event{}, err
	}

	s.moderation.LogUpdated(ctx, eventID, actor.ID)
	return s.queries.GetEventByID(ctx, eventID)
}

// saveRelations replaces an event's sources and tags. Tag names are
// slugified and created on first use.
func (s *EventService) saveRelations(ctx context.Context, eventID int64, in EventInput) error {
	if err := s.queries.ReplaceEventSources(ctx, eventID, in.Sources); err != nil {
		return fmt.Errorf("save sources: %w", err)
	}

	tagIDs := make([]int64, 0, len(in.Tags))
	seen := make(map[string]bool)
	for _, name := range in.Tags {
		slug := util.Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		tag, err := s.queries.GetOrCreateTag(ctx, name, slug)
		if err != nil {
			return fmt.Errorf("save tag %q: %w", name, err)
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	if err := s.queries.ReplaceEventTags(ctx, eventID, tagIDs); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// Detail bundles an event with its relations for the detail endpoint.
type Detail struct {
	Event   model.Event
	Sources []model.EventSource
	Tags    []model.Tag
	Creator string // Username of the contributor, empty for system rows
}

// GetDetail loads an event with its sources, tags, and creator name.
func (s *EventService) GetDetail(ctx context.Context, eventID int64) (Detail, error) {
	event, err := s.queries.GetEventByID(ctx, eventID)
	if err != nil {
		return Detail{}, err
	}

	sources, err := s.queries.ListEventSources(ctx, eventID)
	if err != nil {
		return Detail{}, err
	}

	tags, err := s.queries.ListEventTags(ctx, eventID)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{Event: event, Sources: sources, Tags: tags}
	if event.CreatedBy.Valid {
		creator, err := s.queries.GetUserByID(ctx, event.CreatedBy.Int64)
		if err == nil {
			d.Creator = creator.Username
		} else if !errors.Is(err, sql.ErrNoRows) {
			return Detail{}, err
		}
	}
	return d, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
