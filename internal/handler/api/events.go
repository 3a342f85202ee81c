// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/markdown"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/middleware"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/service"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/util"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200

	// timelineCacheTTL bounds staleness of the public timeline listing.
	timelineCacheTTL = 5 * time.Minute
)

// EventResponse is the API view of an event row.
type EventResponse struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Summary         *string  `json:"summary"`
	DescriptionMD   string   `json:"description_md"`
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
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	ApprovedAt      *string  `json:"approved_at"`
}

// EventDetailResponse adds relations and rendered description to an event.
type EventDetailResponse struct {
	EventResponse
	DescriptionHTML string              `json:"description_html"`
	Sources         []model.EventSource `json:"sources"`
	Tags            []model.Tag         `json:"tags"`
	CreatedByName   string              `json:"created_by_username,omitempty"`
}

func toEventResponse(e model.Event) EventResponse {
	resp := EventResponse{
		ID:              e.ID,
		Title:           e.Title,
		DescriptionMD:   e.DescriptionMD,
		StartYearAD:     e.StartYearAD,
		ImportanceLevel: e.ImportanceLevel,
		VisibilityRank:  e.VisibilityRank,
		Status:          e.Status,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
	if e.Summary.Valid {
		resp.Summary = &e.Summary.String
	}
	if e.LocationName.Valid {
		resp.LocationName = &e.LocationName.String
	}
	if e.Latitude.Valid {
		resp.Latitude = &e.Latitude.Float64
	}
	if e.Longitude.Valid {
		resp.Longitude = &e.Longitude.Float64
	}
	if e.EndYearAD.Valid {
		resp.EndYearAD = &e.EndYearAD.Int64
	}
	if e.StartYearHijri.Valid {
		resp.StartYearHijri = &e.StartYearHijri.Int64
	}
	if e.EndYearHijri.Valid {
		resp.EndYearHijri = &e.EndYearHijri.Int64
	}
	if e.CreatedBy.Valid {
		resp.CreatedBy = &e.CreatedBy.Int64
	}
	if e.ApprovedAt.Valid {
		s := e.ApprovedAt.Time.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	return resp
}

// scopedFilter applies role-based visibility to an event filter.
// Anonymous callers see approved events only; contributors see their own
// events in every status; admins see everything.
func scopedFilter(user *model.User) store.EventFilter {
	switch {
	case user == nil:
		return store.EventFilter{Statuses: []string{model.StatusApproved}}
	case user.IsAdmin():
		return store.EventFilter{}
	default:
		return store.EventFilter{CreatedBy: user.ID}
	}
}

// ListEvents returns events with filtering, sorting, and pagination.
// Query parameters follow the public API contract: year, search, tag,
// start_year_ad__gte, start_year_ad__lte, location_name__icontains, ordering,
// page, per_page.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	filter := scopedFilter(user)

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		year, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			WriteBadRequest(w, "Invalid year", map[string]string{"year": "must be an integer"})
			return
		}
		filter.Year = year
		filter.YearSet = true
	}
	filter.Search = strings.TrimSpace(q.Get("search"))
	if v := strings.TrimSpace(q.Get("tag")); v != "" {
		if !util.IsValidSlug(v) {
			WriteBadRequest(w, "Invalid tag", map[string]string{"tag": "must be a slug"})
			return
		}
		filter.TagSlug = v
	}
	filter.LocationContains = strings.TrimSpace(q.Get("location_name__icontains"))

	for param, dst := range map[string]**int64{
		"start_year_ad__gte": &filter.StartYearGTE,
		"start_year_ad__lte": &filter.StartYearLTE,
	} {
		if v := q.Get(param); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				WriteBadRequest(w, "Invalid "+param, map[string]string{param: "must be an integer"})
				return
			}
			*dst = &n
		}
	}

	if v := q.Get("ordering"); v != "" {
		if !store.OrderableField(v) {
			WriteBadRequest(w, "Invalid ordering", map[string]string{"ordering": "unsupported field"})
			return
		}
		filter.Ordering = v
	}

	page := 1
	perPage := defaultPerPage
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := q.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPerPage {
			perPage = n
		}
	}
	filter.Limit = int64(perPage)
	filter.Offset = int64((page - 1) * perPage)

	// Anonymous timeline reads are cacheable; everything else is per-user
	cacheKey := ""
	if user == nil && h.cache != nil {
		cacheKey = "timeline:" + r.URL.RawQuery
		if cached, err := h.cache.Get(r.Context(), cacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			_, _ = w.Write(cached)
			return
		}
	}

	events, err := h.queries.ListEvents(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}
	total, err := h.queries.CountEvents(r.Context(), filter)
	if err != nil {
		slog.Error("failed to count events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}

	items := make([]EventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toEventResponse(e))
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	resp := Response{
		Data: items,
		Meta: &Meta{Total: total, Page: page, PerPage: perPage, Pages: pages},
	}

	if cacheKey != "" {
		if body, err := json.Marshal(resp); err == nil {
			_ = h.cache.Set(r.Context(), cacheKey, body, timelineCacheTTL)
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetEvent returns one event with sources, tags, rendered description, and
// creator. Visibility follows the same role scoping as the list.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid event ID", nil)
		return
	}

	detail, err := h.events.GetDetail(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Event not found")
		} else {
			slog.Error("failed to load event", "error", err, "event_id", id)
			WriteInternalError(w, "Failed to retrieve event")
		}
		return
	}

	if !h.canSeeEvent(middleware.GetUser(r), detail.Event) {
		WriteNotFound(w, "Event not found")
		return
	}

	html, err := markdown.Render(detail.Event.DescriptionMD)
	if err != nil {
		slog.Error("failed to render event description", "error", err, "event_id", id)
		WriteInternalError(w, "Failed to retrieve event")
		return
	}

	resp := EventDetailResponse{
		EventResponse:   toEventResponse(detail.Event),
		DescriptionHTML: html,
		Sources:         detail.Sources,
		Tags:            detail.Tags,
		CreatedByName:   detail.Creator,
	}
	if resp.Sources == nil {
		resp.Sources = []model.EventSource{}
	}
	if resp.Tags == nil {
		resp.Tags = []model.Tag{}
	}
	WriteSuccess(w, resp, nil)
}

// canSeeEvent reports whether user may view the event at all.
func (h *Handler) canSeeEvent(user *model.User, e model.Event) bool {
	switch {
	case user == nil:
		return e.Status == model.StatusApproved
	case user.IsAdmin():
		return true
	default:
		if e.CreatedBy.Valid && e.CreatedBy.Int64 == user.ID {
			return true
		}
		return e.Status == model.StatusApproved
	}
}

// eventRequest is the submission payload for creating or updating an event.
type eventRequest struct {
	Title           string              `json:"title"`
	Summary         string              `json:"summary"`
	DescriptionMD   string              `json:"description_md"`
	LocationName    string              `json:"location_name"`
	Latitude        *float64            `json:"latitude"`
	Longitude       *float64            `json:"longitude"`
	StartYearAD     *int64              `json:"start_year_ad"`
	EndYearAD       *int64              `json:"end_year_ad"`
	StartYearHijri  *int64              `json:"start_year_hijri"`
	EndYearHijri    *int64              `json:"end_year_hijri"`
	ImportanceLevel int64               `json:"importance_level"`
	VisibilityRank  int64               `json:"visibility_rank"`
	Sources         []sourceRequest     `json:"sources"`
	Tags            []string            `json:"tags"`
}

type sourceRequest struct {
	Title           string `json:"title"`
	URL             string `json:"url"`
	IsPrimarySource bool   `json:"is_primary_source"`
}

// validate checks the payload and returns field errors keyed by field name.
func (req *eventRequest) validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(req.DescriptionMD) == "" {
		errs["description_md"] = "Description is required"
	}
	if req.StartYearAD == nil {
		errs["start_year_ad"] = "Start year is required"
	}
	if req.EndYearAD != nil && req.StartYearAD != nil && *req.EndYearAD < *req.StartYearAD {
		errs["end_year_ad"] = "End year must not precede start year"
	}
	if req.ImportanceLevel < 1 || req.ImportanceLevel > 5 {
		errs["importance_level"] = "Importance must be between 1 and 5"
	}
	if req.VisibilityRank < 1 {
		errs["visibility_rank"] = "Visibility rank must be positive"
	}
	for _, s := range req.Sources {
		if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.URL) != "" {
			errs["sources"] = "Each source needs a title"
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// toInput converts the request to a service input, stripping blank source
// and tag rows.
func (req *eventRequest) toInput() service.EventInput {
	in := service.EventInput{
		Title:           strings.TrimSpace(req.Title),
		Summary:         strings.TrimSpace(req.Summary),
		DescriptionMD:   req.DescriptionMD,
		LocationName:    strings.TrimSpace(req.LocationName),
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		EndYearAD:       req.EndYearAD,
		StartYearHijri:  req.StartYearHijri,
		EndYearHijri:    req.EndYearHijri,
		ImportanceLevel: req.ImportanceLevel,
		VisibilityRank:  req.VisibilityRank,
	}
	if req.StartYearAD != nil {
		in.StartYearAD = *req.StartYearAD
	}
	for _, s := range req.Sources {
		if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.URL) == "" {
			continue
		}
		in.Sources = append(in.Sources, store.SourceInput{
			Title:           strings.TrimSpace(s.Title),
			URL:             strings.TrimSpace(s.URL),
			IsPrimarySource: s.IsPrimarySource,
		})
	}
	for _, tag := range req.Tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		in.Tags = append(in.Tags, strings.TrimSpace(tag))
	}
	return in
}

// CreateEvent submits a new event into the pending queue.
// Routed behind RequireActiveContributor.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); errs != nil {
		WriteValidationError(w, errs)
		return
	}

	user := middleware.GetUser(r)
	event, err := h.events.Create(r.Context(), req.toInput(), user.ID)
	if err != nil {
		slog.Error("failed to create event", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Failed to create event")
		return
	}

	h.invalidateTimeline(r)
	slog.Info("event submitted", "event_id", event.ID, "user_id", user.ID)
	WriteCreated(w, toEventResponse(event))
}

// UpdateEvent replaces an event's editable fields. Contributors may only
// edit their own pending events; admins may edit anything.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid event ID", nil)
		return
	}

	var req eventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); errs != nil {
		WriteValidationError(w, errs)
		return
	}

	user := middleware.GetUser(r)
	event, err := h.events.Update(r.Context(), id, req.toInput(), user)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		WriteNotFound(w, "Event not found")
		return
	case errors.Is(err, service.ErrNotEditable):
		WriteForbidden(w, "Event can no longer be edited")
		return
	case err != nil:
		slog.Error("failed to update event", "error", err, "event_id", id)
		WriteInternalError(w, "Failed to update event")
		return
	}

	h.invalidateTimeline(r)
	WriteSuccess(w, toEventResponse(event), nil)
}

type noteRequest struct {
	Note string `json:"note"`
}

// RequestDeletion flags an approved event for removal. Only the owning
// contributor (or an admin) may request it.
func (h *Handler) RequestDeletion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid event ID", nil)
		return
	}

	var req noteRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	user := middleware.GetUser(r)
	event, err := h.queries.GetEventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Event not found")
		} else {
			WriteInternalError(w, "Failed to retrieve event")
		}
		return
	}
	if !user.IsAdmin() && !(event.CreatedBy.Valid && event.CreatedBy.Int64 == user.ID) {
		WriteForbidden(w, "Only the contributor who submitted this event may request its deletion")
		return
	}

	updated, err := h.moderation.RequestDeletion(r.Context(), id, user.ID, strings.TrimSpace(req.Note))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			WriteError(w, http.StatusConflict, "invalid_status", "Only approved events can be flagged for deletion", nil)
		} else {
			slog.Error("failed to request deletion", "error", err, "event_id", id)
			WriteInternalError(w, "Failed to request deletion")
		}
		return
	}

	h.invalidateTimeline(r)
	WriteSuccess(w, toEventResponse(updated), nil)
}

// prefixDeleter is implemented by caches that can drop keys by prefix.
type prefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// invalidateTimeline drops cached anonymous timeline listings after a write.
func (h *Handler) invalidateTimeline(r *http.Request) {
	if h.cache == nil {
		return
	}
	if pd, ok := h.cache.(prefixDeleter); ok {
		_ = pd.DeleteByPrefix(r.Context(), "timeline:")
		return
	}
	_ = h.cache.Clear(r.Context())
}
