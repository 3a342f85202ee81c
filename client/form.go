// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"
)

// FormState is the lifecycle of an event submission form.
type FormState int

const (
	FormEmpty FormState = iota
	FormLoadingExisting
	FormEditable
	FormSubmitting
	FormError
)

func (s FormState) String() string {
	switch s {
	case FormEmpty:
		return "empty"
	case FormLoadingExisting:
		return "loading"
	case FormEditable:
		return "editable"
	case FormSubmitting:
		return "submitting"
	case FormError:
		return "error"
	default:
		return "unknown"
	}
}

// ContributorEventsPath is where a successful edit navigates to.
const ContributorEventsPath = "/contributor/events"

// ErrValidation means client-side validation blocked the submission;
// no request was sent. Field messages are in FieldErrors.
var ErrValidation = errors.New("form has validation errors")

// ErrNotEditable means the loaded event may not be edited by the
// current user: only the creator of a PENDING event may edit it.
var ErrNotEditable = errors.New("event is not editable")

// SourceRow is one editable source line. Key is allocated once at row
// creation and never changes, so inputs and error lookups stay bound
// to the row across add and remove operations regardless of its
// position in the slice.
type SourceRow struct {
	Key             string
	Title           string
	URL             string
	IsPrimarySource bool
}

// TagRow is one editable tag line with a stable key, same scheme as
// SourceRow.
type TagRow struct {
	Key  string
	Name string
}

// EventForm models one event submission: the scalar fields, the
// resizable source and tag rows, and the state machine around
// loading, validation, and submission. It is not safe for concurrent
// use; a form belongs to a single view.
type EventForm struct {
	client  *Client
	session *SessionStore
	eventID int64

	state       FormState
	errMsg      string
	fieldErrors map[string]string

	Title           string
	Summary         string
	DescriptionMD   string
	LocationName    string
	Latitude        *float64
	Longitude       *float64
	StartYearAD     *int64
	EndYearAD       *int64
	StartYearHijri  *int64
	EndYearHijri    *int64
	ImportanceLevel int64
	VisibilityRank  int64
	Sources         []SourceRow
	Tags            []TagRow
}

// NewEventForm returns a create-mode form, immediately editable with
// the standard defaults and one blank source and tag row.
func NewEventForm(c *Client, s *SessionStore) *EventForm {
	return &EventForm{
		client:          c,
		session:         s,
		state:           FormEditable,
		fieldErrors:     map[string]string{},
		ImportanceLevel: 3,
		VisibilityRank:  1,
		Sources:         []SourceRow{{Key: xid.New().String()}},
		Tags:            []TagRow{{Key: xid.New().String()}},
	}
}

// NewEditForm returns an edit-mode form for an existing event. The
// form stays in the loading state until Load has run.
func NewEditForm(c *Client, s *SessionStore, eventID int64) *EventForm {
	return &EventForm{
		client:      c,
		session:     s,
		eventID:     eventID,
		state:       FormLoadingExisting,
		fieldErrors: map[string]string{},
	}
}

// State returns the current form state.
func (f *EventForm) State() FormState { return f.state }

// ErrorMessage returns the user-facing message for the last failure.
func (f *EventForm) ErrorMessage() string { return f.errMsg }

// FieldErrors returns validation messages keyed by field name; source
// row errors use "sources.<row key>.<field>".
func (f *EventForm) FieldErrors() map[string]string { return f.fieldErrors }

// EventID returns the event being edited, or 0 in create mode.
func (f *EventForm) EventID() int64 { return f.eventID }

// Load fetches the existing event and pre-populates the form. Editing
// is permitted only when the event is PENDING and owned by the
// current user; the backend enforces the same rule, this check just
// keeps the form from rendering fields the server would reject. On a
// violation the form moves to the error state without being
// populated.
func (f *EventForm) Load(ctx context.Context) error {
	if f.eventID == 0 {
		return errors.New("load called on a create-mode form")
	}

	var ev Event
	if err := f.client.Get(ctx, fmt.Sprintf("/events/%d/", f.eventID), &ev); err != nil {
		f.state = FormError
		f.errMsg = userMessage(err)
		return err
	}

	user, ok := f.session.Current()
	if !ok || ev.Status != StatusPending || ev.CreatedBy == nil || *ev.CreatedBy != user.ID {
		f.state = FormError
		f.errMsg = "Only your own pending events can be edited."
		return ErrNotEditable
	}

	f.Title = ev.Title
	f.Summary = stringValue(ev.Summary)
	f.DescriptionMD = ev.DescriptionMD
	f.LocationName = stringValue(ev.LocationName)
	f.Latitude = ev.Latitude
	f.Longitude = ev.Longitude
	start := ev.StartYearAD
	f.StartYearAD = &start
	f.EndYearAD = ev.EndYearAD
	f.StartYearHijri = ev.StartYearHijri
	f.EndYearHijri = ev.EndYearHijri
	f.ImportanceLevel = ev.ImportanceLevel
	f.VisibilityRank = ev.VisibilityRank

	f.Sources = f.Sources[:0]
	for _, src := range ev.Sources {
		f.Sources = append(f.Sources, SourceRow{
			Key:             xid.New().String(),
			Title:           src.Title,
			URL:             src.URL,
			IsPrimarySource: src.IsPrimarySource,
		})
	}
	f.Tags = f.Tags[:0]
	for _, tag := range ev.Tags {
		f.Tags = append(f.Tags, TagRow{Key: xid.New().String(), Name: tag.Name})
	}
	f.ensureRows()

	f.state = FormEditable
	f.errMsg = ""
	return nil
}

// AddSource appends a blank source row and returns it.
func (f *EventForm) AddSource() SourceRow {
	row := SourceRow{Key: xid.New().String()}
	f.Sources = append(f.Sources, row)
	return row
}

// RemoveSource deletes the row with the given key. The remaining rows
// keep their keys and relative order. The form always keeps at least
// one row so there is something to type into.
func (f *EventForm) RemoveSource(key string) {
	kept := f.Sources[:0]
	for _, row := range f.Sources {
		if row.Key != key {
			kept = append(kept, row)
		}
	}
	f.Sources = kept
	f.ensureRows()
}

// AddTag appends a blank tag row and returns it.
func (f *EventForm) AddTag() TagRow {
	row := TagRow{Key: xid.New().String()}
	f.Tags = append(f.Tags, row)
	return row
}

// RemoveTag deletes the tag row with the given key.
func (f *EventForm) RemoveTag(key string) {
	kept := f.Tags[:0]
	for _, row := range f.Tags {
		if row.Key != key {
			kept = append(kept, row)
		}
	}
	f.Tags = kept
	f.ensureRows()
}

func (f *EventForm) ensureRows() {
	if len(f.Sources) == 0 {
		f.Sources = []SourceRow{{Key: xid.New().String()}}
	}
	if len(f.Tags) == 0 {
		f.Tags = []TagRow{{Key: xid.New().String()}}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type eventFieldRules struct {
	Title           string `json:"title" validate:"required,max=255"`
	Summary         string `json:"summary" validate:"max=500"`
	DescriptionMD   string `json:"description_md" validate:"required"`
	StartYearAD     *int64 `json:"start_year_ad" validate:"required"`
	ImportanceLevel int64  `json:"importance_level" validate:"gte=1,lte=5"`
	VisibilityRank  int64  `json:"visibility_rank" validate:"gte=1"`
}

type sourceRowRules struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"required,url"`
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be at most %s.", fe.Param())
	case "url":
		return "Must be a valid URL."
	default:
		return "Invalid value."
	}
}

func collectRuleErrors(err error, keyFor func(field string) string, into map[string]string) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return
	}
	for _, fe := range ve {
		into[keyFor(fe.Field())] = ruleMessage(fe)
	}
}

// Validate runs the client-side schema checks and records the
// resulting messages. An empty map means submission may proceed.
// Fully blank source rows are exempt; they are dropped from the
// payload anyway.
func (f *EventForm) Validate() map[string]string {
	errs := map[string]string{}

	rules := eventFieldRules{
		Title:           strings.TrimSpace(f.Title),
		Summary:         strings.TrimSpace(f.Summary),
		DescriptionMD:   strings.TrimSpace(f.DescriptionMD),
		StartYearAD:     f.StartYearAD,
		ImportanceLevel: f.ImportanceLevel,
		VisibilityRank:  f.VisibilityRank,
	}
	if err := validate.Struct(rules); err != nil {
		collectRuleErrors(err, func(field string) string { return field }, errs)
	}

	if f.StartYearAD != nil && f.EndYearAD != nil && *f.EndYearAD < *f.StartYearAD {
		errs["end_year_ad"] = "End year must not be before the start year."
	}

	for _, row := range f.Sources {
		if sourceRowBlank(row) {
			continue
		}
		src := sourceRowRules{
			Title: strings.TrimSpace(row.Title),
			URL:   strings.TrimSpace(row.URL),
		}
		if err := validate.Struct(src); err != nil {
			key := row.Key
			collectRuleErrors(err, func(field string) string {
				return "sources." + key + "." + field
			}, errs)
		}
	}

	f.fieldErrors = errs
	return errs
}

func sourceRowBlank(row SourceRow) bool {
	return strings.TrimSpace(row.Title) == "" && strings.TrimSpace(row.URL) == ""
}

// EventPayload is the request body for event create and update.
type EventPayload struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	DescriptionMD   string   `json:"description_md"`
	LocationName    string   `json:"location_name"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	StartYearAD     *int64   `json:"start_year_ad"`
	EndYearAD       *int64   `json:"end_year_ad"`
	StartYearHijri  *int64   `json:"start_year_hijri"`
	EndYearHijri    *int64   `json:"end_year_hijri"`
	ImportanceLevel int64    `json:"importance_level"`
	VisibilityRank  int64    `json:"visibility_rank"`
	Sources         []Source `json:"sources"`
	Tags            []string `json:"tags"`
}

// Payload builds the request body from the current form values:
// scalar fields trimmed, blank source rows dropped, tags trimmed and
// deduplicated case-insensitively with the first spelling kept.
func (f *EventForm) Payload() EventPayload {
	sources := make([]Source, 0, len(f.Sources))
	for _, row := range f.Sources {
		if sourceRowBlank(row) {
			continue
		}
		sources = append(sources, Source{
			Title:           strings.TrimSpace(row.Title),
			URL:             strings.TrimSpace(row.URL),
			IsPrimarySource: row.IsPrimarySource,
		})
	}

	tags := make([]string, 0, len(f.Tags))
	seen := make(map[string]bool, len(f.Tags))
	for _, row := range f.Tags {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		tags = append(tags, name)
	}

	return EventPayload{
		Title:           strings.TrimSpace(f.Title),
		Summary:         strings.TrimSpace(f.Summary),
		DescriptionMD:   strings.TrimSpace(f.DescriptionMD),
		LocationName:    strings.TrimSpace(f.LocationName),
		Latitude:        f.Latitude,
		Longitude:       f.Longitude,
		StartYearAD:     f.StartYearAD,
		EndYearAD:       f.EndYearAD,
		StartYearHijri:  f.StartYearHijri,
		EndYearHijri:    f.EndYearHijri,
		ImportanceLevel: f.ImportanceLevel,
		VisibilityRank:  f.VisibilityRank,
		Sources:         sources,
		Tags:            tags,
	}
}

// Submit validates and sends the event to the backend. The returned
// path is where the caller should navigate on success: the public
// timeline for a new event, the contributor's list for an edit. A
// validation failure sends no request. A backend failure returns the
// form to the editable state with entered data intact and the most
// specific server message recorded.
func (f *EventForm) Submit(ctx context.Context) (string, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return "", ErrValidation
	}

	payload := f.Payload()
	f.state = FormSubmitting

	var err error
	if f.eventID == 0 {
		err = f.client.Post(ctx, "/events/", payload, nil)
	} else {
		err = f.client.Put(ctx, fmt.Sprintf("/events/%d/", f.eventID), payload, nil)
	}

	f.state = FormEditable
	if err != nil {
		f.errMsg = userMessage(err)
		return "", err
	}

	f.errMsg = ""
	if f.eventID == 0 {
		return HomePath, nil
	}
	return ContributorEventsPath, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func userMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return "Something went wrong. Please try again."
}
