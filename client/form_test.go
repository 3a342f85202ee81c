// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }

// loadedSession returns a store whose initial identity check has
// already resolved to the given user.
func loadedSession(u *User) *SessionStore {
	return &SessionStore{user: u, loading: false}
}

func TestCreateFormDefaults(t *testing.T) {
	form := NewEventForm(nil, loadedSession(&User{ID: 1}))

	assert.Equal(t, FormEditable, form.State())
	assert.Equal(t, int64(3), form.ImportanceLevel)
	assert.Equal(t, int64(1), form.VisibilityRank)

	require.Len(t, form.Sources, 1)
	assert.NotEmpty(t, form.Sources[0].Key)
	assert.Empty(t, form.Sources[0].Title)

	require.Len(t, form.Tags, 1)
	assert.NotEmpty(t, form.Tags[0].Key)
}

func TestSourceRowKeysSurviveRemoval(t *testing.T) {
	form := NewEventForm(nil, loadedSession(&User{ID: 1}))
	form.Sources = nil
	first := form.AddSource()
	second := form.AddSource()
	third := form.AddSource()

	form.RemoveSource(second.Key)

	require.Len(t, form.Sources, 2)
	assert.Equal(t, first.Key, form.Sources[0].Key)
	assert.Equal(t, third.Key, form.Sources[1].Key)
}

func TestRemovingLastRowLeavesABlankOne(t *testing.T) {
	form := NewEventForm(nil, loadedSession(&User{ID: 1}))
	only := form.Tags[0]

	form.RemoveTag(only.Key)

	require.Len(t, form.Tags, 1)
	assert.NotEqual(t, only.Key, form.Tags[0].Key)
	assert.Empty(t, form.Tags[0].Name)
}

func TestValidateRequiredFields(t *testing.T) {
	form := NewEventForm(nil, loadedSession(&User{ID: 1}))

	errs := form.Validate()
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "description_md")
	assert.Contains(t, errs, "start_year_ad")
	assert.NotContains(t, errs, "importance_level")
}

func TestValidateRanges(t *testing.T) {
	form := NewEventForm(nil, loadedSession(&User{ID: 1}))
	form.Title = "Battle of Badr"
	form.DescriptionMD = "The first major battle."
	form.StartYearAD = int64Ptr(624)
	form.EndYearAD = int64Ptr(622)
	form.ImportanceLevel = 9
	form.VisibilityRank = 0

	errs := form.Validate()
	assert.Contains(t, errs, "end_year_ad")
	assert.Contains(t, errs, "importance_level")
	assert.Contains(t, errs, "visibility_rank")
}

func TestValidateSourceRowsKeyedByRowID(t *testing.T) {
	form := NewEventForm(nil, loadedSession(&User{ID: 1}))
	form.Title = "Battle of Badr"
	form.DescriptionMD = "The first major battle."
	form.StartYearAD = int64Ptr(624)

	// A fully blank row is exempt; a half-filled one is not.
	form.Sources = nil
	blank := form.AddSource()
	form.AddSource()
	form.Sources[1].Title = "Sirat Ibn Hisham"
	form.Sources[1].URL = "not a url"
	bad := form.Sources[1]

	errs := form.Validate()
	assert.NotContains(t, errs, "sources."+blank.Key+".title")
	assert.Contains(t, errs, "sources."+bad.Key+".url")
}

func TestPayloadStripsBlankSourcesAndTags(t *testing.T) {
	form := NewEventForm(nil, loadedSession(&User{ID: 1}))
	form.Title = "Battle of Badr"
	form.DescriptionMD = "The first major battle."
	form.StartYearAD = int64Ptr(624)

	payload := form.Payload()
	assert.Empty(t, payload.Sources)
	assert.Empty(t, payload.Tags)
	assert.NotNil(t, payload.Sources, "sources must encode as [] not null")
	assert.NotNil(t, payload.Tags, "tags must encode as [] not null")
}

func TestPayloadTrimsAndDeduplicatesTags(t *testing.T) {
	form := NewEventForm(nil, loadedSession(&User{ID: 1}))
	form.Tags = nil
	for _, name := range []string{" Early Islam ", "early islam", "", "Quraysh"} {
		form.AddTag()
		form.Tags[len(form.Tags)-1].Name = name
	}

	payload := form.Payload()
	assert.Equal(t, []string{"Early Islam", "Quraysh"}, payload.Tags)
}

func TestSubmitBlockedByValidation(t *testing.T) {
	requests := 0
	c := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		writeData(w, http.StatusCreated, nil)
	}))

	form := NewEventForm(c, loadedSession(&User{ID: 1}))
	_, err := form.Submit(context.Background())

	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, requests, "validation failure must not send a request")
	assert.Equal(t, FormEditable, form.State())
}

func TestSubmitCreateNavigatesToTimeline(t *testing.T) {
	var got EventPayload
	c := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/events/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeData(w, http.StatusCreated, Event{ID: 1, Title: got.Title, Status: StatusPending})
	}))

	form := NewEventForm(c, loadedSession(&User{ID: 1}))
	form.Title = "Battle of Badr"
	form.DescriptionMD = "The first major battle between the Muslims and the Quraysh of Mecca."
	form.StartYearAD = int64Ptr(624)
	form.ImportanceLevel = 5

	target, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HomePath, target)
	assert.Equal(t, FormEditable, form.State())

	assert.Equal(t, "Battle of Badr", got.Title)
	require.NotNil(t, got.StartYearAD)
	assert.Equal(t, int64(624), *got.StartYearAD)
	assert.Nil(t, got.EndYearAD)
	assert.Equal(t, int64(5), got.ImportanceLevel)
}

func TestSubmitFailureReturnsToEditableWithDataIntact(t *testing.T) {
	c := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", map[string]string{
			"title": "An event with this title already exists",
		})
	}))

	form := NewEventForm(c, loadedSession(&User{ID: 1}))
	form.Title = "Battle of Badr"
	form.DescriptionMD = "The first major battle."
	form.StartYearAD = int64Ptr(624)

	_, err := form.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, FormEditable, form.State())
	assert.Equal(t, "An event with this title already exists", form.ErrorMessage())
	assert.Equal(t, "Battle of Badr", form.Title, "entered data must survive a failed submit")
}

func pendingBadrEvent(ownerID int64) Event {
	return Event{
		ID:              7,
		Title:           "Battle of Badr",
		Summary:         stringPtr("The first major battle."),
		DescriptionMD:   "A caravan raid that became a decisive engagement.",
		LocationName:    stringPtr("Badr"),
		Latitude:        float64Ptr(23.78),
		Longitude:       float64Ptr(38.79),
		StartYearAD:     624,
		StartYearHijri:  int64Ptr(2),
		ImportanceLevel: 5,
		VisibilityRank:  1,
		Status:          StatusPending,
		CreatedBy:       &ownerID,
		Sources: []Source{
			{ID: 11, Title: "Sirat Ibn Hisham", URL: "https://archive.example/sirah", IsPrimarySource: true},
		},
		Tags: []Tag{{ID: 3, Name: "Early Islam", Slug: "early-islam"}},
	}
}

func editBackend(t *testing.T, event Event) *Client {
	t.Helper()
	return newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/events/7/", r.URL.Path)
		writeData(w, http.StatusOK, event)
	}))
}

func TestEditLoadPopulatesForm(t *testing.T) {
	c := editBackend(t, pendingBadrEvent(1))
	form := NewEditForm(c, loadedSession(&User{ID: 1, Role: RoleContributor}), 7)
	assert.Equal(t, FormLoadingExisting, form.State())

	require.NoError(t, form.Load(context.Background()))

	assert.Equal(t, FormEditable, form.State())
	assert.Equal(t, "Battle of Badr", form.Title)
	require.Len(t, form.Sources, 1)
	assert.Equal(t, "Sirat Ibn Hisham", form.Sources[0].Title)
	assert.NotEmpty(t, form.Sources[0].Key)
	require.Len(t, form.Tags, 1)
	assert.Equal(t, "Early Islam", form.Tags[0].Name)
}

func TestEditLoadRejectsForeignEvent(t *testing.T) {
	c := editBackend(t, pendingBadrEvent(99))
	form := NewEditForm(c, loadedSession(&User{ID: 1, Role: RoleContributor}), 7)

	err := form.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotEditable)
	assert.Equal(t, FormError, form.State())
	assert.Empty(t, form.Title, "form must not be populated on an authorization failure")
}

func TestEditLoadRejectsNonPendingEvent(t *testing.T) {
	event := pendingBadrEvent(1)
	event.Status = StatusApproved
	c := editBackend(t, event)
	form := NewEditForm(c, loadedSession(&User{ID: 1, Role: RoleContributor}), 7)

	err := form.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotEditable)
	assert.Equal(t, FormError, form.State())
}

func TestEditPayloadMatchesLoadedRecord(t *testing.T) {
	event := pendingBadrEvent(1)
	c := editBackend(t, event)
	form := NewEditForm(c, loadedSession(&User{ID: 1, Role: RoleContributor}), 7)
	require.NoError(t, form.Load(context.Background()))

	payload := form.Payload()

	want := EventPayload{
		Title:           "Battle of Badr",
		Summary:         "The first major battle.",
		DescriptionMD:   "A caravan raid that became a decisive engagement.",
		LocationName:    "Badr",
		Latitude:        event.Latitude,
		Longitude:       event.Longitude,
		StartYearAD:     int64Ptr(624),
		StartYearHijri:  int64Ptr(2),
		ImportanceLevel: 5,
		VisibilityRank:  1,
		Sources: []Source{
			{Title: "Sirat Ibn Hisham", URL: "https://archive.example/sirah", IsPrimarySource: true},
		},
		Tags: []string{"Early Islam"},
	}
	assert.Equal(t, want, payload, "an unchanged edit must round-trip the record's editable fields")
}

func TestEditSubmitNavigatesToContributorList(t *testing.T) {
	event := pendingBadrEvent(1)
	var putPath string
	c := newStubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			putPath = r.URL.Path
			writeData(w, http.StatusOK, event)
			return
		}
		writeData(w, http.StatusOK, event)
	}))

	form := NewEditForm(c, loadedSession(&User{ID: 1, Role: RoleContributor}), 7)
	require.NoError(t, form.Load(context.Background()))

	target, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ContributorEventsPath, target)
	assert.Equal(t, "/api/v1/events/7/", putPath)
}
