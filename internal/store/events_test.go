// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/testutil"
)

func int64Ptr(v int64) *int64 { return &v }

// seedTimeline inserts a small set of events with known years and
// statuses for filter tests.
func seedTimeline(t *testing.T, db *sql.DB) (creator model.User, events map[string]model.Event) {
	t.Helper()
	ctx := context.Background()
	queries := store.New(db)

	creator = testutil.CreateUser(t, db, "amina", model.RoleContributor, true)
	events = map[string]model.Event{}

	for _, spec := range []struct {
		title  string
		year   int64
		status string
	}{
		{"Hijra to Medina", 622, model.StatusApproved},
		{"Battle of Badr", 624, model.StatusApproved},
		{"Conquest of Mecca", 630, model.StatusApproved},
		{"Founding of Baghdad", 762, model.StatusPending},
	} {
		ev := testutil.CreateEvent(t, db, spec.title, spec.year, creator.ID)
		if spec.status != model.StatusPending {
			require.NoError(t, queries.UpdateEventStatus(ctx, store.UpdateEventStatusParams{
				ID:        ev.ID,
				Status:    spec.status,
				UpdatedBy: creator.ID,
				UpdatedAt: time.Now().UTC(),
			}))
		}
		ev, err := queries.GetEventByID(ctx, ev.ID)
		require.NoError(t, err)
		events[spec.title] = ev
	}
	return creator, events
}

func titles(events []model.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

func TestListEventsStatusScoping(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	seedTimeline(t, db)
	queries := store.New(db)

	approved, err := queries.ListEvents(context.Background(), store.EventFilter{
		Statuses: []string{model.StatusApproved},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hijra to Medina", "Battle of Badr", "Conquest of Mecca"}, titles(approved))
}

func TestListEventsFilters(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	seedTimeline(t, db)
	queries := store.New(db)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter store.EventFilter
		want   []string
	}{
		{
			name:   "exact year",
			filter: store.EventFilter{Year: 624, YearSet: true},
			want:   []string{"Battle of Badr"},
		},
		{
			name:   "substring search",
			filter: store.EventFilter{Search: "Mecca"},
			want:   []string{"Conquest of Mecca"},
		},
		{
			name:   "year range",
			filter: store.EventFilter{StartYearGTE: int64Ptr(623), StartYearLTE: int64Ptr(700)},
			want:   []string{"Battle of Badr", "Conquest of Mecca"},
		},
		{
			name:   "descending ordering",
			filter: store.EventFilter{Ordering: "-start_year_ad"},
			want:   []string{"Founding of Baghdad", "Conquest of Mecca", "Battle of Badr", "Hijra to Medina"},
		},
		{
			name:   "limit and offset",
			filter: store.EventFilter{Limit: 2, Offset: 1},
			want:   []string{"Battle of Badr", "Conquest of Mecca"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := queries.ListEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestListEventsTagFilter(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	_, events := seedTimeline(t, db)
	queries := store.New(db)
	ctx := context.Background()

	tag, err := queries.GetOrCreateTag(ctx, "Early Islam", "early-islam")
	require.NoError(t, err)
	badr := events["Battle of Badr"]
	require.NoError(t, queries.ReplaceEventTags(ctx, badr.ID, []int64{tag.ID}))

	got, err := queries.ListEvents(ctx, store.EventFilter{TagSlug: "early-islam"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Battle of Badr"}, titles(got))

	none, err := queries.ListEvents(ctx, store.EventFilter{TagSlug: "abbasid"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCountEventsMatchesFilter(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	creator, _ := seedTimeline(t, db)
	queries := store.New(db)

	n, err := queries.CountEvents(context.Background(), store.EventFilter{
		Statuses:  []string{model.StatusApproved},
		CreatedBy: creator.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestOrderableField(t *testing.T) {
	assert.True(t, store.OrderableField("start_year_ad"))
	assert.True(t, store.OrderableField("-importance_level"))
	assert.False(t, store.OrderableField("title"))
	assert.False(t, store.OrderableField("id; DROP TABLE events"))
}

func TestReplaceEventSourcesPreservesOrder(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	queries := store.New(db)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "amina", model.RoleContributor, true)
	ev := testutil.CreateEvent(t, db, "Battle of Badr", 624, creator.ID)

	require.NoError(t, queries.ReplaceEventSources(ctx, ev.ID, []store.SourceInput{
		{Title: "Sirat Ibn Hisham", URL: "https://archive.example/sirah", IsPrimarySource: true},
		{Title: "Tarikh al-Tabari", URL: "https://archive.example/tabari"},
	}))

	sources, err := queries.ListEventSources(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Sirat Ibn Hisham", sources[0].Title)
	assert.True(t, sources[0].IsPrimarySource)
	assert.Equal(t, "Tarikh al-Tabari", sources[1].Title)

	// A second replace wipes the first set.
	require.NoError(t, queries.ReplaceEventSources(ctx, ev.ID, []store.SourceInput{
		{Title: "Al-Waqidi", URL: "https://archive.example/waqidi"},
	}))
	sources, err = queries.ListEventSources(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Al-Waqidi", sources[0].Title)
}

func TestPurgeDeletedEventsBefore(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	queries := store.New(db)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "amina", model.RoleContributor, true)
	old := testutil.CreateEvent(t, db, "Old removal", 700, creator.ID)
	fresh := testutil.CreateEvent(t, db, "Fresh removal", 701, creator.ID)

	for _, ev := range []model.Event{old, fresh} {
		require.NoError(t, queries.UpdateEventStatus(ctx, store.UpdateEventStatusParams{
			ID: ev.ID, Status: model.StatusDeleted, UpdatedBy: creator.ID, UpdatedAt: time.Now().UTC(),
		}))
	}
	_, err := db.ExecContext(ctx, `UPDATE events SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().AddDate(0, 0, -60), old.ID)
	require.NoError(t, err)

	removed, err := queries.PurgeDeletedEventsBefore(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = queries.GetEventByID(ctx, old.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = queries.GetEventByID(ctx, fresh.ID)
	assert.NoError(t, err)
}
