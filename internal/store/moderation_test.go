// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/testutil"
)

func TestListModerationLogsNewestFirst(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	queries := store.New(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "root", model.RoleAdmin, true)
	ev := testutil.CreateEvent(t, db, "Battle of Badr", 624, admin.ID)

	base := time.Now().UTC()
	for i, action := range []string{model.ActionCreated, model.ActionApproved, model.ActionDeletionRequested} {
		require.NoError(t, queries.CreateModerationLog(ctx, store.CreateModerationLogParams{
			EventID:   ev.ID,
			Action:    action,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	logs, err := queries.ListModerationLogs(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, model.ActionDeletionRequested, logs[0].Action)
	assert.Equal(t, model.ActionApproved, logs[1].Action)
	assert.Equal(t, model.ActionCreated, logs[2].Action)
}

func TestListModerationLogsBreaksTimestampTiesByID(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	queries := store.New(db)
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "root", model.RoleAdmin, true)
	ev := testutil.CreateEvent(t, db, "Battle of Badr", 624, admin.ID)

	at := time.Now().UTC()
	for _, action := range []string{model.ActionCreated, model.ActionUpdated} {
		require.NoError(t, queries.CreateModerationLog(ctx, store.CreateModerationLogParams{
			EventID:   ev.ID,
			Action:    action,
			CreatedAt: at,
		}))
	}

	logs, err := queries.ListModerationLogs(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ActionUpdated, logs[0].Action, "later insertions win timestamp ties")
}
