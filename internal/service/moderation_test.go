package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/testutil"
)

func TestModerationApprove(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, true)
	contributor := testutil.CreateUser(t, db, "amina", model.RoleContributor, true)
	event := testutil.CreateEvent(t, db, "Battle of Badr", 624, contributor.ID)

	svc := NewModerationService(db)
	ctx := context.Background()

	updated, err := svc.Approve(ctx, event.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
	assert.True(t, updated.ApprovedAt.Valid, "approved_at should be stamped")

	logs, err := svc.History(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionApproved, logs[0].Action)
}

func TestModerationApproveRejectsWrongStatus(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, true)
	contributor := testutil.CreateUser(t, db, "amina", model.RoleContributor, true)
	event := testutil.CreateEvent(t, db, "Battle of Badr", 624, contributor.ID)

	svc := NewModerationService(db)
	ctx := context.Background()

	_, err := svc.Approve(ctx, event.ID, admin.ID)
	require.NoError(t, err)

	// Already approved, second approval must fail
	_, err = svc.Approve(ctx, event.ID, admin.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestModerationRejectWithNote(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, true)
	contributor := testutil.CreateUser(t, db, "amina", model.RoleContributor, true)
	event := testutil.CreateEvent(t, db, "Battle of Uhud", 625, contributor.ID)

	svc := NewModerationService(db)
	ctx := context.Background()

	updated, err := svc.Reject(ctx, event.ID, admin.ID, "insufficient sources")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, updated.Status)
	assert.False(t, updated.ApprovedAt.Valid)

	logs, err := svc.History(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionRejected, logs[0].Action)
	require.True(t, logs[0].Note.Valid)
	assert.Equal(t, "insufficient sources", logs[0].Note.String)
}

func TestModerationDeletionFlow(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, true)
	contributor := testutil.CreateUser(t, db, "amina", model.RoleContributor, true)
	event := testutil.CreateEvent(t, db, "Conquest of Mecca", 630, contributor.ID)

	svc := NewModerationService(db)
	ctx := context.Background()

	// A pending event cannot be flagged for deletion
	_, err := svc.RequestDeletion(ctx, event.ID, contributor.ID, "")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = svc.Approve(ctx, event.ID, admin.ID)
	require.NoError(t, err)

	updated, err := svc.RequestDeletion(ctx, event.ID, contributor.ID, "duplicate entry")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeletionRequested, updated.Status)

	updated, err = svc.ConfirmDeletion(ctx, event.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeleted, updated.Status)

	logs, err := svc.History(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	// Newest first
	assert.Equal(t, model.ActionDeleted, logs[0].Action)
	assert.Equal(t, model.ActionDeletionRequested, logs[1].Action)
	assert.Equal(t, model.ActionApproved, logs[2].Action)
}

func TestModerationDenyDeletion(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, true)
	contributor := testutil.CreateUser(t, db, "amina", model.RoleContributor, true)
	event := testutil.CreateEvent(t, db, "Hijra to Medina", 622, contributor.ID)

	svc := NewModerationService(db)
	ctx := context.Background()

	_, err := svc.Approve(ctx, event.ID, admin.ID)
	require.NoError(t, err)
	_, err = svc.RequestDeletion(ctx, event.ID, contributor.ID, "")
	require.NoError(t, err)

	updated, err := svc.DenyDeletion(ctx, event.ID, admin.ID, "event is well sourced")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)

	logs, err := svc.History(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionDeletionDenied, logs[0].Action)
}
