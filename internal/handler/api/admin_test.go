package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/testutil"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	testutil.CreateUser(t, ts.db, "amina", model.RoleContributor, true)

	// Anonymous
	resp := ts.do(http.MethodGet, "/api/v1/admin/events/pending/", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Contributor
	ts.login("amina")
	resp = ts.do(http.MethodGet, "/api/v1/admin/events/pending/", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPendingQueueAndApprove(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	testutil.CreateUser(t, ts.db, "admin", model.RoleAdmin, true)
	amina := testutil.CreateUser(t, ts.db, "amina", model.RoleContributor, true)
	event := testutil.CreateEvent(t, ts.db, "Battle of Badr", 624, amina.ID)

	ts.login("admin")

	resp := ts.do(http.MethodGet, "/api/v1/admin/events/pending/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var queue struct {
		Data []EventResponse `json:"data"`
	}
	decode(t, resp, &queue)
	require.Len(t, queue.Data, 1)

	resp = ts.do(http.MethodPost, "/api/v1/admin/events/"+itoa(event.ID)+"/approve/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Data EventResponse `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, model.StatusApproved, body.Data.Status)
	assert.NotNil(t, body.Data.ApprovedAt)

	// Queue is now empty
	resp = ts.do(http.MethodGet, "/api/v1/admin/events/pending/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &queue)
	assert.Empty(t, queue.Data)

	// Second approval conflicts
	resp = ts.do(http.MethodPost, "/api/v1/admin/events/"+itoa(event.ID)+"/approve/", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRejectWithNoteWritesLog(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	testutil.CreateUser(t, ts.db, "admin", model.RoleAdmin, true)
	amina := testutil.CreateUser(t, ts.db, "amina", model.RoleContributor, true)
	event := testutil.CreateEvent(t, ts.db, "Weakly sourced event", 700, amina.ID)

	ts.login("admin")

	resp := ts.do(http.MethodPost, "/api/v1/admin/events/"+itoa(event.ID)+"/reject/",
		map[string]string{"note": "insufficient sources"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Data EventResponse `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, model.StatusRejected, body.Data.Status)

	resp = ts.do(http.MethodGet, "/api/v1/admin/events/"+itoa(event.ID)+"/logs/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs struct {
		Data []ModerationLogResponse `json:"data"`
	}
	decode(t, resp, &logs)
	require.Len(t, logs.Data, 1)
	assert.Equal(t, model.ActionRejected, logs.Data[0].Action)
	require.NotNil(t, logs.Data[0].Note)
	assert.Equal(t, "insufficient sources", *logs.Data[0].Note)
}

func TestDeletionQueueConfirmAndDeny(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	admin := testutil.CreateUser(t, ts.db, "admin", model.RoleAdmin, true)
	amina := testutil.CreateUser(t, ts.db, "amina", model.RoleContributor, true)

	confirmed := testutil.CreateEvent(t, ts.db, "To be removed", 650, amina.ID)
	denied := testutil.CreateEvent(t, ts.db, "To be kept", 660, amina.ID)

	for _, id := range []int64{confirmed.ID, denied.ID} {
		approve(t, ts, id, admin.ID)
	}
	ts.login("amina")
	for _, id := range []int64{confirmed.ID, denied.ID} {
		resp := ts.do(http.MethodPost, "/api/v1/events/"+itoa(id)+"/request-deletion/", nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	ts.logout()

	ts.login("admin")
	resp := ts.do(http.MethodGet, "/api/v1/admin/events/deletions/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var queue struct {
		Data []EventResponse `json:"data"`
	}
	decode(t, resp, &queue)
	assert.Len(t, queue.Data, 2)

	resp = ts.do(http.MethodPost, "/api/v1/admin/events/"+itoa(confirmed.ID)+"/delete/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Data EventResponse `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, model.StatusDeleted, body.Data.Status)

	resp = ts.do(http.MethodPost, "/api/v1/admin/events/"+itoa(denied.ID)+"/deny-deletion/",
		map[string]string{"note": "event is well sourced"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, model.StatusApproved, body.Data.Status)
}

func TestContributorSuspendActivate(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	testutil.CreateUser(t, ts.db, "admin", model.RoleAdmin, true)
	amina := testutil.CreateUser(t, ts.db, "amina", model.RoleContributor, true)

	ts.login("admin")

	resp := ts.do(http.MethodGet, "/api/v1/admin/contributors/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data []UserResponse `json:"data"`
	}
	decode(t, resp, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "amina", list.Data[0].Username)

	resp = ts.do(http.MethodPost, "/api/v1/admin/contributors/"+itoa(amina.ID)+"/suspend/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Data UserResponse `json:"data"`
	}
	decode(t, resp, &body)
	assert.False(t, body.Data.IsActive)

	resp = ts.do(http.MethodPost, "/api/v1/admin/contributors/"+itoa(amina.ID)+"/activate/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &body)
	assert.True(t, body.Data.IsActive)
}

func TestSuspendRejectsAdminTarget(t *testing.T) {
	ts, cleanup := newTestServer(t)
	defer cleanup()

	admin := testutil.CreateUser(t, ts.db, "admin", model.RoleAdmin, true)
	ts.login("admin")

	resp := ts.do(http.MethodPost, "/api/v1/admin/contributors/"+itoa(admin.ID)+"/suspend/", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
