// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// RowEffect is what a successful action does to its row in the local
// list.
type RowEffect int

const (
	// RemoveRow drops the row from the list.
	RemoveRow RowEffect = iota
	// SetRowStatus rewrites the row's status in place.
	SetRowStatus
)

// QueueAction describes one per-row action: where it posts, what it
// does to the list on success, and whether it needs an explicit
// confirmation step before any request is sent.
type QueueAction struct {
	Name         string
	Effect       RowEffect
	ResultStatus string
	NeedsConfirm bool
	AcceptsNote  bool

	path func(id int64) string
}

// QueueRow is one list entry, reduced to what the admin views show.
type QueueRow struct {
	ID     int64
	Label  string
	Status string
}

// Confirmation is a pending destructive action awaiting an explicit
// Confirm or Cancel. Note carries the optional free-text reason.
type Confirmation struct {
	RowID  int64
	Action string
	Note   string
}

// ModerationQueue drives one admin list view. The same engine backs
// the pending-events queue, the deletion-request queue, and the
// contributor list; only the fetch endpoint, row decoding, and action
// set differ. The local list is a cache reconciled against each
// confirmed action's effect; it is never re-fetched after a single
// action.
type ModerationQueue struct {
	client    *Client
	fetchPath string
	decode    func(json.RawMessage) ([]QueueRow, error)
	actions   map[string]QueueAction

	mu       sync.Mutex
	rows     []QueueRow
	inFlight map[int64]bool
	confirm  *Confirmation
}

func newQueue(c *Client, fetchPath string, decode func(json.RawMessage) ([]QueueRow, error), actions ...QueueAction) *ModerationQueue {
	byName := make(map[string]QueueAction, len(actions))
	for _, a := range actions {
		byName[a.Name] = a
	}
	return &ModerationQueue{
		client:    c,
		fetchPath: fetchPath,
		decode:    decode,
		actions:   byName,
		inFlight:  map[int64]bool{},
	}
}

func decodeEventRows(data json.RawMessage) ([]QueueRow, error) {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	rows := make([]QueueRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, QueueRow{ID: ev.ID, Label: ev.Title, Status: ev.Status})
	}
	return rows, nil
}

func decodeContributorRows(data json.RawMessage) ([]QueueRow, error) {
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	rows := make([]QueueRow, 0, len(users))
	for _, u := range users {
		status := "active"
		if !u.IsActive {
			status = "suspended"
		}
		rows = append(rows, QueueRow{ID: u.ID, Label: u.Username, Status: status})
	}
	return rows, nil
}

func adminEventPath(action string) func(id int64) string {
	return func(id int64) string {
		return fmt.Sprintf("/admin/events/%d/%s/", id, action)
	}
}

func adminContributorPath(action string) func(id int64) string {
	return func(id int64) string {
		return fmt.Sprintf("/admin/contributors/%d/%s/", id, action)
	}
}

// NewPendingEventsQueue returns the queue of events awaiting review.
// Approve acts immediately; reject asks for confirmation and carries
// an optional rejection note.
func NewPendingEventsQueue(c *Client) *ModerationQueue {
	return newQueue(c, "/admin/events/pending/", decodeEventRows,
		QueueAction{Name: "approve", Effect: RemoveRow, path: adminEventPath("approve")},
		QueueAction{Name: "reject", Effect: RemoveRow, NeedsConfirm: true, AcceptsNote: true, path: adminEventPath("reject")},
	)
}

// NewDeletionRequestsQueue returns the queue of deletion suggestions.
// Confirming the deletion requires the explicit confirmation step;
// denying it restores the event and acts immediately.
func NewDeletionRequestsQueue(c *Client) *ModerationQueue {
	return newQueue(c, "/admin/events/deletions/", decodeEventRows,
		QueueAction{Name: "delete", Effect: RemoveRow, NeedsConfirm: true, path: adminEventPath("delete")},
		QueueAction{Name: "deny-deletion", Effect: RemoveRow, path: adminEventPath("deny-deletion")},
	)
}

// NewContributorsQueue returns the contributor account list. Suspend
// and activate toggle the row's status in place rather than removing
// it.
func NewContributorsQueue(c *Client) *ModerationQueue {
	return newQueue(c, "/admin/contributors/", decodeContributorRows,
		QueueAction{Name: "suspend", Effect: SetRowStatus, ResultStatus: "suspended", NeedsConfirm: true, path: adminContributorPath("suspend")},
		QueueAction{Name: "activate", Effect: SetRowStatus, ResultStatus: "active", path: adminContributorPath("activate")},
	)
}

// Fetch loads the list from the backend, replacing the local rows.
func (q *ModerationQueue) Fetch(ctx context.Context) error {
	var data json.RawMessage
	if err := q.client.Get(ctx, q.fetchPath, &data); err != nil {
		return err
	}
	rows, err := q.decode(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", q.fetchPath, err)
	}

	q.mu.Lock()
	q.rows = rows
	q.mu.Unlock()
	return nil
}

// Rows returns a copy of the current list.
func (q *ModerationQueue) Rows() []QueueRow {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueueRow, len(q.rows))
	copy(out, q.rows)
	return out
}

// InFlight reports whether the given row has an action in progress.
// The flag is per row; other rows stay interactive.
func (q *ModerationQueue) InFlight(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight[id]
}

// Confirming returns the pending confirmation, if any.
func (q *ModerationQueue) Confirming() (Confirmation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.confirm == nil {
		return Confirmation{}, false
	}
	return *q.confirm, true
}

// Start triggers an action on a row. Actions flagged NeedsConfirm
// enter the confirmation step without sending anything; the caller
// follows up with SetNote, then Confirm or Cancel. All other actions
// execute immediately.
func (q *ModerationQueue) Start(ctx context.Context, id int64, actionName string) error {
	action, ok := q.actions[actionName]
	if !ok {
		return fmt.Errorf("unknown action %q", actionName)
	}

	q.mu.Lock()
	if q.inFlight[id] {
		q.mu.Unlock()
		return errors.New("action already in progress for this row")
	}
	if !q.hasRowLocked(id) {
		q.mu.Unlock()
		return fmt.Errorf("no row with id %d", id)
	}
	if action.NeedsConfirm {
		q.confirm = &Confirmation{RowID: id, Action: actionName}
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	return q.execute(ctx, id, action, "")
}

// SetNote records the free-text note on the pending confirmation.
func (q *ModerationQueue) SetNote(note string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.confirm != nil {
		q.confirm.Note = note
	}
}

// Confirm executes the pending confirmation.
func (q *ModerationQueue) Confirm(ctx context.Context) error {
	q.mu.Lock()
	if q.confirm == nil {
		q.mu.Unlock()
		return errors.New("nothing to confirm")
	}
	pending := *q.confirm
	q.confirm = nil
	q.mu.Unlock()

	return q.execute(ctx, pending.RowID, q.actions[pending.Action], pending.Note)
}

// Cancel abandons the pending confirmation. No request is sent and
// the row is untouched.
func (q *ModerationQueue) Cancel() {
	q.mu.Lock()
	q.confirm = nil
	q.mu.Unlock()
}

func (q *ModerationQueue) execute(ctx context.Context, id int64, action QueueAction, note string) error {
	q.mu.Lock()
	q.inFlight[id] = true
	q.mu.Unlock()

	var body any
	if note != "" && action.AcceptsNote {
		body = struct {
			Note string `json:"note"`
		}{note}
	}
	err := q.client.Post(ctx, action.path(id), body, nil)

	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, id)
	if err != nil {
		// Row stays; the caller surfaces the error and may retry.
		return err
	}

	switch action.Effect {
	case RemoveRow:
		kept := q.rows[:0]
		for _, row := range q.rows {
			if row.ID != id {
				kept = append(kept, row)
			}
		}
		q.rows = kept
	case SetRowStatus:
		for i := range q.rows {
			if q.rows[i].ID == id {
				q.rows[i].Status = action.ResultStatus
				break
			}
		}
	}
	return nil
}

func (q *ModerationQueue) hasRowLocked(id int64) bool {
	for _, row := range q.rows {
		if row.ID == id {
			return true
		}
	}
	return false
}
