// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
)

// CreateModerationLogParams describes one moderation action record.
type CreateModerationLogParams struct {
	EventID     int64
	Action      string
	PerformedBy sql.NullInt64
	Note        sql.NullString
	CreatedAt   time.Time
}

// CreateModerationLog appends an entry to an event's moderation trail.
func (q *Queries) CreateModerationLog(ctx context.Context, p CreateModerationLogParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO moderation_logs (event_id, action, performed_by, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.EventID, p.Action, p.PerformedBy, p.Note, p.CreatedAt,
	)
	return err
}

// ListModerationLogs returns an event's moderation trail, newest first.
func (q *Queries) ListModerationLogs(ctx context.Context, eventID int64) ([]model.ModerationLog, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, event_id, action, performed_by, note, created_at
		 FROM moderation_logs WHERE event_id = ? ORDER BY created_at DESC, id DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.ModerationLog
	for rows.Next() {
		var l model.ModerationLog
		if err := rows.Scan(&l.ID, &l.EventID, &l.Action, &l.PerformedBy, &l.Note, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CreateAuditEntryParams describes one audit log record.
type CreateAuditEntryParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Metadata  string
	CreatedAt time.Time
}

// CreateAuditEntry appends a record to the system audit log.
func (q *Queries) CreateAuditEntry(ctx context.Context, p CreateAuditEntryParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_log (level, category, message, user_id, ip_address, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Level, p.Category, p.Message, p.UserID, p.IPAddress, p.Metadata, p.CreatedAt,
	)
	return err
}
