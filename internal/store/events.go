// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
)

const eventColumns = `e.id, e.title, e.summary, e.description_md, e.location_name, e.latitude, e.longitude,
	e.start_year_ad, e.end_year_ad, e.start_year_hijri, e.end_year_hijri, e.importance_level,
	e.visibility_rank, e.status, e.created_by, e.updated_by, e.created_at, e.updated_at, e.approved_at`

func scanEvent(s interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	err := s.Scan(&e.ID, &e.Title, &e.Summary, &e.DescriptionMD, &e.LocationName, &e.Latitude, &e.Longitude,
		&e.StartYearAD, &e.EndYearAD, &e.StartYearHijri, &e.EndYearHijri, &e.ImportanceLevel,
		&e.VisibilityRank, &e.Status, &e.CreatedBy, &e.UpdatedBy, &e.CreatedAt, &e.UpdatedAt, &e.ApprovedAt)
	return e, err
}

// GetEventByID returns the event with the given ID regardless of status.
func (q *Queries) GetEventByID(ctx context.Context, id int64) (model.Event, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	return scanEvent(row)
}

// EventFilter describes the list/filter/sort surface of GET /events/.
// Zero values mean "not filtered". Visibility scoping (public vs. own vs. all)
// is expressed through Statuses and CreatedBy.
type EventFilter struct {
	Statuses         []string
	CreatedBy        int64  // 0 = any creator
	Year             int64  // exact start_year_ad match; 0 = unset
	YearSet          bool   // distinguishes year=0 (valid historical input is AD>0 but be explicit)
	Search           string // substring match on title, description_md, summary
	TagSlug          string
	StartYearGTE     *int64
	StartYearLTE     *int64
	LocationContains string
	Ordering         string // one of the orderable columns, optionally "-" prefixed
	Limit            int64
	Offset           int64
}

// orderable maps accepted ordering keys to SQL expressions.
var orderable = map[string]string{
	"start_year_ad":    "e.start_year_ad",
	"importance_level": "e.importance_level",
	"visibility_rank":  "e.visibility_rank",
}

// OrderableField reports whether key (without any "-" prefix) can be sorted on.
func OrderableField(key string) bool {
	_, ok := orderable[strings.TrimPrefix(key, "-")]
	return ok
}

func (f EventFilter) build() (where string, args []any) {
	var conds []string

	if len(f.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Statuses)), ",")
		conds = append(conds, "e.status IN ("+placeholders+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.CreatedBy != 0 {
		conds = append(conds, "e.created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if f.YearSet {
		conds = append(conds, "e.start_year_ad = ?")
		args = append(args, f.Year)
	}
	if f.Search != "" {
		conds = append(conds, "(e.title LIKE ? OR e.description_md LIKE ? OR e.summary LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	if f.TagSlug != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM event_tags et JOIN tags t ON t.id = et.tag_id WHERE et.event_id = e.id AND t.slug = ?)")
		args = append(args, f.TagSlug)
	}
	if f.StartYearGTE != nil {
		conds = append(conds, "e.start_year_ad >= ?")
		args = append(args, *f.StartYearGTE)
	}
	if f.StartYearLTE != nil {
		conds = append(conds, "e.start_year_ad <= ?")
		args = append(args, *f.StartYearLTE)
	}
	if f.LocationContains != "" {
		conds = append(conds, "e.location_name LIKE ?")
		args = append(args, "%"+f.LocationContains+"%")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (f EventFilter) orderClause() string {
	key := f.Ordering
	desc := strings.HasPrefix(key, "-")
	col, ok := orderable[strings.TrimPrefix(key, "-")]
	if !ok {
		// Default timeline ordering: chronological, most visible first
		return " ORDER BY e.start_year_ad ASC, e.visibility_rank ASC, e.id ASC"
	}
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir + ", e.id ASC"
}

// ListEvents returns events matching the filter.
func (q *Queries) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error) {
	where, args := f.build()
	query := `SELECT ` + eventColumns + ` FROM events e` + where + f.orderClause()
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEvents returns the number of events matching the filter.
func (q *Queries) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	where, args := f.build()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e`+where, args...).Scan(&n)
	return n, err
}

// CreateEventParams holds the writable fields of a new event.
type CreateEventParams struct {
	Title           string
	Summary         sql.NullString
	DescriptionMD   string
	LocationName    sql.NullString
	Latitude        sql.NullFloat64
	Longitude       sql.NullFloat64
	StartYearAD     int64
	EndYearAD       sql.NullInt64
	StartYearHijri  sql.NullInt64
	EndYearHijri    sql.NullInt64
	ImportanceLevel int64
	VisibilityRank  int64
	CreatedBy       int64
	CreatedAt       time.Time
}

// CreateEvent inserts a new PENDING event and returns the created record.
func (q *Queries) CreateEvent(ctx context.Context, p CreateEventParams) (model.Event, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO events (title, summary, description_md, location_name, latitude, longitude,
			start_year_ad, end_year_ad, start_year_hijri, end_year_hijri,
			importance_level, visibility_rank, status, created_by, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'PENDING', ?, ?, ?, ?)`,
		p.Title, p.Summary, p.DescriptionMD, p.LocationName, p.Latitude, p.Longitude,
		p.StartYearAD, p.EndYearAD, p.StartYearHijri, p.EndYearHijri,
		p.ImportanceLevel, p.VisibilityRank, p.CreatedBy, p.CreatedBy, p.CreatedAt, p.CreatedAt,
	)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return q.GetEventByID(ctx, id)
}

// UpdateEventParams holds the full replacement state for an event update.
type UpdateEventParams struct {
	ID              int64
	Title           string
	Summary         sql.NullString
	DescriptionMD   string
	LocationName    sql.NullString
	Latitude        sql.NullFloat64
	Longitude       sql.NullFloat64
	StartYearAD     int64
	EndYearAD       sql.NullInt64
	StartYearHijri  sql.NullInt64
	EndYearHijri    sql.NullInt64
	ImportanceLevel int64
	VisibilityRank  int64
	UpdatedBy       int64
	UpdatedAt       time.Time
}

// UpdateEvent performs a full replace of the editable fields.
func (q *Queries) UpdateEvent(ctx context.Context, p UpdateEventParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE events SET title = ?, summary = ?, description_md = ?, location_name = ?,
			latitude = ?, longitude = ?, start_year_ad = ?, end_year_ad = ?,
			start_year_hijri = ?, end_year_hijri = ?, importance_level = ?, visibility_rank = ?,
			updated_by = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Summary, p.DescriptionMD, p.LocationName,
		p.Latitude, p.Longitude, p.StartYearAD, p.EndYearAD,
		p.StartYearHijri, p.EndYearHijri, p.ImportanceLevel, p.VisibilityRank,
		p.UpdatedBy, p.UpdatedAt, p.ID,
	)
	return err
}

// UpdateEventStatusParams describes a status transition.
type UpdateEventStatusParams struct {
	ID         int64
	Status     string
	UpdatedBy  int64
	UpdatedAt  time.Time
	ApprovedAt sql.NullTime // set only when approving
}

// UpdateEventStatus moves an event to a new lifecycle status.
func (q *Queries) UpdateEventStatus(ctx context.Context, p UpdateEventStatusParams) error {
	if p.ApprovedAt.Valid {
		_, err := q.db.ExecContext(ctx,
			`UPDATE events SET status = ?, approved_at = ?, updated_by = ?, updated_at = ? WHERE id = ?`,
			p.Status, p.ApprovedAt, p.UpdatedBy, p.UpdatedAt, p.ID)
		return err
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE events SET status = ?, updated_by = ?, updated_at = ? WHERE id = ?`,
		p.Status, p.UpdatedBy, p.UpdatedAt, p.ID)
	return err
}

// PurgeDeletedEventsBefore permanently removes soft-deleted events whose last
// update is older than cutoff. Returns the number of rows removed.
func (q *Queries) PurgeDeletedEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM events WHERE status = 'DELETED' AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListEventSources returns the sources of an event in stored order.
func (q *Queries) ListEventSources(ctx context.Context, eventID int64) ([]model.EventSource, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, event_id, title, url, is_primary_source, position
		 FROM event_sources WHERE event_id = ? ORDER BY position ASC, id ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []model.EventSource
	for rows.Next() {
		var s model.EventSource
		if err := rows.Scan(&s.ID, &s.EventID, &s.Title, &s.URL, &s.IsPrimarySource, &s.Position); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// SourceInput is one source row to attach to an event.
type SourceInput struct {
	Title           string
	URL             string
	IsPrimarySource bool
}

// ReplaceEventSources deletes and re-inserts the sources of an event,
// preserving the provided order.
func (q *Queries) ReplaceEventSources(ctx context.Context, eventID int64, sources []SourceInput) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM event_sources WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	for i, s := range sources {
		if _, err := q.db.ExecContext(ctx,
			`INSERT INTO event_sources (event_id, title, url, is_primary_source, position) VALUES (?, ?, ?, ?, ?)`,
			eventID, s.Title, s.URL, s.IsPrimarySource, i,
		); err != nil {
			return err
		}
	}
	return nil
}
