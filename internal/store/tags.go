// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
)

// GetTagBySlug returns the tag with the given slug.
func (q *Queries) GetTagBySlug(ctx context.Context, slug string) (model.Tag, error) {
	var t model.Tag
	err := q.db.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = ?`, slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

// GetOrCreateTag returns the tag with the given slug, creating it if absent.
func (q *Queries) GetOrCreateTag(ctx context.Context, name, slug string) (model.Tag, error) {
	tag, err := q.GetTagBySlug(ctx, slug)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, err
	}

	res, err := q.db.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		return model.Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{ID: id, Name: name, Slug: slug}, nil
}

// ListEventTags returns the tags attached to an event, ordered by name.
func (q *Queries) ListEventTags(ctx context.Context, eventID int64) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug FROM tags t
		JOIN event_tags et ON et.tag_id = t.id
		WHERE et.event_id = ? ORDER BY t.name ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ReplaceEventTags re-associates an event with the given tag IDs.
func (q *Queries) ReplaceEventTags(ctx context.Context, eventID int64, tagIDs []int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM event_tags WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_tags (event_id, tag_id) VALUES (?, ?)`, eventID, tagID,
		); err != nil {
			return err
		}
	}
	return nil
}
