// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/auth"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates an in-memory test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	// An in-memory database exists per connection; a single connection
	// keeps every query on the same database.
	db.SetMaxOpenConns(1)

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// CreateUser inserts a user with the given role and returns it.
// The password for every test user is "changeme123!".
func CreateUser(t *testing.T, db *sql.DB, username, role string, active bool) model.User {
	t.Helper()

	hash, err := auth.HashPassword("changeme123!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	queries := store.New(db)
	user, err := queries.CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		Email:        username + "@test.local",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	if !active {
		if err := queries.SetUserActive(context.Background(), user.ID, false); err != nil {
			t.Fatalf("SetUserActive(%s): %v", username, err)
		}
		user.IsActive = false
	}
	return user
}

// CreateEvent inserts a minimal event owned by the given user and returns it.
func CreateEvent(t *testing.T, db *sql.DB, title string, startYear int64, createdBy int64) model.Event {
	t.Helper()

	queries := store.New(db)
	event, err := queries.CreateEvent(context.Background(), store.CreateEventParams{
		Title:           title,
		DescriptionMD:   "A test event description.",
		StartYearAD:     startYear,
		ImportanceLevel: 3,
		VisibilityRank:  1,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent(%s): %v", title, err)
	}
	return event
}
