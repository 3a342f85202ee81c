// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/store"
)

// Scheduler handles background jobs like purging soft-deleted events.
type Scheduler struct {
	db        *sql.DB
	cron      *cron.Cron
	logger    *slog.Logger
	retention time.Duration
}

// New creates a new scheduler instance. retention is how long DELETED events
// are kept before the purge job removes them.
func New(db *sql.DB, logger *slog.Logger, retention time.Duration) *Scheduler {
	return &Scheduler{
		db:        db,
		cron:      cron.New(),
		logger:    logger,
		retention: retention,
	}
}

// Start begins the scheduler with a nightly purge job.
func (s *Scheduler) Start() error {
	// Run daily at 03:00
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.purgeDeletedEvents(); err != nil {
			s.logger.Error("failed to purge deleted events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// purgeDeletedEvents removes events that have been soft-deleted longer than
// the retention window. Sources, tags, and moderation logs go with them via
// foreign key cascade.
func (s *Scheduler) purgeDeletedEvents() error {
	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().Add(-s.retention)
	purged, err := queries.PurgeDeletedEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if purged > 0 {
		s.logger.Info("purged deleted events", "count", purged, "cutoff", cutoff)
	}
	return nil
}
