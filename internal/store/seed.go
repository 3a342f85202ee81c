package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/auth"
	"github.com/Irshad-11/Tarikh-al-Islam/internal/model"
)

// Default admin credentials
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
)

// Seed creates the initial admin account if no admin exists yet.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     DefaultAdminUsername,
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"username", user.Username,
		"password", DefaultAdminPassword,
	)

	return nil
}

// demoEvents are a handful of well-known events for local development.
var demoEvents = []struct {
	title       string
	description string
	startYear   int64
	importance  int64
}{
	{"Hijra to Medina", "The migration of the Prophet and his followers from Mecca to Medina, marking year one of the Islamic calendar.", 622, 5},
	{"Battle of Badr", "The first major battle between the Muslims of Medina and the Quraysh of Mecca.", 624, 5},
	{"Conquest of Mecca", "The largely peaceful conquest of Mecca by the Muslims.", 630, 5},
	{"Founding of Baghdad", "Caliph al-Mansur founds Baghdad as the new Abbasid capital.", 762, 4},
}

// SeedDemo inserts a set of approved demo events. It is a no-op when events
// already exist, so repeated startups stay idempotent.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	count, err := queries.CountEvents(ctx, EventFilter{})
	if err != nil {
		return fmt.Errorf("counting events: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		return fmt.Errorf("loading admin for demo seed: %w", err)
	}

	now := time.Now()
	for _, d := range demoEvents {
		event, err := queries.CreateEvent(ctx, CreateEventParams{
			Title:           d.title,
			DescriptionMD:   d.description,
			StartYearAD:     d.startYear,
			ImportanceLevel: d.importance,
			VisibilityRank:  1,
			CreatedBy:       admin.ID,
			CreatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("seeding demo event %q: %w", d.title, err)
		}
		if err := queries.UpdateEventStatus(ctx, UpdateEventStatusParams{
			ID:         event.ID,
			Status:     model.StatusApproved,
			UpdatedBy:  admin.ID,
			UpdatedAt:  now,
			ApprovedAt: sql.NullTime{Time: now, Valid: true},
		}); err != nil {
			return fmt.Errorf("approving demo event %q: %w", d.title, err)
		}
	}

	slog.Info("seeded demo events", "count", len(demoEvents))
	return nil
}
