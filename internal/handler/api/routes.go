// Copyright (c) 2025-2026 Tarikh al-Islam contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/Irshad-11/Tarikh-al-Islam/internal/middleware"
)

// Routes mounts the /api/v1 surface on a new router.
// Session-cookie authentication throughout; the auth endpoints are
// additionally rate limited per client IP.
func Routes(h *Handler, sessions *scs.SessionManager, db *sql.DB) http.Handler {
	authLimiter := middleware.NewAuthRateLimiter(5, 10)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.Status)

		// Auth session lifecycle
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware())
				r.Post("/login/", h.Login)
				r.Post("/register/", h.Register)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.LoadUser(sessions, db))
				r.Get("/user/", h.CurrentUser)
				r.Post("/logout/", h.Logout)
			})
		})

		// Events: public reads (role-scoped), contributor writes
		r.Route("/events", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.OptionalLoadUser(sessions, db))
				r.Get("/", h.ListEvents)
				r.Get("/{id}/", h.GetEvent)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.LoadUser(sessions, db))
				r.Use(middleware.RequireActiveContributor())
				r.Post("/", h.CreateEvent)
				r.Put("/{id}/", h.UpdateEvent)
				r.Post("/{id}/request-deletion/", h.RequestDeletion)
			})
		})

		// Admin moderation surface
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.LoadUser(sessions, db))
			r.Use(middleware.RequireAdmin())

			r.Get("/events/pending/", h.PendingEvents)
			r.Get("/events/deletions/", h.DeletionRequests)
			r.Get("/events/{id}/logs/", h.ModerationLogs)
			r.Post("/events/{id}/approve/", h.ApproveEvent)
			r.Post("/events/{id}/reject/", h.RejectEvent)
			r.Post("/events/{id}/delete/", h.ConfirmDeletion)
			r.Post("/events/{id}/deny-deletion/", h.DenyDeletion)

			r.Get("/contributors/", h.Contributors)
			r.Post("/contributors/{id}/suspend/", h.SuspendContributor)
			r.Post("/contributors/{id}/activate/", h.ActivateContributor)
		})
	})

	r.Get("/health", h.Health)
	return r
}
