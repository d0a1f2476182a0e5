package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.AddGoal)
			r.Put("/", h.UpdateGoals)
			r.Put("/{id}", h.EditGoal)
			r.Delete("/{id}", h.DeleteGoal)
			r.Post("/{id}/archive", h.ArchiveGoal)
			r.Post("/{id}/restore", h.RestoreGoal)
			r.Get("/{id}/logs", h.GoalLogs)
		})

		r.Route("/intentions", func(r chi.Router) {
			r.Get("/", h.ListIntentions)
			r.Put("/", h.UpsertIntentions)
			r.Post("/{id}/append", h.AppendIntentionText)
		})

		r.Route("/outcomes", func(r chi.Router) {
			r.Get("/", h.ListOutcomes)
			r.Get("/{id}/intentions", h.OutcomeIntentions)
			r.Post("/review", h.ReviewOutcome)
		})
	})

	return r
}
