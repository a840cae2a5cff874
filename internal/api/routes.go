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
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Post("/entries", h.AppendEntry)
			r.Get("/entries", h.ListEntries)
			r.Get("/entries/summary", h.EntriesSummary)

			r.Post("/goals", h.AppendGoal)
			r.Get("/goals", h.ListGoals)
			r.Post("/goals/milestones", h.AppendMilestone)
			r.Get("/goals/milestones", h.ListMilestones)
			r.Get("/goals/milestones/rollup", h.MilestoneRollup)
			r.Post("/goals/reviews", h.AppendGoalReview)
			r.Get("/goals/reviews", h.ListGoalReviews)
			r.Post("/goals/evaluations", h.AppendGoalEvaluation)
			r.Get("/goals/evaluations", h.ListGoalEvaluations)

			r.Post("/competencies", h.AppendCompetency)
			r.Get("/competencies", h.ListCompetencies)
			r.Post("/competencies/evaluations", h.AppendCompetencyEvaluation)
			r.Get("/competencies/evaluations", h.ListCompetencyEvaluations)

			r.Post("/mappings", h.AppendMapping)
			r.Get("/mappings", h.ListMappings)

			r.Post("/reminders", h.AppendReminderSetting)
			r.Get("/reminders", h.ListReminderSettings)
		})
	})

	return r
}
