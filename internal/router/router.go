package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/parisxmas/OxiEnroll/internal/auth"
	"github.com/parisxmas/OxiEnroll/internal/handler"
	mw "github.com/parisxmas/OxiEnroll/internal/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	Admin      *handler.AdminHandler
	Dashboard  *handler.DashboardHandler
	Submission *handler.SubmissionHandler
	Enrollment *handler.EnrollmentHandler
	Upload     *handler.UploadHandler
	Health     *handler.HealthHandler
}

func New(log *zap.Logger, jwtSecret string, rv auth.Revalidator, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Recovery(log))
	r.Use(mw.Logger(log))
	r.Use(mw.CORS)

	r.Get("/healthz", h.Health.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", h.Auth.Login)

		r.Post("/enrollments", h.Enrollment.Start)
		r.Route("/enrollments/{sessionId}", func(r chi.Router) {
			r.Get("/", h.Enrollment.View)
			r.Patch("/answers", h.Enrollment.Answer)
			r.Post("/next", h.Enrollment.Next)
			r.Post("/back", h.Enrollment.Back)
			r.Post("/confirm", h.Enrollment.Confirm)
			r.Post("/cancel", h.Enrollment.Cancel)
			r.Post("/uploads/{questionId}", h.Enrollment.Upload)
		})
		r.Get("/uploads/{uploadKey}", h.Upload.Download)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret, rv, log))

			r.Get("/auth/me", h.Auth.Me)
			r.Post("/auth/refresh", h.Auth.Refresh)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/dashboard", h.Dashboard.Dashboard)
				r.Put("/messages", h.Admin.SetMessages)

				r.Get("/programs", h.Admin.Programs)
				r.Put("/programs", h.Admin.SetPrograms)

				r.Get("/question-types", h.Admin.QuestionTypes)

				r.Get("/sections/{section}", h.Admin.Section)
				r.Put("/sections/{section}", h.Admin.ReplaceSection)
				r.Post("/sections/{section}/questions", h.Admin.AddQuestion)
				r.Put("/sections/{section}/questions/{questionId}", h.Admin.EditQuestion)
				r.Delete("/sections/{section}/questions/{questionId}", h.Admin.DeleteQuestion)
				r.Post("/sections/{section}/move", h.Admin.MoveQuestion)

				r.Get("/submissions", h.Submission.List)
				r.Get("/submissions/{subId}", h.Submission.Get)
			})
		})
	})

	return r
}
