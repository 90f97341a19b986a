package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/todo-reminders/internal/api/middleware"
	"github.com/phrazzld/todo-reminders/internal/service/auth"
)

// NewRouter builds the HTTP routes. Everything under /api requires a bearer token.
func NewRouter(handler *TaskHandler, verifier auth.TokenVerifier, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware(log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	authMiddleware := middleware.NewAuthMiddleware(verifier)
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", handler.CreateTask)
			r.Get("/", handler.ListTasks)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.GetTask)
				r.Put("/", handler.UpdateTask)
				r.Delete("/", handler.DeleteTask)
				r.Put("/reminder", handler.SetReminder)
				r.Delete("/reminder", handler.ClearReminder)
			})
		})
	})

	return r
}
