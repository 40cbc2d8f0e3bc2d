package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestTimeout bounds the quick routes. Batch runs (/process and
// /scheduler/trigger) are synchronous and unbounded.
const RequestTimeout = 30 * time.Second

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/process", h.Process)
		r.Post("/scheduler/trigger", h.Trigger)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(RequestTimeout))

			r.Get("/preview", h.Preview)
			r.Get("/validate", h.Validate)
			r.Get("/status", h.Status)

			r.Get("/scheduler", h.SchedulerState)
			r.Post("/scheduler/start", h.StartScheduler)
			r.Post("/scheduler/stop", h.StopScheduler)
			r.Put("/scheduler/interval", h.UpdateInterval)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
