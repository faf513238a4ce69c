package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"quiz-play-service/internal/config"
)

// NewRouter mounts the health check, the play socket and the completion endpoint.
func NewRouter(play *PlayHandler, completions *CompletionHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logFields)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws/play", play.ServeWS)
	r.Post("/api/completions", completions.Submit)
	return r
}

// logFields tags every log line of a request with its request id.
func logFields(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := config.ContextWithFields(r.Context(), logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
