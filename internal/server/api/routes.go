package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router wires the handlers and the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/health", s.HealthCheck)
	r.Get("/conversations", s.GetConversations)

	r.Route("/reputation", func(r chi.Router) {
		r.Get("/rank", s.GetRanks)
		r.Post("/score", s.GetScores)
		r.Get("/status", s.ReputationStatus)
		r.Delete("/cache", s.ClearReputation)
	})

	return r
}
