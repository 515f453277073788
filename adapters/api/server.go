// Package api exposes the dosing engine over a JSON HTTP surface.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"coagdose/app"
	"coagdose/internal"
)

// Server represents the HTTP API for dosing calculations
type Server struct {
	router *chi.Mux
	doser  *app.DoseService
	log    *internal.Logger
}

// NewServer creates an API server around a dose service
func NewServer(doser *app.DoseService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router: chi.NewRouter(),
		doser:  doser,
		log:    logger.Named("api"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/dose", s.handleDose)
		r.Post("/sweep", s.handleSweep)
	})
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts serving on the given port
func (s *Server) ListenAndServe(port string) error {
	s.log.Info("listening on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}
