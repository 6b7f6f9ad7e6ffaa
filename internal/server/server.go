package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/michaelbrown/switchboard/internal/config"
	"github.com/michaelbrown/switchboard/internal/registry"
	"github.com/michaelbrown/switchboard/internal/store"
)

// Server is the HTTP server for the Switchboard settings API.
type Server struct {
	cfg      *config.Config
	store    store.Store
	registry *registry.Registry
	events   *EventHub
	router   chi.Router
	http     *http.Server
}

// New creates a new Server.
func New(cfg *config.Config, st store.Store, reg *registry.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		registry: reg,
		events:   NewEventHub(),
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// WebSocket (no JSON content-type)
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(jsonContentType)

			// Tools
			r.Get("/tools", s.handleListTools)

			// Configuration documents
			r.Get("/config/{name}", s.handleGetConfig)
			r.Post("/config/{name}", s.handleSaveConfig)
			r.Get("/config/{name}/revisions", s.handleListRevisions)
			r.Get("/config/{name}/revisions/{revision}", s.handleGetRevision)
		})
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("Switchboard server starting on http://localhost%s", addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	s.events.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
