// Package api implements the HTTP surface over SessionManager: the six
// operations named in spec §4.7, exposed as the five verbs of §6's
// /api/v1/chain endpoint.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/optionchain/simulator/internal/sessionmanager"
)

// Server wraps a chi.Mux bound to a SessionManager, with request logging
// and recovery middleware matching the rest of the codebase's style.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	manager *sessionmanager.Manager
	logger  *logrus.Logger
	addr    string
}

// Config carries the scalar settings NewServer needs beyond its
// collaborators.
type Config struct {
	Addr string
}

// NewServer wires manager behind a fresh router and returns a Server ready
// for Start. logger may be nil, in which case logrus.StandardLogger() is
// used.
func NewServer(cfg Config, manager *sessionmanager.Manager, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		router:  chi.NewRouter(),
		manager: manager,
		logger:  logger,
		addr:    cfg.Addr,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLoggerMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1/chain", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleGet)
		r.Patch("/", s.handleUpdate)
		r.Put("/", s.handleReplace)
		r.Delete("/", s.handleDelete)
	})
}

func (s *Server) requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)
		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Info("handled request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start listens and serves on cfg.Addr until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.server.Serve(ln)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
