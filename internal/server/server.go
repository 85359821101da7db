// Package server provides the HTTP REST API over stored placement drives.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/placement-tracker/internal/db"
	"github.com/jonathan/placement-tracker/internal/pipeline"
	"github.com/jonathan/placement-tracker/internal/types"
)

// DriveStore is the read side of drive persistence the API serves from.
type DriveStore interface {
	GetDriveByID(ctx context.Context, id uuid.UUID) (*types.Drive, error)
	ListDrives(ctx context.Context, filters db.DriveFilters) ([]types.Drive, error)
	CountDrives(ctx context.Context, filters db.DriveFilters) (int, error)
	ListCompanies(ctx context.Context) ([]string, error)
	ListBatches(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// SyncRunner triggers one mailbox sync cycle on demand.
type SyncRunner interface {
	RunCycle(ctx context.Context) (types.BatchSummary, error)
}

// Processor runs a single submitted message through the extraction pipeline.
type Processor interface {
	ProcessMessage(ctx context.Context, msg types.RawMessage) pipeline.Outcome
}

// Config holds server configuration.
type Config struct {
	Addr      string
	JWTSecret string
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	store      DriveStore
	syncer     SyncRunner
	processor  Processor
	jwt        *JWTService
	logger     *slog.Logger
}

// New creates a server. The syncer and processor may be nil, in which case
// the admin endpoints report the feature as unavailable. Admin routes are
// registered only when a JWT secret is configured.
func New(cfg Config, store DriveStore, syncer SyncRunner, processor Processor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:     store,
		syncer:    syncer,
		processor: processor,
		logger:    logger,
	}
	if cfg.JWTSecret != "" {
		s.jwt = NewJWTService(cfg.JWTSecret)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/drives", s.handleListDrives)
	mux.HandleFunc("GET /api/v1/drives/{id}", s.handleGetDrive)
	mux.HandleFunc("GET /api/v1/filters/companies", s.handleListCompanies)
	mux.HandleFunc("GET /api/v1/filters/batches", s.handleListBatches)

	if s.jwt != nil {
		mux.HandleFunc("POST /api/v1/sync", s.requireAuth(s.handleTriggerSync))
		mux.HandleFunc("POST /api/v1/process", s.requireAuth(s.handleProcessMessage))
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // sync trigger waits for the cycle
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for requests. It blocks until the listener fails
// or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers for the dashboard frontend.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// handleHealth reports server and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
