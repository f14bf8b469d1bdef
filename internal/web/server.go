// Package web exposes the attendance engine over HTTP.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/gallery"
	"github.com/rollcall-dev/rollcall/internal/ledger"
	"github.com/rollcall-dev/rollcall/internal/recognize"
	"github.com/rollcall-dev/rollcall/internal/reconciler"
	"github.com/rollcall-dev/rollcall/internal/stats"
	"github.com/rollcall-dev/rollcall/internal/web/middleware"
)

// Stores bundles the persistence interfaces the server works against.
type Stores struct {
	Students   database.StudentStore
	Subjects   database.SubjectStore
	Attendance database.AttendanceStore
	Settings   database.SettingStore
}

// Server represents the web server.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server

	stores     Stores
	encoder    recognize.Encoder
	gallery    *gallery.Index
	ledger     *ledger.Ledger
	reconciler *reconciler.Reconciler
	stats      *stats.Aggregator
	authToken  string
}

// NewServer creates a new web server.
func NewServer(cfg *config.Config, port int, host string, authToken string, stores Stores, encoder recognize.Encoder, idx *gallery.Index, rec *reconciler.Reconciler) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:     cfg,
		router:     r,
		stores:     stores,
		encoder:    encoder,
		gallery:    idx,
		ledger:     ledger.New(stores.Attendance),
		reconciler: rec,
		stats:      stats.New(stores.Attendance),
		authToken:  authToken,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(2 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // recognition uploads can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
