package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
	"github.com/nurulhuda/masjid-content/internal/metrics"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	validate   *validator.Validate

	// Services
	catalogService    driving.CatalogService
	searchService     driving.SearchService
	shareService      driving.ShareService
	cacheAdminService driving.CacheAdminService
	authService       driving.AuthService

	// Infrastructure
	cacheStore Pinger // readiness check
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	Version     string
	CORSOrigins []string
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	catalogService driving.CatalogService,
	searchService driving.SearchService,
	shareService driving.ShareService,
	cacheAdminService driving.CacheAdminService,
	authService driving.AuthService,
	cacheStore Pinger,
) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
		validate:          validator.New(validator.WithRequiredStructEnabled()),
		catalogService:    catalogService,
		searchService:     searchService,
		shareService:      shareService,
		cacheAdminService: cacheAdminService,
		authService:       authService,
		cacheStore:        cacheStore,
	}

	s.setupRoutes()

	// Outermost first: recovery sees panics from everything below it
	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.CORSOrigins).Handler(handler)
	handler = NewLoggingMiddleware(s.logger, s.metrics).Handler(handler)
	handler = NewRequestIDMiddleware().Handler(handler)
	handler = NewRecoveryMiddleware(s.logger).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.Handle("GET /metrics", s.metrics.Handler())

	// Content endpoints (public)
	s.router.HandleFunc("GET /api/v1/content/{type}", s.handleGetCatalog)
	s.router.HandleFunc("GET /api/v1/content/{type}/page", s.handleGetPage)
	s.router.HandleFunc("GET /api/v1/content/{type}/items/{id}", s.handleGetItem)
	s.router.HandleFunc("GET /api/v1/content/{type}/items/{id}/share", s.handleShareItem)

	// Search endpoints (public)
	s.router.HandleFunc("GET /api/v1/search", s.handleSearch)
	s.router.HandleFunc("GET /api/v1/search/suggest", s.handleSuggest)

	// Cache administration (admin-only)
	s.router.Handle("POST /api/v1/admin/cache/invalidate",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleInvalidateCache))))
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
