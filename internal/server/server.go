// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkettner/comscore-go/internal/api"
	"github.com/mkettner/comscore-go/internal/config"
	"github.com/mkettner/comscore-go/internal/db"
	"github.com/mkettner/comscore-go/internal/ingest"
	"github.com/mkettner/comscore-go/internal/logger"
	"github.com/mkettner/comscore-go/internal/metrics"
	"github.com/mkettner/comscore-go/internal/middleware"
)

// Server represents the collector HTTP server
type Server struct {
	config        *config.Config
	db            *db.DB
	repos         *db.Repositories
	ingestService *ingest.Service
	registry      *prometheus.Registry
	router        *gin.Engine
	server        *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	ingestService := ingest.NewService(database, repos)

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	return &Server{
		config:        cfg,
		db:            database,
		repos:         repos,
		ingestService: ingestService,
		registry:      registry,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Middleware stack
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	// Prometheus scrape endpoint
	s.router.GET("/metrics", gin.WrapH(metrics.Handler(s.registry)))

	apiGroup := s.router.Group("/api")

	api.SetupHealthRoutes(apiGroup, s.db, s.repos.Sessions)
	api.SetupEventRoutes(apiGroup, s.ingestService)
	api.SetupSessionRoutes(apiGroup, s.ingestService)
}

// Router builds and returns the configured Gin handler. It is used by
// Start and by tests that mount the collector on an in-process listener.
func (s *Server) Router() *gin.Engine {
	if s.router == nil {
		s.setupRouter()
	}
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
