// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Metrics is the HTTP-facing part of the metrics registry
type Metrics interface {
	GinMiddleware() gin.HandlerFunc
	Handler() http.Handler
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address         string
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64

	// FilesDir is served read-only under FilesURL when FilesURL is a local path
	FilesDir string
	FilesURL string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:         "0.0.0.0:8080",
		Mode:            gin.ReleaseMode,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxUploadBytes:  10 << 20,
	}
}

// Services bundles the application services the server exposes
type Services struct {
	Documents service.DocumentService
	Templates service.TemplateService
	Artifacts service.ArtifactService
	Users     port.UserRepository

	// Health reports overall health and per-component detail; nil reports healthy
	Health HealthFunc
}

// HealthFunc reports whether the service is healthy along with component detail
type HealthFunc func() (healthy bool, detail interface{})

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	auth       *Authenticator
	metrics    Metrics
	logger     Logger
}

// NewServer creates a new HTTP server with the given services. metrics may be nil.
func NewServer(config ServerConfig, services Services, auth *Authenticator, metrics Metrics, logger Logger) *Server {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	router := gin.New()
	if config.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = config.MaxUploadBytes
	}

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		auth:     auth,
		metrics:  metrics,
		logger:   logger,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	if s.metrics != nil {
		s.router.Use(s.metrics.GinMiddleware())
	}

	// Logging middleware
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		// Log request details
		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.config.MaxUploadBytes, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	if s.config.FilesDir != "" && strings.HasPrefix(s.config.FilesURL, "/") {
		s.router.Static(s.config.FilesURL, s.config.FilesDir)
	}

	// API routes
	api := s.router.Group("/api", s.auth.Middleware())
	{
		api.GET("/users", handlers.ListUsers)
		api.GET("/inbox", handlers.ListInbox)

		// Documents
		api.GET("/documents", handlers.ListDocuments)
		api.POST("/documents", handlers.CreateDocument)
		api.GET("/documents/:id", handlers.GetDocument)
		api.PATCH("/documents/:id", handlers.EditContent)
		api.POST("/documents/:id/submit", handlers.SubmitDocument)
		api.POST("/documents/:id/approve", handlers.ApproveDocument)
		api.POST("/documents/:id/reject", handlers.RejectDocument)
		api.POST("/documents/:id/generate", handlers.GenerateArtifact)
		api.GET("/documents/:id/history", handlers.DocumentHistory)

		// Templates
		api.GET("/templates", handlers.ListTemplates)
		api.POST("/templates", handlers.UploadTemplate)
		api.GET("/templates/:id", handlers.GetTemplate)
		api.DELETE("/templates/:id", handlers.DeleteTemplate)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", s.config.Address)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return s.config.Address
}
