// Package web serves the browser client: every page request goes through the
// navigation guard of the calling browser, and actions drive its session.
package web

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sensorwatch/sensorwatch/internal/api"
	"github.com/sensorwatch/sensorwatch/internal/config"
	"github.com/sensorwatch/sensorwatch/internal/metrics"
	"github.com/sensorwatch/sensorwatch/internal/router"
	"github.com/sensorwatch/sensorwatch/internal/storage"
	"github.com/sensorwatch/sensorwatch/internal/weather"
)

// Server represents the web client server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  *config.Config
	logger  zerolog.Logger
	clients *Registry
	backend *api.Client
	metrics *metrics.Manager
	promReg *prometheus.Registry
	weather *weather.Client
	version string
}

// New creates a new server instance backed by the configured database
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := storage.OpenDatabase(cfg.Web.DatabaseURL, zlog)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, db, zlog, version), nil
}

func newServer(cfg *config.Config, db *gorm.DB, zlog zerolog.Logger, version string) *Server {
	promReg := prometheus.NewRegistry()
	s := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		clients: NewRegistry(cfg, db, zlog),
		backend: api.New(cfg.API.URL, nil),
		metrics: metrics.NewManager("sensorwatch", "web", promReg),
		promReg: promReg,
		version: version,
	}

	if cfg.Weather.APIKey != "" {
		s.weather = weather.New(cfg.Weather.BaseURL, cfg.Weather.APIKey, 1, zlog)
	} else {
		zlog.Info().Msg("No weather API key - outdoor temperature disabled")
	}

	s.setupRouter()
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	if len(s.config.Web.CORSOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Web.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Location"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{})))

	// Pages, one per route of the table
	pages := s.router.Group("/", s.clientMiddleware(), s.guardMiddleware())
	for _, path := range router.Paths() {
		pages.GET(path, s.page)
	}

	// Unmatched paths go through the guard too
	s.router.NoRoute(s.clientMiddleware(), s.guardMiddleware(), s.notFound)

	actions := s.router.Group("/actions", s.clientMiddleware())
	{
		actions.POST("/login", s.login)
		actions.POST("/register", s.register)
		actions.POST("/logout", s.logout)

		authed := actions.Group("", s.requireSession())
		authed.PUT("/prefs", s.updatePrefs)
		authed.POST("/prefs/reset", s.resetPrefs)
		authed.POST("/onboarding", s.completeOnboarding)
		authed.PUT("/sensors/:id/name", s.renameSensor)
		authed.GET("/export", s.exportMeasurements)
	}
}

// loggingMiddleware logs every request with zerolog and records its metrics
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		s.metrics.GaugeRequests.Inc()
		defer s.metrics.GaugeRequests.Dec()

		c.Next()

		s.metrics.CounterRequests.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		s.metrics.HistRequestDuration.Observe(time.Since(start).Seconds())
		s.metrics.GaugeClients.Set(float64(s.clients.Len()))

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	backend, err := s.backend.Health(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Sensor API health check failed")
		backend = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"api":       backend,
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "sensorwatch-web",
		"version":   s.version,
		"clients":   s.clients.Len(),
	})
}

func (s *Server) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Web.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Web.Addr).Msg("Starting web client")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		s.Close()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.Close()
	s.logger.Info().Msg("Web client shutdown complete")
	return nil
}

// Close closes the database connection to flush WAL writes
func (s *Server) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	}
}
