package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/internal/metrics"
	"github.com/zenops/shieldscan/internal/verify"
	"github.com/zenops/shieldscan/pkg/logger"
	"github.com/zenops/shieldscan/pkg/types"
)

// SeriesLoader reads the full persisted series. Each request loads a fresh
// view so the server never holds a stale copy while a sync run appends.
type SeriesLoader interface {
	Load() (types.Series, error)
}

// Server exposes the series over HTTP: a JSON API for external renderers,
// an inline chart page, and the Prometheus endpoint.
type Server struct {
	router    *gin.Engine
	server    *http.Server
	logger    *logger.Logger
	config    *config.Config
	loader    SeriesLoader
	collector *metrics.Collector
}

// NewServer creates the API server.
func NewServer(cfg *config.Config, loader SeriesLoader, collector *metrics.Collector, logger *logger.Logger) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	s := &Server{
		router:    router,
		logger:    logger,
		config:    cfg,
		loader:    loader,
		collector: collector,
	}
	s.setupRoutes()

	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/ready", s.readyHandler)
	s.router.GET("/chart", s.chartHandler)
	s.router.GET(s.config.MetricsPath, gin.WrapH(promhttp.HandlerFor(
		s.collector.GetRegistry(),
		promhttp.HandlerOpts{ErrorLog: s.logger.StdLogger()},
	)))

	v1 := s.router.Group("/api/v1")
	v1.GET("/series", s.getSeries)
	v1.GET("/status", s.getStatus)
}

// Start runs the HTTP server until the listener fails or Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", zap.String("addr", addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server error: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown api server: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}

// Router returns the underlying gin engine, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyHandler(c *gin.Context) {
	if _, err := s.loader.Load(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// getSeries returns the persisted series, optionally starting from ?from=N.
func (s *Server) getSeries(c *gin.Context) {
	from, ok := fromParam(c)
	if !ok {
		return
	}

	series, err := s.loader.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":    from,
		"count":   len(series.From(from)),
		"entries": series.From(from),
	})
}

// getStatus reports the store's extent and contiguity.
func (s *Server) getStatus(c *gin.Context) {
	series, err := s.loader.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	last, haveLast := series.LastHeight()
	anomalies := verify.Verify(series)

	c.JSON(http.StatusOK, gin.H{
		"entries":     len(series),
		"last_height": last,
		"empty":       !haveLast,
		"anomalies":   len(anomalies),
	})
}

func fromParam(c *gin.Context) (int64, bool) {
	raw := c.DefaultQuery("from", "0")
	from, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || from < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid from parameter %q", raw)})
		return 0, false
	}
	return from, true
}

// ginLogger creates a gin middleware that logs requests through zap.
func ginLogger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		logger.Info("API request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("latency", latency.String()),
			zap.String("ip", c.ClientIP()))
	}
}
