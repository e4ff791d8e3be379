// Package http exposes the dashboard API plus the health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidewatch/redtide/internal/service"
	"github.com/tidewatch/redtide/internal/store"
)

// Server wraps the gin engine in an http.Server with sane timeouts.
type Server struct {
	httpServer *http.Server
	svc        *service.Service
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, svc *service.Service, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	engine.Use(gin.Recovery(), requestLogger(logger))

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/readyz", s.handleReady)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	{
		api.GET("/history", s.handleHistory)
		api.GET("/climatology", s.handleClimatology)
		api.GET("/predict", s.handlePredict)
		api.GET("/scatter", s.handleScatter)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// handleHistory answers GET /api/history?date=2005-08-18.
func (s *Server) handleHistory(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	result, err := s.svc.History(date)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleClimatology answers GET /api/climatology?month=8&day=15, or
// ?date=2025-08-15 whose year is ignored. Future dates are fine: the answer
// is a "normal year" estimate, not a lookup.
func (s *Server) handleClimatology(c *gin.Context) {
	month, day, err := parseMonthDay(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.svc.Climatology(month, day)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handlePredict answers GET /api/predict?temp=25.5&k=5.
func (s *Server) handlePredict(c *gin.Context) {
	temp, err := strconv.ParseFloat(c.Query("temp"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "temp must be a number"})
		return
	}

	k := 0
	if raw := c.Query("k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
			return
		}
	}

	result, err := s.svc.PredictFromTemperature(temp, k)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleScatter answers GET /api/scatter.
func (s *Server) handleScatter(c *gin.Context) {
	result, err := s.svc.Scatter()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseMonthDay(c *gin.Context) (time.Month, int, error) {
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return 0, 0, errors.New("date must be YYYY-MM-DD")
		}
		return date.Month(), date.Day(), nil
	}

	month, errM := strconv.Atoi(c.Query("month"))
	day, errD := strconv.Atoi(c.Query("day"))
	if errM != nil || errD != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, errors.New("month and day (or date) are required")
	}
	return time.Month(month), day, nil
}

// writeError maps the store's error taxonomy onto HTTP statuses: missing
// data blocks with 503, an empty query result is a retryable 404.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrDataUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNoMatchingRecords):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.logger.Error("query failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// requestLogger logs one line per request through the service logger.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
