// Package monitor serves health, run statistics and Prometheus metrics.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deusflow/trovebot/internal/logger"
	"github.com/deusflow/trovebot/internal/metrics"
)

type Server struct {
	e     *echo.Echo
	stats *metrics.Metrics
	log   *slog.Logger
}

// New builds the monitoring server. nil arguments fall back to the process
// globals.
func New(stats *metrics.Metrics, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	if stats == nil {
		stats = metrics.Global
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{e: echo.New(), stats: stats, log: logger.OrDefault(log)}
	s.e.HideBanner = true
	s.e.HidePort = true

	s.e.GET("/healthz", s.health)
	s.e.GET("/stats", s.statsHandler)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return s
}

func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("starting monitoring server", "addr", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	stats := s.stats.GetStats()

	status, code := "ok", http.StatusOK
	if !s.stats.Healthy() {
		status, code = "error", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (s *Server) statsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.stats.GetStats())
}
