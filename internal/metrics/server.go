package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the Prometheus metrics HTTP handler. It collects all
// promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer creates a metrics server listening on addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving in a background goroutine. Listen errors are logged,
// not fatal: a recorder that records but cannot export metrics is still
// doing its job.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
