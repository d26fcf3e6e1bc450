// Package metric provides Prometheus metrics for BotCore.
package metric

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seralo/botcore/internal/telemetry/logger"
)

// Namespace is the metric namespace shared by all BotCore collectors.
const Namespace = "botcore"

// NewRegistry creates a registry pre-populated with the Go runtime and
// process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry: reg,
	})
}

// Server serves the /metrics endpoint, plus any extra ops handlers
// registered before Start.
type Server struct {
	srv    *http.Server
	mux    *http.ServeMux
	logger logger.Logger
}

// NewServer creates a metrics HTTP server on addr.
func NewServer(addr string, reg *prometheus.Registry, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		mux:    mux,
		logger: log,
	}
}

// Handle registers an extra handler on the server mux. Must be called
// before Start.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Start begins serving in a goroutine. Errors other than a clean close
// are logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
