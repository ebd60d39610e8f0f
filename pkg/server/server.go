package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/pkg/logger"
)

// ReadyCheck reports whether the process is ready to serve
type ReadyCheck func() bool

// Server handles health checks, metrics, and mounted API routes
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *logger.Logger
	readyCheck ReadyCheck
}

// New creates a new observability server. A nil readyCheck reports ready
// unconditionally.
func New(addr string, readyCheck ReadyCheck, l *logger.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:        mux,
		logger:     l,
		readyCheck: readyCheck,
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

// Handle mounts an additional route. Must be called before Start.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readyCheck != nil && !s.readyCheck() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Start runs the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting observability server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
