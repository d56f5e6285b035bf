package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// Server represents the HTTP server
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	log             *logger.Logger
}

// New creates a server listening on the configured address
func New(cfg *config.Config, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log.With("component", "server"),
	}
}

// Start listens and serves until the server is shut down
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after a graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("server listening", "addr", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, waiting at most the configured
// shutdown timeout for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	s.log.Info("server shutting down")
	return s.http.Shutdown(ctx)
}
