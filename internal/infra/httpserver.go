package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer hosts the local viewer with graceful shutdown.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the viewer server. The write timeout is left unset:
// the state event stream holds its response open for the whole session and
// video downloads can outlast any fixed deadline.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}}
}

// Start blocks serving requests until Shutdown is called or the listener
// fails. A graceful shutdown is reported as nil.
func (s *HTTPServer) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, waiting at most until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
