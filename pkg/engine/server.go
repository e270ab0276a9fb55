package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cohdi/cdimock/pkg/allocation"
	"github.com/cohdi/cdimock/pkg/certs"
	"github.com/cohdi/cdimock/pkg/config"
	"github.com/cohdi/cdimock/pkg/fixture"
	"github.com/cohdi/cdimock/pkg/logging"
)

// Server is the stub API server.
type Server struct {
	cfg        *config.ServerConfig
	log        *slog.Logger
	handler    *Handler
	router     *Router
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	running    bool
	done       chan struct{}
	serveErr   error
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates a Server for cfg. The configuration must not be modified
// afterwards.
func NewServer(cfg *config.ServerConfig, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}

	s := &Server{
		cfg: cfg,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	resolver := fixture.NewResolver(cfg.FixtureRoot, fixture.WithConfinement(cfg.ConfineFixtures))
	s.handler = NewHandler(resolver,
		WithHandlerLogger(s.log),
		WithToken(cfg.TokenResponse()),
		WithAllocationStore(allocation.NewStore(allocation.WithLogger(s.log))),
	)

	router, err := NewRouter(s.handler.Routes())
	if err != nil {
		return nil, err
	}
	s.router = router

	s.httpServer = &http.Server{
		Handler:      withMiddleware(router, s.log),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	return s, nil
}

// Handler returns the server's HTTP handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}

	if !s.cfg.TLS.Disabled {
		tlsConfig, err := s.tlsConfig()
		if err != nil {
			_ = ln.Close()
			return err
		}
		ln = tls.NewListener(ln, tlsConfig)
	}

	s.listener = ln
	s.running = true
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped unexpectedly", "error", err)
			s.mu.Lock()
			s.serveErr = err
			s.mu.Unlock()
		}
	}()

	s.log.Info("server started",
		"addr", ln.Addr().String(),
		"tls", !s.cfg.TLS.Disabled,
		"fixtureRoot", s.cfg.FixtureRoot,
	)
	return nil
}

// tlsConfig loads the configured key pair, generating one when auto TLS is on.
func (s *Server) tlsConfig() (*tls.Config, error) {
	var (
		pair tls.Certificate
		err  error
	)
	if s.cfg.TLS.Auto {
		var generated bool
		pair, generated, err = certs.Ensure(nil, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		if generated {
			s.log.Info("generated self-signed certificate", "cert", s.cfg.TLS.CertFile, "key", s.cfg.TLS.KeyFile)
		}
	} else {
		pair, err = certs.Load(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("tls: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Addr returns the bound address, or "" when the server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Done is closed when the server stops serving.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the error that stopped the server, if it stopped on its own.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serveErr
}

// Stop gracefully shuts the server down, waiting for in-flight requests until
// ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	done := s.done
	s.mu.Unlock()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-done
	s.log.Info("server stopped")
	return nil
}
