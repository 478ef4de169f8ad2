package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"sebasite/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type httpServer struct {
	bind   string
	logger *slog.Logger
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
	err      error
}

func newHTTPServer(bind string, handler http.Handler, logger *slog.Logger) *httpServer {
	return &httpServer{
		bind:   bind,
		logger: logger,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *httpServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	done := make(chan struct{})
	s.mu.Lock()
	s.listener = listener
	s.done = done
	s.err = nil
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.shutdown()
		case <-done:
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *httpServer) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
		_ = s.server.Close()
	}
}

func (s *httpServer) stop() {
	s.shutdown()
	s.mu.Lock()
	done := s.done
	s.listener = nil
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *httpServer) wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *httpServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
