package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger   *slog.Logger
	handlers *handlers
}

func New(logger *slog.Logger, rooms roomLister, stats counters) *Server {
	logger = logger.With("component", "rest")

	return &Server{
		logger: logger,
		handlers: &handlers{
			logger: logger,
			rooms:  rooms,
			stats:  stats,
		},
	}
}

// WithRoomIDs - reports the issued ids of a shared sequence in /stats.
func (that *Server) WithRoomIDs(ids roomIDCounter) *Server {
	that.handlers.ids = ids

	return that
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /stats", that.handlers.statsHandler)
	mux.HandleFunc("GET /rooms", that.handlers.roomsHandler)

	return mux
}

// Start - listens on port and serves until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	return that.Serve(ctx, listener)
}

// Serve - serves on listener. Once ctx is done it returns after the shutdown completed.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-shutdownDone
	that.logger.Info("HTTP server stopped")

	return nil
}
