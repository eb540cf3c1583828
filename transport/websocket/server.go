package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
	"github.com/rocketscienceinc/gomoku-backend/internal/stats"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	lobby  usecase.LobbyUseCase
	stats  *stats.Counters
	conf   config.Socket

	upgrader websocket.Upgrader
	// hijacked connections are not tracked by http.Server.Shutdown
	sessions sync.WaitGroup
}

func New(logger *slog.Logger, lobby usecase.LobbyUseCase, counters *stats.Counters, conf config.Socket) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		lobby:  lobby,
		stats:  counters,
		conf:   conf,
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	return server
}

// Handler - routes /ws to the upgrade handler. Useful for httptest.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

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

// Serve - serves on listener. Once ctx is done it returns only after the shutdown
// completed and every open session has left its room.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
		// hijacked connections watch this context to close themselves on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
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
	that.sessions.Wait()
	that.logger.Info("WebSocket server stopped")

	return nil
}

// serveWS - upgrades the connection and runs its session until the peer goes away.
func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	that.sessions.Add(1)
	defer that.sessions.Done()

	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		// the upgrader has already replied with an HTTP error
		log.Warn("failed to upgrade connection", "error", err, "remote", req.RemoteAddr)
		return
	}

	ctx := req.Context()

	client := newClient(that.logger, conn, that.stats, that.conf)
	router := session.NewRouter(that.logger, client, that.lobby)

	that.stats.IncConnectionsOpened()
	log.Info("WebSocket connection established", "connID", client.ID(), "remote", req.RemoteAddr)

	go client.writePump(ctx)

	router.Open()

	client.readPump(func(data []byte) {
		msg, decodeErr := protocol.Decode(data)
		if decodeErr != nil {
			client.Send(protocol.Rejected("", decodeErr))
			return
		}

		_ = router.Dispatch(ctx, msg)
	})

	// the room must be left even when the server is shutting down
	router.Close(context.WithoutCancel(ctx))
	client.close()

	that.stats.IncConnectionsClosed()
	log.Info("WebSocket connection closed", "connID", client.ID())
}

// checkOrigin - allows every origin when none are configured, and clients that send no Origin.
func (that *Server) checkOrigin(req *http.Request) bool {
	if len(that.conf.AllowedOrigins) == 0 {
		return true
	}

	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}

	return slices.Contains(that.conf.AllowedOrigins, origin)
}
