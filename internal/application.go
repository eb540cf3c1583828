package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/registry"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
	"github.com/rocketscienceinc/gomoku-backend/internal/stats"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/rest"
	"github.com/rocketscienceinc/gomoku-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	sequence, closeSequence, err := newSequence(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closeSequence(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	counters := stats.New()
	roomRegistry := registry.New(logger, counters, sequence, room.Options{
		Size:        conf.Game.BoardSize,
		WinLength:   conf.Game.WinLength,
		StrictTurns: !conf.Game.PermissiveTurns,
	})
	lobbyUseCase := usecase.NewLobbyUseCase(logger, roomRegistry)

	log.Info("Game settings", "boardSize", conf.Game.BoardSize, "winLength", conf.Game.WinLength,
		"strictTurns", !conf.Game.PermissiveTurns, "roomIDs", conf.RoomIDs.Generator)

	restServer := rest.New(logger, roomRegistry, counters)
	if ids, ok := sequence.(*repository.RoomSequence); ok {
		restServer.WithRoomIDs(ids)
	}

	wsServer := websocket.New(logger, lobbyUseCase, counters, conf.Socket)

	var servers sync.WaitGroup
	errCh := make(chan error, 2)

	// run HTTP server
	servers.Add(1)
	go func() {
		defer servers.Done()

		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", httpErr)
		}
	}()

	// run Websocket server
	servers.Add(1)
	go func() {
		defer servers.Done()

		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			errCh <- fmt.Errorf("WebSocket server error: %w", wsErr)
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
		log.Error("Server failed, shutting down", "error", runErr)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	// both servers drain their connections before the app returns
	cancel()
	servers.Wait()

	return runErr
}

// newSequence - picks the room id generator. Only the redis generator holds a resource to close.
func newSequence(ctx context.Context, conf *config.Config) (registry.Sequence, func() error, error) {
	noop := func() error { return nil }

	switch conf.RoomIDs.Generator {
	case config.GeneratorUUID:
		return registry.NewUUIDSequence(), noop, nil
	case config.GeneratorRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRoomSequence(redisStorage.Connection, conf.RoomIDs.RedisKey), redisStorage.Close, nil
	default:
		return registry.NewCounterSequence(), noop, nil
	}
}
