package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

type LobbyUseCase interface {
	CreateRoom(ctx context.Context, creator room.Member) (*room.Room, error)
	ListJoinable(ctx context.Context) []string
	JoinRoom(ctx context.Context, roomID string, member room.Member) (*room.Room, error)
	LeaveRoom(ctx context.Context, existingRoom *room.Room, member room.Member)
}

type roomRegistry interface {
	CreateRoom(ctx context.Context, creator room.Member) (*room.Room, error)
	Get(id string) (*room.Room, error)
	ListJoinable() []string
	RemoveIfEmpty(id string) bool
}

type lobbyUseCase struct {
	logger   *slog.Logger
	registry roomRegistry
}

func NewLobbyUseCase(logger *slog.Logger, registry roomRegistry) LobbyUseCase {
	return &lobbyUseCase{
		logger:   logger.With("component", "lobby"),
		registry: registry,
	}
}

func (that *lobbyUseCase) CreateRoom(ctx context.Context, creator room.Member) (*room.Room, error) {
	newRoom, err := that.registry.CreateRoom(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return newRoom, nil
}

func (that *lobbyUseCase) ListJoinable(_ context.Context) []string {
	return that.registry.ListJoinable()
}

func (that *lobbyUseCase) JoinRoom(_ context.Context, roomID string, member room.Member) (*room.Room, error) {
	existingRoom, err := that.registry.Get(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	if err = existingRoom.Join(member); err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	return existingRoom, nil
}

// LeaveRoom - unseats the member and drops the room once nobody is left in it.
func (that *lobbyUseCase) LeaveRoom(_ context.Context, existingRoom *room.Room, member room.Member) {
	if remaining := existingRoom.Leave(member); remaining > 0 {
		return
	}

	if !that.registry.RemoveIfEmpty(existingRoom.ID()) {
		that.logger.Debug("room kept after leave", "roomID", existingRoom.ID())
	}
}
