package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
	"github.com/rocketscienceinc/gomoku-backend/internal/stats"
)

// Registry maps room ids to rooms and keeps creation order.
// Lock order is registry first, then room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
	order []string

	logger     *slog.Logger
	roomLogger *slog.Logger
	stats      *stats.Counters
	sequence   Sequence
	options    room.Options
}

func New(logger *slog.Logger, counters *stats.Counters, sequence Sequence, options room.Options) *Registry {
	return &Registry{
		rooms:      make(map[string]*room.Room),
		logger:     logger.With("component", "registry"),
		roomLogger: logger,
		stats:      counters,
		sequence:   sequence,
		options:    options,
	}
}

// CreateRoom - allocates a fresh id and registers a room with the creator seated.
func (that *Registry) CreateRoom(ctx context.Context, creator room.Member) (*room.Room, error) {
	id, err := that.sequence.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate room id: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, exists := that.rooms[id]; exists {
		return nil, fmt.Errorf("%w: %s", apperror.ErrDuplicateRoomID, id)
	}

	newRoom, err := room.New(that.roomLogger, that.stats, id, creator, that.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	that.rooms[id] = newRoom
	that.order = append(that.order, id)
	that.stats.IncRoomsCreated()

	that.logger.Info("room created", "roomID", id, "creatorID", creator.ID())

	return newRoom, nil
}

func (that *Registry) Get(id string) (*room.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	existingRoom, ok := that.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	return existingRoom, nil
}

// ListJoinable - ids of rooms with a free seat, in creation order.
func (that *Registry) ListJoinable() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	ids := make([]string, 0, len(that.order))
	for _, id := range that.order {
		if that.rooms[id].Joinable() {
			ids = append(ids, id)
		}
	}

	return ids
}

// List returns info about every room, in creation order.
func (that *Registry) List() []room.Info {
	that.mu.RLock()
	defer that.mu.RUnlock()

	infos := make([]room.Info, 0, len(that.order))
	for _, id := range that.order {
		infos = append(infos, that.rooms[id].Info())
	}

	return infos
}

// RemoveIfEmpty - drops the room only when nobody is seated; otherwise a no-op.
func (that *Registry) RemoveIfEmpty(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	existingRoom, ok := that.rooms[id]
	if !ok {
		return false
	}

	if !existingRoom.CloseIfEmpty() {
		return false
	}

	delete(that.rooms, id)
	that.order = slices.DeleteFunc(that.order, func(roomID string) bool { return roomID == id })
	that.stats.IncRoomsRemoved()

	that.logger.Info("room removed", "roomID", id)

	return true
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
