package room

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/stats"
)

const Capacity = 2

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "ongoing"
	StatusFinished   Status = "finished"
)

// Member is a connection handle seated in a room. Send must not block.
type Member interface {
	ID() string
	Send(msg *protocol.Message)
}

type Options struct {
	Size      int
	WinLength int
	// StrictTurns binds every member to a mark and rejects moves out of turn.
	StrictTurns bool
}

type seat struct {
	member Member
	mark   entity.Mark
}

// Info is a read-only view of a room.
type Info struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
	Status  Status `json:"status"`
}

// Room owns one grid and up to two members. All methods are safe for concurrent use.
type Room struct {
	mu sync.Mutex

	id     string
	logger *slog.Logger
	stats  *stats.Counters
	opts   Options

	grid   *entity.Grid
	seats  []seat
	status Status
	closed bool
}

// New - creates a room with the creator seated as X and sends the creator the empty field.
func New(logger *slog.Logger, counters *stats.Counters, id string, creator Member, opts Options) (*Room, error) {
	grid, err := entity.NewGrid(opts.Size, opts.WinLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid: %w", err)
	}

	room := &Room{
		id:     id,
		logger: logger.With("component", "room", "roomID", id),
		stats:  counters,
		opts:   opts,
		grid:   grid,
		seats:  []seat{{member: creator, mark: entity.MarkX}},
		status: StatusWaiting,
	}

	room.sendSnapshot(creator)

	return room, nil
}

func (that *Room) ID() string {
	return that.id
}

// Join - seats the connection on the free mark and sends it the current field and result.
func (that *Room) Join(member Member) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, that.id)
	}

	if that.seatIndex(member) >= 0 {
		return nil
	}

	if len(that.seats) >= Capacity {
		return fmt.Errorf("%w: %s", apperror.ErrRoomFull, that.id)
	}

	mark := entity.MarkX
	if len(that.seats) > 0 {
		mark = that.seats[0].mark.Opponent()
	}

	that.seats = append(that.seats, seat{member: member, mark: mark})
	that.refreshStatus()

	that.logger.Info("member joined", "memberID", member.ID(), "mark", mark, "members", len(that.seats))

	that.sendSnapshot(member)

	return nil
}

// Leave - removes the connection and returns how many members remain. The grid is kept.
func (that *Room) Leave(member Member) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	idx := that.seatIndex(member)
	if idx < 0 {
		return len(that.seats)
	}

	that.seats = append(that.seats[:idx], that.seats[idx+1:]...)
	that.refreshStatus()

	that.logger.Info("member left", "memberID", member.ID(), "members", len(that.seats))

	return len(that.seats)
}

// HandleMove - plays the move atomically and broadcasts the field, and the result when the game ended.
// A rejected move changes nothing and is not broadcast.
func (that *Room) HandleMove(member Member, c entity.Coordinate) (entity.Result, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "HandleMove", "memberID", member.ID(), "cell", c.CellID())

	if err := that.checkMove(member); err != nil {
		that.stats.IncMovesRejected()
		log.Debug("move rejected", "error", err)
		return that.grid.Result(), err
	}

	mark, result, err := gomoku.PlayTurn(that.grid, c)
	if err != nil {
		that.stats.IncMovesRejected()
		log.Debug("move rejected", "error", err)
		return result, fmt.Errorf("failed to make move: %w", err)
	}

	that.stats.IncMovesAccepted()
	that.refreshStatus()

	that.broadcast(protocol.GameState(that.grid.Snapshot()))

	if result.IsDecisive() {
		that.stats.IncGamesFinished()
		that.broadcast(protocol.Winner(result.Message()))
		log.Info("game finished", "mark", mark, "result", result.Message())
	}

	return result, nil
}

// HandleReset - starts a new game on an empty field. Any member may reset.
func (that *Room) HandleReset(member Member) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.seatIndex(member) < 0 {
		return fmt.Errorf("%w: %s", apperror.ErrNotRoomMember, member.ID())
	}

	if err := that.grid.Reset(that.opts.Size, that.opts.WinLength); err != nil {
		return fmt.Errorf("failed to reset grid: %w", err)
	}

	that.refreshStatus()

	that.broadcast(protocol.HideResult())
	that.broadcast(protocol.GameState(that.grid.Snapshot()))

	that.logger.Info("game reset", "memberID", member.ID())

	return nil
}

// CloseIfEmpty - closes an empty room so that late joiners fail; reports whether the room is closed.
func (that *Room) CloseIfEmpty() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.seats) == 0 {
		that.closed = true
	}

	return that.closed
}

func (that *Room) MemberCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.seats)
}

// Joinable reports whether another connection could take a seat.
func (that *Room) Joinable() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return !that.closed && len(that.seats) < Capacity
}

func (that *Room) Status() Status {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// MarkOf returns the seat mark of the member, or MarkEmpty for strangers.
func (that *Room) MarkOf(member Member) entity.Mark {
	that.mu.Lock()
	defer that.mu.Unlock()

	idx := that.seatIndex(member)
	if idx < 0 {
		return entity.MarkEmpty
	}

	return that.seats[idx].mark
}

func (that *Room) Info() Info {
	that.mu.Lock()
	defer that.mu.Unlock()

	return Info{ID: that.id, Members: len(that.seats), Status: that.status}
}

func (that *Room) checkMove(member Member) error {
	idx := that.seatIndex(member)
	if idx < 0 {
		return fmt.Errorf("%w: %s", apperror.ErrNotRoomMember, member.ID())
	}

	// finished games are rejected by the grid itself
	if !that.opts.StrictTurns || that.grid.Result().IsDecisive() {
		return nil
	}

	if len(that.seats) < Capacity {
		return apperror.ErrGameIsNotStarted
	}

	if that.seats[idx].mark != that.grid.Turn() {
		return apperror.ErrNotYourTurn
	}

	return nil
}

func (that *Room) refreshStatus() {
	switch {
	case that.grid.Result().IsDecisive():
		that.status = StatusFinished
	case len(that.seats) == Capacity:
		that.status = StatusInProgress
	default:
		that.status = StatusWaiting
	}
}

func (that *Room) sendSnapshot(member Member) {
	member.Send(protocol.DrawGamefield(that.grid.Size()))
	member.Send(protocol.GameState(that.grid.Snapshot()))

	if result := that.grid.Result(); result.IsDecisive() {
		member.Send(protocol.Winner(result.Message()))
	}
}

func (that *Room) broadcast(msg *protocol.Message) {
	for _, s := range that.seats {
		s.member.Send(msg)
	}
}

func (that *Room) seatIndex(member Member) int {
	for i, s := range that.seats {
		if s.member.ID() == member.ID() {
			return i
		}
	}

	return -1
}
