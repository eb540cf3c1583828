package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

type State int

const (
	StateMenu State = iota
	StateRoomBrowser
	StateInRoom
)

func (s State) String() string {
	switch s {
	case StateMenu:
		return "menu"
	case StateRoomBrowser:
		return "room-browser"
	case StateInRoom:
		return "in-room"
	default:
		return "unknown"
	}
}

type lobby interface {
	CreateRoom(ctx context.Context, creator room.Member) (*room.Room, error)
	ListJoinable(ctx context.Context) []string
	JoinRoom(ctx context.Context, roomID string, member room.Member) (*room.Room, error)
	LeaveRoom(ctx context.Context, existingRoom *room.Room, member room.Member)
}

type handlerFunc func(ctx context.Context, msg *protocol.Message) error

// Router is the per-connection state machine. It is driven by the connection's
// single read loop and must not be shared between goroutines.
type Router struct {
	logger *slog.Logger
	conn   room.Member
	lobby  lobby

	state State
	room  *room.Room

	handlers map[string]handlerFunc
}

func NewRouter(logger *slog.Logger, conn room.Member, lobby lobby) *Router {
	router := &Router{
		logger:   logger.With("component", "session", "connID", conn.ID()),
		conn:     conn,
		lobby:    lobby,
		state:    StateMenu,
		handlers: make(map[string]handlerFunc),
	}

	router.handlers[protocol.ActionCreateRoom] = router.handleCreateRoom
	router.handlers[protocol.ActionSelectRoom] = router.handleSelectRoom
	router.handlers[protocol.ActionJoinRoom] = router.handleJoinRoom
	router.handlers[protocol.ActionExitRooms] = router.handleExitRooms
	router.handlers[protocol.ActionBackToMenu] = router.handleExitRooms
	router.handlers[protocol.ActionExitRoom] = router.handleExitRoom
	router.handlers[protocol.ActionExitGamefield] = router.handleExitGamefield
	router.handlers[protocol.ActionPressedCell] = router.handlePressedCell
	router.handlers[protocol.ActionNewGame] = router.handleNewGame

	return router
}

// Open - greets a fresh connection with the menu.
func (that *Router) Open() {
	that.conn.Send(protocol.DisplayMenu())
}

// Dispatch - runs the handler of the inbound action. A failed action is reported
// to this connection only with a rejected message.
func (that *Router) Dispatch(ctx context.Context, msg *protocol.Message) error {
	log := that.logger.With("method", "Dispatch", "action", msg.Action, "state", that.state.String())

	handler, ok := that.handlers[msg.Action]
	if !ok {
		err := fmt.Errorf("%w: %q", apperror.ErrUnknownAction, msg.Action)
		log.Debug("action rejected", "error", err)
		that.conn.Send(protocol.Rejected(msg.Action, err))
		return err
	}

	if err := handler(ctx, msg); err != nil {
		log.Debug("action rejected", "error", err)
		that.conn.Send(protocol.Rejected(msg.Action, err))
		return err
	}

	return nil
}

// Close - leaves the current room, if any. Called once the connection is gone.
func (that *Router) Close(ctx context.Context) {
	if that.state == StateInRoom {
		that.leaveRoom(ctx)
	}
}

func (that *Router) State() State {
	return that.state
}

// RoomID returns the id of the room the connection sits in, or "".
func (that *Router) RoomID() string {
	if that.room == nil {
		return ""
	}

	return that.room.ID()
}

func (that *Router) handleCreateRoom(ctx context.Context, msg *protocol.Message) error {
	if err := that.expectState(msg.Action, StateMenu, StateRoomBrowser); err != nil {
		return err
	}

	if that.state == StateRoomBrowser {
		that.conn.Send(protocol.HideRoomList())
	}
	that.conn.Send(protocol.HideMenu())

	newRoom, err := that.lobby.CreateRoom(ctx, that.conn)
	if err != nil {
		that.state = StateMenu
		that.conn.Send(protocol.DisplayMenu())
		return fmt.Errorf("failed to create room: %w", err)
	}

	that.enterRoom(newRoom)

	return nil
}

func (that *Router) handleSelectRoom(ctx context.Context, msg *protocol.Message) error {
	if err := that.expectState(msg.Action, StateMenu, StateRoomBrowser); err != nil {
		return err
	}

	if that.state == StateMenu {
		that.conn.Send(protocol.HideMenu())
	}

	that.state = StateRoomBrowser
	that.conn.Send(protocol.RoomList(that.lobby.ListJoinable(ctx)))

	return nil
}

func (that *Router) handleJoinRoom(ctx context.Context, msg *protocol.Message) error {
	if err := that.expectState(msg.Action, StateMenu, StateRoomBrowser); err != nil {
		return err
	}

	roomID, err := protocol.DecodeRoomID(msg.Payload)
	if err != nil {
		return err
	}

	if that.state == StateMenu {
		that.conn.Send(protocol.HideMenu())
		that.state = StateRoomBrowser
	}

	existingRoom, err := that.lobby.JoinRoom(ctx, roomID, that.conn)
	if err != nil {
		that.conn.Send(protocol.RoomList(that.lobby.ListJoinable(ctx)))
		return fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	that.enterRoom(existingRoom)

	return nil
}

func (that *Router) handleExitRooms(_ context.Context, msg *protocol.Message) error {
	if err := that.expectState(msg.Action, StateRoomBrowser); err != nil {
		return err
	}

	that.state = StateMenu
	that.conn.Send(protocol.HideRoomList())
	that.conn.Send(protocol.DisplayMenu())

	return nil
}

func (that *Router) handleExitRoom(ctx context.Context, msg *protocol.Message) error {
	if err := that.expectState(msg.Action, StateInRoom); err != nil {
		return err
	}

	roomID, err := protocol.DecodeRoomID(msg.Payload)
	if err != nil {
		return err
	}

	if roomID != that.room.ID() {
		return fmt.Errorf("%w: room %s", apperror.ErrNotRoomMember, roomID)
	}

	that.leaveRoom(ctx)
	that.state = StateRoomBrowser

	that.conn.Send(protocol.HideResult())
	that.conn.Send(protocol.HideGamefield())
	that.conn.Send(protocol.RoomList(that.lobby.ListJoinable(ctx)))

	return nil
}

func (that *Router) handleExitGamefield(ctx context.Context, msg *protocol.Message) error {
	if err := that.expectState(msg.Action, StateInRoom); err != nil {
		return err
	}

	that.leaveRoom(ctx)
	that.state = StateMenu

	that.conn.Send(protocol.HideResult())
	that.conn.Send(protocol.HideGamefield())
	that.conn.Send(protocol.DisplayMenu())

	return nil
}

func (that *Router) handlePressedCell(_ context.Context, msg *protocol.Message) error {
	if err := that.expectState(msg.Action, StateInRoom); err != nil {
		return err
	}

	cell, err := protocol.DecodePressedCell(msg.Payload)
	if err != nil {
		return err
	}

	if _, err = that.room.HandleMove(that.conn, cell); err != nil {
		return fmt.Errorf("failed to handle move: %w", err)
	}

	return nil
}

func (that *Router) handleNewGame(_ context.Context, msg *protocol.Message) error {
	if err := that.expectState(msg.Action, StateInRoom); err != nil {
		return err
	}

	if err := that.room.HandleReset(that.conn); err != nil {
		return fmt.Errorf("failed to reset game: %w", err)
	}

	return nil
}

func (that *Router) enterRoom(existingRoom *room.Room) {
	that.room = existingRoom
	that.state = StateInRoom

	that.logger.Info("entered room", "roomID", existingRoom.ID(), "mark", existingRoom.MarkOf(that.conn))
}

func (that *Router) leaveRoom(ctx context.Context) {
	that.logger.Info("left room", "roomID", that.room.ID())

	that.lobby.LeaveRoom(ctx, that.room, that.conn)
	that.room = nil
}

func (that *Router) expectState(action string, allowed ...State) error {
	if slices.Contains(allowed, that.state) {
		return nil
	}

	return fmt.Errorf("%w: %s in %s", apperror.ErrInvalidTransition, action, that.state)
}
