package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Inbound actions, client to server.
const (
	ActionCreateRoom    = "createRoom"
	ActionSelectRoom    = "selectRoom"
	ActionJoinRoom      = "joinRoom"
	ActionExitRoom      = "exitRoom"
	ActionExitRooms     = "exitRooms"
	ActionBackToMenu    = "backToMenu"
	ActionPressedCell   = "pressedCell"
	ActionNewGame       = "newGame"
	ActionExitGamefield = "exitGamefield"
)

// Outbound actions, server to client.
const (
	ActionDisplayMenu   = "displayMenu"
	ActionHideMenu      = "hideMenu"
	ActionRoomList      = "roomList"
	ActionHideRoomList  = "hideRoomList"
	ActionDrawGamefield = "drawGamefield"
	ActionGameState     = "gameState"
	ActionWinner        = "winner"
	ActionHideResult    = "hideResult"
	ActionHideGamefield = "hideGamefield"
	ActionRejected      = "rejected"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type GameStatePayload struct {
	Cells map[string]entity.Mark `json:"cells"`
}

type RejectedPayload struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// PressedCellPayload carries either the cell id or the row/col pair, or both.
type PressedCellPayload struct {
	ID  string `json:"id,omitempty"`
	Row *int   `json:"row,omitempty"`
	Col *int   `json:"col,omitempty"`
}

// NewMessage - builds a message; a nil payload is omitted from the wire.
func NewMessage(action string, payload any) *Message {
	msg := &Message{Action: action}
	if payload == nil {
		return msg
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		// payloads are built from plain structs, maps and scalars
		panic(fmt.Errorf("failed to marshal %s payload: %w", action, err))
	}

	msg.Payload = raw

	return msg
}

// Decode - parses one inbound frame. Frames without an action are malformed.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	if msg.Action == "" {
		return nil, fmt.Errorf("%w: action is required", apperror.ErrMalformedPayload)
	}

	return &msg, nil
}

func DisplayMenu() *Message { return NewMessage(ActionDisplayMenu, nil) }

func HideMenu() *Message { return NewMessage(ActionHideMenu, nil) }

func HideRoomList() *Message { return NewMessage(ActionHideRoomList, nil) }

func HideResult() *Message { return NewMessage(ActionHideResult, nil) }

func HideGamefield() *Message { return NewMessage(ActionHideGamefield, nil) }

func RoomList(ids []string) *Message {
	if ids == nil {
		ids = []string{}
	}

	return NewMessage(ActionRoomList, ids)
}

func DrawGamefield(size int) *Message {
	return NewMessage(ActionDrawGamefield, size)
}

func GameState(cells map[string]entity.Mark) *Message {
	return NewMessage(ActionGameState, GameStatePayload{Cells: cells})
}

func Winner(message string) *Message {
	return NewMessage(ActionWinner, message)
}

func Rejected(action string, err error) *Message {
	return NewMessage(ActionRejected, RejectedPayload{Action: action, Reason: err.Error()})
}

// DecodeRoomID - reads the room id payload of joinRoom/exitRoom: a JSON string or number.
func DecodeRoomID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: room id is required", apperror.ErrMalformedPayload)
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		if id == "" {
			return "", fmt.Errorf("%w: room id is empty", apperror.ErrMalformedPayload)
		}
		return id, nil
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return "", fmt.Errorf("%w: room id must be a string", apperror.ErrMalformedPayload)
	}

	return number.String(), nil
}

// DecodePressedCell - validates the pressedCell payload and resolves the coordinate.
// Bounds are left to the grid.
func DecodePressedCell(raw json.RawMessage) (entity.Coordinate, error) {
	if len(raw) == 0 {
		return entity.Coordinate{}, fmt.Errorf("%w: cell is required", apperror.ErrMalformedPayload)
	}

	var payload PressedCellPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return entity.Coordinate{}, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	hasPair := payload.Row != nil && payload.Col != nil
	if payload.ID == "" && !hasPair {
		return entity.Coordinate{}, fmt.Errorf("%w: cell id or row and col are required", apperror.ErrMalformedPayload)
	}

	if payload.ID == "" {
		return entity.Coordinate{Row: *payload.Row, Col: *payload.Col}, nil
	}

	coord, err := entity.ParseCellID(payload.ID)
	if err != nil {
		return entity.Coordinate{}, fmt.Errorf("%w: %w", apperror.ErrMalformedPayload, err)
	}

	if hasPair && (coord.Row != *payload.Row || coord.Col != *payload.Col) {
		return entity.Coordinate{}, fmt.Errorf("%w: cell id %s does not match row %d col %d",
			apperror.ErrMalformedPayload, payload.ID, *payload.Row, *payload.Col)
	}

	return coord, nil
}
