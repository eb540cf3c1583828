package apperror

import "errors"

var (
	ErrInvalidMove      = errors.New("invalid move")
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrCellOutOfBounds  = errors.New("cell is out of bounds")
	ErrInvalidGrid      = errors.New("invalid grid dimensions")

	ErrRoomFull        = errors.New("room is full")
	ErrRoomNotFound    = errors.New("room not found")
	ErrDuplicateRoomID = errors.New("room id already exists")
	ErrNotRoomMember   = errors.New("connection is not a room member")

	ErrMalformedPayload  = errors.New("malformed payload")
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidTransition = errors.New("action is not allowed in the current state")
)
