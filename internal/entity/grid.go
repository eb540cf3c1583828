package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	DefaultBoardSize = 20
	DefaultWinLength = 5
)

type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultWin
	ResultDraw
)

// Result is the outcome of a game. Winner is set only for ResultWin.
type Result struct {
	Kind   ResultKind
	Winner Mark
}

func NoResult() Result {
	return Result{Kind: ResultNone}
}

func WinFor(mark Mark) Result {
	return Result{Kind: ResultWin, Winner: mark}
}

func DrawResult() Result {
	return Result{Kind: ResultDraw}
}

func (r Result) IsDecisive() bool {
	return r.Kind != ResultNone
}

// Message - human readable result, as shown to the players.
func (r Result) Message() string {
	switch r.Kind {
	case ResultWin:
		return "Winner: " + string(r.Winner)
	case ResultDraw:
		return "Draw"
	default:
		return ""
	}
}

// Grid is the size×size game field. It holds no locks, the owning room serializes access.
type Grid struct {
	size      int
	winLength int
	cells     []Mark
	turn      Mark
	result    Result
	moves     int
}

func NewGrid(size, winLength int) (*Grid, error) {
	grid := &Grid{}
	if err := grid.Reset(size, winLength); err != nil {
		return nil, err
	}

	return grid, nil
}

// Reset - clears every cell, gives the turn to X and drops the result.
func (that *Grid) Reset(size, winLength int) error {
	if size <= 0 || winLength <= 0 || winLength > size {
		return fmt.Errorf("%w: size %d, win length %d", apperror.ErrInvalidGrid, size, winLength)
	}

	that.size = size
	that.winLength = winLength
	that.cells = make([]Mark, size*size)
	that.turn = MarkX
	that.result = NoResult()
	that.moves = 0

	return nil
}

// Place - puts the current turn's mark on an empty cell and returns it.
// It neither flips the turn nor evaluates the result.
func (that *Grid) Place(c Coordinate) (Mark, error) {
	if that.result.IsDecisive() {
		return MarkEmpty, fmt.Errorf("%w: %w", apperror.ErrInvalidMove, apperror.ErrGameFinished)
	}

	if !that.InBounds(c) {
		return MarkEmpty, fmt.Errorf("%w: %w: %s", apperror.ErrInvalidMove, apperror.ErrCellOutOfBounds, c.CellID())
	}

	idx := that.index(c)
	if !that.cells[idx].IsEmpty() {
		return MarkEmpty, fmt.Errorf("%w: %w: %s", apperror.ErrInvalidMove, apperror.ErrCellOccupied, c.CellID())
	}

	that.cells[idx] = that.turn
	that.moves++

	return that.turn, nil
}

func (that *Grid) IsFull() bool {
	return that.moves == len(that.cells)
}

func (that *Grid) InBounds(c Coordinate) bool {
	return c.Row >= 0 && c.Row < that.size && c.Col >= 0 && c.Col < that.size
}

// At returns MarkEmpty for coordinates outside the grid.
func (that *Grid) At(c Coordinate) Mark {
	if !that.InBounds(c) {
		return MarkEmpty
	}

	return that.cells[that.index(c)]
}

func (that *Grid) FlipTurn() {
	that.turn = that.turn.Opponent()
}

// FinishWith stores a decisive result; further placements fail until Reset.
func (that *Grid) FinishWith(result Result) {
	that.result = result
}

func (that *Grid) Turn() Mark {
	return that.turn
}

func (that *Grid) Result() Result {
	return that.result
}

func (that *Grid) Size() int {
	return that.size
}

func (that *Grid) WinLength() int {
	return that.winLength
}

func (that *Grid) MovesMade() int {
	return that.moves
}

// Snapshot - maps every cell id to its mark, empty cells included.
func (that *Grid) Snapshot() map[string]Mark {
	snapshot := make(map[string]Mark, len(that.cells))
	for row := 0; row < that.size; row++ {
		for col := 0; col < that.size; col++ {
			c := Coordinate{Row: row, Col: col}
			snapshot[c.CellID()] = that.cells[that.index(c)]
		}
	}

	return snapshot
}

func (that *Grid) index(c Coordinate) int {
	return c.Row*that.size + c.Col
}
