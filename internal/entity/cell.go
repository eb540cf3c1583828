package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidCellID = errors.New("invalid cell id")

type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// Opponent returns the other player's mark. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

func (m Mark) IsEmpty() bool {
	return m == MarkEmpty
}

// Coordinate addresses one cell of the grid.
type Coordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CellID - formats the coordinate as the wire cell identifier "r{row}c{col}".
func (c Coordinate) CellID() string {
	return "r" + strconv.Itoa(c.Row) + "c" + strconv.Itoa(c.Col)
}

// ParseCellID - parses "r{row}c{col}". Negative or missing numbers are rejected,
// bounds are checked by the grid.
func ParseCellID(id string) (Coordinate, error) {
	rest, ok := strings.CutPrefix(id, "r")
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}

	rowPart, colPart, ok := strings.Cut(rest, "c")
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}

	row, err := parseIndex(rowPart)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}

	col, err := parseIndex(colPart)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCellID, id)
	}

	return Coordinate{Row: row, Col: col}, nil
}

func parseIndex(s string) (int, error) {
	if s == "" || strings.ContainsAny(s, "+-") {
		return 0, strconv.ErrSyntax
	}

	return strconv.Atoi(s)
}
