package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type axis struct {
	dRow int
	dCol int
}

// axes are checked in this order; any completed line is decisive.
var axes = [4]axis{
	{dRow: 0, dCol: 1},  // row
	{dRow: 1, dCol: 0},  // column
	{dRow: -1, dCol: 1}, // anti-diagonal "/"
	{dRow: 1, dCol: 1},  // main diagonal "\"
}

// Evaluate - decides the outcome after a mark was placed on lastPlaced.
// A win is checked before a draw, so filling the last cell with a winning line is a win.
func Evaluate(grid *entity.Grid, lastPlaced entity.Coordinate) entity.Result {
	mark := grid.At(lastPlaced)
	if mark.IsEmpty() {
		return entity.NoResult()
	}

	for _, a := range axes {
		if completesLine(grid, lastPlaced, mark, a) {
			return entity.WinFor(mark)
		}
	}

	if grid.IsFull() {
		return entity.DrawResult()
	}

	return entity.NoResult()
}

// completesLine scans the window of 2*winLength-1 cells centered on origin along the axis.
func completesLine(grid *entity.Grid, origin entity.Coordinate, mark entity.Mark, a axis) bool {
	reach := grid.WinLength() - 1
	count := 0

	for offset := -reach; offset <= reach; offset++ {
		c := entity.Coordinate{
			Row: origin.Row + offset*a.dRow,
			Col: origin.Col + offset*a.dCol,
		}

		if grid.At(c) != mark {
			count = 0
			continue
		}

		count++
		if count == grid.WinLength() {
			return true
		}
	}

	return false
}

// PlayTurn - places the current mark, evaluates the move and stores a decisive result.
// The turn passes to the opponent only while the game goes on.
func PlayTurn(grid *entity.Grid, c entity.Coordinate) (entity.Mark, entity.Result, error) {
	mark, err := grid.Place(c)
	if err != nil {
		return entity.MarkEmpty, grid.Result(), fmt.Errorf("failed to place mark: %w", err)
	}

	result := Evaluate(grid, c)
	if result.IsDecisive() {
		grid.FinishWith(result)
		return mark, result, nil
	}

	grid.FlipTurn()

	return mark, result, nil
}
