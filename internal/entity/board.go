package entity

import (
	"fmt"

	"github.com/paritygrid/parity-grid-backend/internal/apperror"
)

const (
	// BoardSize is the number of squares on the 5x5 grid.
	BoardSize = 25

	RoleOdd  Role = "ODD"
	RoleEven Role = "EVEN"
	RoleNone Role = ""
)

// Role - one side of a match: ODD claims odd-valued squares, EVEN claims even ones.
type Role string

// Board - a row-major 5x5 grid of non-negative counters. A square with value 0
// is unclaimed; a positive square belongs to the side matching its parity.
type Board [BoardSize]int

// WinningLines - the 12 index quintuples that end the game: five rows, five
// columns, then the two diagonals. Evaluate scans them in this order, so a
// board that completes several lines at once is resolved by scan order.
var WinningLines = [12][5]int{
	{0, 1, 2, 3, 4},
	{5, 6, 7, 8, 9},
	{10, 11, 12, 13, 14},
	{15, 16, 17, 18, 19},
	{20, 21, 22, 23, 24},
	{0, 5, 10, 15, 20},
	{1, 6, 11, 16, 21},
	{2, 7, 12, 17, 22},
	{3, 8, 13, 18, 23},
	{4, 9, 14, 19, 24},
	{0, 6, 12, 18, 24},
	{4, 8, 12, 16, 20},
}

// Increment - bumps the square at index. There is no upper bound on a square's
// value; the only failure is an index outside the grid.
func (that *Board) Increment(index int) error {
	if index < 0 || index >= BoardSize {
		return fmt.Errorf("%w: square %d", apperror.ErrOutOfRange, index)
	}

	that[index]++

	return nil
}

// Evaluate - returns the winning side and line, or RoleNone when no line is
// complete. A line wins when all five squares are positive and share parity.
// There is no draw on this grid: any square can always be incremented again,
// so the board can never reach an undecidable terminal configuration.
func (that *Board) Evaluate() (Role, []int) {
	for _, line := range WinningLines {
		if winner := lineWinner(that, line); winner != RoleNone {
			return winner, line[:]
		}
	}

	return RoleNone, nil
}

func lineWinner(board *Board, line [5]int) Role {
	odd, even := true, true

	for _, index := range line {
		value := board[index]
		if value <= 0 {
			return RoleNone
		}

		if value%2 == 0 {
			odd = false
		} else {
			even = false
		}
	}

	switch {
	case odd:
		return RoleOdd
	case even:
		return RoleEven
	default:
		return RoleNone
	}
}
