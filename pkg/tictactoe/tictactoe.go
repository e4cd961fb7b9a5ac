// Package tictactoe holds the rules of the room game: board evaluation, turn
// alternation and the waiting/playing/finished lifecycle. Everything here is
// pure; persistence and fan-out live in the game service.
package tictactoe

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type Mark string

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

// Valid reports whether m is one of the two player marks.
func (m Mark) Valid() bool {
	return m == X || m == O
}

// Other returns the opposing mark.
func (m Mark) Other() Mark {
	if m == X {
		return O
	}
	return X
}

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Result is the outcome stored on a game: unset, a winning mark, or a draw.
type Result string

const (
	ResultNone Result = ""
	ResultX    Result = "X"
	ResultO    Result = "O"
	ResultDraw Result = "draw"
)

// Cells is the number of squares on the board.
const Cells = 9

var (
	ErrInvalidCell  = errors.New("cell index out of range")
	ErrInvalidMark  = errors.New("mark must be X or O")
	ErrCellOccupied = errors.New("cell is already taken")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrNotPlaying   = errors.New("game is not in progress")
	ErrNotWaiting   = errors.New("game is not waiting for a player")
	ErrNotStarted   = errors.New("game has not started yet")
	ErrBoardSize    = errors.New("board must have exactly 9 cells")
)

// Lines lists the eight winning triples: rows, then columns, then diagonals.
var Lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Board is the 3x3 grid in row-major order.
type Board [Cells]Mark

// Filled counts non-empty cells.
func (b Board) Filled() int {
	n := 0
	for _, c := range b {
		if c != Empty {
			n++
		}
	}
	return n
}

// Evaluate returns the winning mark of the first complete line, ResultDraw for a
// full board without one, and ResultNone otherwise.
func Evaluate(b Board) Result {
	for _, line := range Lines {
		a := b[line[0]]
		if a != Empty && a == b[line[1]] && a == b[line[2]] {
			return Result(a)
		}
	}
	if b.Filled() == Cells {
		return ResultDraw
	}
	return ResultNone
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal([Cells]Mark(b))
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var cells []Mark
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	if len(cells) != Cells {
		return ErrBoardSize
	}
	for i, c := range cells {
		if c != Empty && !c.Valid() {
			return fmt.Errorf("cell %d: %w", i, ErrInvalidMark)
		}
		b[i] = c
	}
	return nil
}

// Value stores the board as a JSON array column.
func (b Board) Value() (driver.Value, error) {
	data, err := b.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (b *Board) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = Board{}
		return nil
	case []byte:
		return b.UnmarshalJSON(v)
	case string:
		return b.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("tictactoe: cannot scan %T into Board", src)
	}
}

// State is the rule-relevant part of a game row.
type State struct {
	Board  Board  `json:"board_state"`
	Turn   Mark   `json:"current_turn"`
	Status Status `json:"status"`
	Winner Result `json:"winner"`
}

// New returns the state of a freshly created game: empty board, X to move,
// waiting for the second player.
func New() State {
	return State{Turn: X, Status: StatusWaiting}
}

// Join moves a waiting game into play.
func (s State) Join() (State, error) {
	if s.Status != StatusWaiting {
		return s, ErrNotWaiting
	}
	s.Status = StatusPlaying
	return s, nil
}

// Apply places mark on cell. On any rejection the returned state equals s.
func (s State) Apply(cell int, mark Mark) (State, error) {
	if !mark.Valid() {
		return s, ErrInvalidMark
	}
	if cell < 0 || cell >= Cells {
		return s, ErrInvalidCell
	}
	if s.Status != StatusPlaying {
		return s, ErrNotPlaying
	}
	if s.Turn != mark {
		return s, ErrNotYourTurn
	}
	if s.Board[cell] != Empty {
		return s, ErrCellOccupied
	}

	next := s
	next.Board[cell] = mark
	next.Turn = mark.Other()

	if result := Evaluate(next.Board); result != ResultNone {
		next.Winner = result
		next.Status = StatusFinished
	}
	return next, nil
}

// Restart clears the board and hands the first move back to X.
func (s State) Restart() (State, error) {
	if s.Status == StatusWaiting {
		return s, ErrNotStarted
	}
	return State{Turn: X, Status: StatusPlaying}, nil
}
