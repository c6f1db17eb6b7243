package engine

import (
	"fmt"

	"github.com/hailam/chessbot/internal/board"
)

// Score is a position value in centipawns, positive when white is better.
type Score int

const (
	// MateScore is the value of a position where black is checkmated.
	MateScore Score = 20000
	// DrawScore is the value of any drawn position.
	DrawScore Score = 0
	// Infinity bounds the alpha-beta window and is never a real score.
	Infinity Score = 1 << 20
)

// mated is the score of a node whose side to move is checkmated.
func mated(maximizing bool) Score {
	if maximizing {
		return -MateScore
	}
	return MateScore
}

// IsMate reports a forced-mate score for either side.
func (s Score) IsMate() bool { return s >= MateScore || s <= -MateScore }

func (s Score) String() string {
	switch {
	case s >= MateScore:
		return "white mates"
	case s <= -MateScore:
		return "black mates"
	}
	return fmt.Sprintf("%+.2f", float64(s)/100)
}

// UCI renders the score for an info line, which is relative to the side
// to move. Mate distance is not tracked, so mates are reported as a
// large centipawn value.
func (s Score) UCI(side board.Color) string {
	if side == board.Black {
		s = -s
	}
	return fmt.Sprintf("cp %d", int(s))
}
