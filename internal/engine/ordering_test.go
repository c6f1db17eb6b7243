package engine

import (
	"testing"

	"github.com/hailam/chessbot/internal/board"
)

func TestMoveOrdererScore(t *testing.T) {
	o := NewMoveOrderer(DefaultOrderParams())
	tests := []struct {
		name string
		mi   board.MoveInfo
		want int
	}{
		{"quiet", board.MoveInfo{Piece: board.Knight, Captured: board.NoPieceType}, 0},
		{"pawn takes queen", board.MoveInfo{Piece: board.Pawn, Captured: board.Queen, Flags: board.FlagCapture}, 89},
		{"queen takes pawn", board.MoveInfo{Piece: board.Queen, Captured: board.Pawn, Flags: board.FlagCapture}, 1},
		{"promotion", board.MoveInfo{Piece: board.Pawn, Captured: board.NoPieceType, Flags: board.FlagPromotion}, 1000},
		{"check", board.MoveInfo{Piece: board.Rook, Captured: board.NoPieceType, Flags: board.FlagCheck}, 500},
		{"promote taking rook with check", board.MoveInfo{
			Piece: board.Pawn, Captured: board.Rook,
			Flags: board.FlagCapture | board.FlagPromotion | board.FlagCheck,
		}, 49 + 1000 + 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := o.Score(tc.mi); got != tc.want {
				t.Errorf("Score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMoveOrdererOrder(t *testing.T) {
	g := newGame(t, "r3k2r/1P6/8/3pP3/8/8/8/R3K2R w KQkq d6 0 1")
	o := NewMoveOrderer(DefaultOrderParams())
	moves := o.Order(g.DetailedMoves())
	for i := 1; i < len(moves); i++ {
		if o.Score(moves[i]) > o.Score(moves[i-1]) {
			t.Fatalf("move %d (%s, %d) outranks move %d (%s, %d)",
				i, moves[i], o.Score(moves[i]), i-1, moves[i-1], o.Score(moves[i-1]))
		}
	}
	if first := moves[0].String(); first != "b7a8q" {
		t.Errorf("first move = %s, want b7a8q", first)
	}
}

func TestMoveOrdererStable(t *testing.T) {
	o := NewMoveOrderer(DefaultOrderParams())
	quiet := func(sq board.Square) board.MoveInfo {
		return board.MoveInfo{Piece: board.King, Captured: board.NoPieceType, Move: board.Move(sq)}
	}
	moves := []board.MoveInfo{quiet(board.A1), quiet(board.B1), quiet(board.C1)}
	o.Order(moves)
	for i, want := range []board.Square{board.A1, board.B1, board.C1} {
		if moves[i].Move != board.Move(want) {
			t.Errorf("moves[%d] = %v, want %v", i, moves[i].Move, board.Move(want))
		}
	}
}
