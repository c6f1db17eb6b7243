package engine

import (
	"testing"

	"github.com/hailam/chessbot/internal/board"
)

func newGame(t testing.TB, fen string) *board.Game {
	t.Helper()
	g, err := board.NewGame(fen)
	if err != nil {
		t.Fatalf("NewGame(%q): %v", fen, err)
	}
	return g
}

func mirrored(t testing.TB, g *board.Game) *board.Game {
	t.Helper()
	pos := g.Position()
	m := pos.Mirror()
	return newGame(t, m.ToFEN())
}

func TestEvaluateKnownValues(t *testing.T) {
	ev := NewEvaluator(DefaultEvalParams())
	tests := []struct {
		name string
		fen  string
		want Score
	}{
		{"start", board.StartFEN, 0},
		{"lone pawn", "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1", 80},
		{"black mated", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", MateScore},
		{"white mated", "k7/8/8/8/8/8/6PP/r6K w - - 0 1", -MateScore},
		{"stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 0},
		{"insufficient", "8/8/4k3/8/8/3KN3/8/8 w - - 0 1", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ev.Evaluate(newGame(t, tc.fen)); got != tc.want {
				t.Errorf("Evaluate = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestEvaluateSymmetry(t *testing.T) {
	ev := NewEvaluator(DefaultEvalParams())
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq c6 0 2",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"R6k/6pp/8/8/8/8/8/K7 b - - 0 1",
		"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
		"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1",
	}
	for _, fen := range fens {
		g := newGame(t, fen)
		m := mirrored(t, g)
		if a, b := ev.Evaluate(g), ev.Evaluate(m); a != -b {
			t.Errorf("%s: Evaluate = %d, mirrored = %d", fen, a, b)
		}
	}
}

func TestMaterialSkipsTerminalChecks(t *testing.T) {
	ev := NewEvaluator(DefaultEvalParams())
	g := newGame(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if got := ev.Material(g); got.IsMate() {
		t.Errorf("Material = %d, want a plain material score", got)
	}
	g = newGame(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if ev.Material(g) != ev.Evaluate(g) {
		t.Errorf("Material and Evaluate differ on a quiet position")
	}
}
