package pgn

import (
	"strings"
	"testing"
	"time"

	"github.com/notnil/chess"

	"github.com/hailam/chessbot/internal/board"
)

func play(t *testing.T, fen string, moves ...string) *board.Game {
	t.Helper()
	g, err := board.NewGame(fen)
	if err != nil {
		t.Fatal(err)
	}
	for _, tok := range moves {
		mi, err := g.ResolveMove(tok)
		if err != nil {
			t.Fatalf("%s: %v", tok, err)
		}
		if err := g.ApplyMove(mi.Move); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestExport(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		moves    []string
		contains []string
		outcome  chess.Outcome
	}{
		{
			name:     "fools mate",
			moves:    []string{"f2f3", "e7e5", "g2g4", "d8h4"},
			contains: []string{"1. f3 e5 2. g4 Qh4#", "0-1"},
			outcome:  chess.BlackWon,
		},
		{
			name:     "from fen",
			fen:      "6k1/5ppp/8/8/8/8/8/3Q2K1 w - - 0 1",
			moves:    []string{"d1d8"},
			contains: []string{`[SetUp "1"]`, `[FEN "6k1/5ppp/8/8/8/8/8/3Q2K1 w - - 0 1"]`, "Qd8#", "1-0"},
			outcome:  chess.WhiteWon,
		},
		{
			name:     "unfinished",
			moves:    []string{"e2e4", "c7c5"},
			contains: []string{"1. e4 c5", "*"},
			outcome:  chess.NoOutcome,
		},
		{
			name:     "repetition",
			moves:    []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"},
			contains: []string{"1/2-1/2"},
			outcome:  chess.Draw,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := play(t, tt.fen, tt.moves...)
			out, err := Export(g, Header{Event: "selfplay", White: "chessbot", Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)})
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range append(tt.contains, `[Event "selfplay"]`, `[Date "2024.03.09"]`, `[Black "?"]`) {
				if !strings.Contains(out, want) {
					t.Errorf("missing %q in\n%s", want, out)
				}
			}

			if tt.fen != "" {
				return
			}
			parse, err := chess.PGN(strings.NewReader(out))
			if err != nil {
				t.Fatalf("re-read: %v", err)
			}
			back := chess.NewGame(parse)
			if n := len(back.Moves()); n != len(tt.moves) {
				t.Errorf("re-read %d moves, want %d", n, len(tt.moves))
			}
			if tt.outcome == chess.BlackWon && back.Outcome() != tt.outcome {
				t.Errorf("re-read outcome %s, want %s", back.Outcome(), tt.outcome)
			}
		})
	}
}
