package board

import "testing"

// perft counts leaf nodes at depth, the usual move generator check.
func perft(g *Game, depth int) int64 {
	moves := g.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}
	var nodes int64
	for _, m := range moves {
		if err := g.ApplyMove(m); err != nil {
			panic(err)
		}
		nodes += perft(g, depth-1)
		if err := g.UndoLastMove(); err != nil {
			panic(err)
		}
	}
	return nodes
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  int64
		long  bool
	}{
		{"start", StartFEN, 1, 20, false},
		{"start", StartFEN, 2, 400, false},
		{"start", StartFEN, 3, 8902, false},
		{"start", StartFEN, 4, 197281, true},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 1, 48, false},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 2, 2039, false},
		{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", 3, 97862, true},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 1, 14, false},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 2, 191, false},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 3, 2812, false},
		{"position3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", 4, 43238, true},
		{"ep-pin", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", 1, 6, false},
		{"ep-pin", "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", 2, 94, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.long && testing.Short() {
				t.Skip("slow perft")
			}
			g, err := NewGame(tc.fen)
			if err != nil {
				t.Fatalf("NewGame(%q): %v", tc.fen, err)
			}
			before := g.Position()
			if got := perft(g, tc.depth); got != tc.want {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.want)
			}
			if g.Position() != before {
				t.Errorf("position changed by perft")
			}
		})
	}
}

func TestEnPassantPinnedIsIllegal(t *testing.T) {
	g, err := NewGame("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range g.LegalMoves() {
		if m.IsEnPassant() {
			t.Errorf("en passant %v exposes the king and must not be generated", m)
		}
	}
}
