package uci

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/engine"
)

func runServer(t *testing.T, script string) []string {
	t.Helper()
	var out bytes.Buffer
	srv := NewServer(engine.New(engine.WithSeed(7)), strings.NewReader(script), &out)
	if err := srv.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func lineWithPrefix(lines []string, prefix string) (string, bool) {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return l, true
		}
	}
	return "", false
}

func bestMove(t *testing.T, lines []string) string {
	t.Helper()
	l, ok := lineWithPrefix(lines, "bestmove ")
	if !ok {
		t.Fatalf("no bestmove in output:\n%s", strings.Join(lines, "\n"))
	}
	return strings.Fields(l)[1]
}

func TestServerHandshake(t *testing.T) {
	lines := runServer(t, "uci\nisready\nquit\n")
	for _, want := range []string{"id name " + EngineName, "option name Skill Level", "uciok", "readyok"} {
		if _, ok := lineWithPrefix(lines, want); !ok {
			t.Errorf("missing %q in output:\n%s", want, strings.Join(lines, "\n"))
		}
	}
}

func TestServerGo(t *testing.T) {
	tests := []struct {
		name   string
		script string
		fen    string
		moves  []string
		want   string
	}{
		{
			name:   "after moves",
			script: "position startpos moves e2e4 e7e5\ngo depth 2\n",
			fen:    board.StartFEN,
			moves:  []string{"e2e4", "e7e5"},
		},
		{
			name:   "mate in one",
			script: "position fen 6k1/5ppp/8/8/8/8/8/3Q2K1 w - - 0 1\ngo depth 2 movetime 1000\n",
			fen:    "6k1/5ppp/8/8/8/8/8/3Q2K1 w - - 0 1",
			want:   "d1d8",
		},
		{
			name:   "stalemate",
			script: "position fen 7k/5Q2/6K1/8/8/8/8/8 b - - 0 1\ngo depth 2\n",
			want:   "0000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bestMove(t, runServer(t, tt.script+"quit\n"))
			if tt.want != "" {
				if got != tt.want {
					t.Errorf("bestmove %s, want %s", got, tt.want)
				}
				return
			}
			g, err := board.NewGame(tt.fen)
			if err != nil {
				t.Fatal(err)
			}
			for _, m := range tt.moves {
				mi, err := g.ResolveMove(m)
				if err != nil {
					t.Fatal(err)
				}
				if err := g.ApplyMove(mi.Move); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := g.ResolveMove(got); err != nil {
				t.Errorf("bestmove %s is not legal: %v", got, err)
			}
		})
	}
}

func TestServerSkillCapsDepth(t *testing.T) {
	lines := runServer(t, "setoption name Skill Level value 0\nposition startpos\ngo depth 12\nquit\n")
	info, ok := lineWithPrefix(lines, "info depth ")
	if !ok {
		t.Fatalf("no info line:\n%s", strings.Join(lines, "\n"))
	}
	if !strings.HasPrefix(info, "info depth 1 ") {
		t.Errorf("info line %q, want depth 1", info)
	}
}

func TestServerBadInputKeepsPosition(t *testing.T) {
	lines := runServer(t, strings.Join([]string{
		"position startpos moves e2e4",
		"position fen not a fen",
		"position startpos moves e2e5",
		"setoption name Skill Level value high",
		"frobnicate",
		"d",
		"quit",
	}, "\n"))
	fen, ok := lineWithPrefix(lines, "Fen: ")
	if !ok {
		t.Fatalf("no Fen line:\n%s", strings.Join(lines, "\n"))
	}
	want := "Fen: rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if fen != want {
		t.Errorf("got %q, want %q", fen, want)
	}
	for _, want := range []string{"info string bad move e2e5", "info string bad skill level", "info string unknown command frobnicate"} {
		if _, ok := lineWithPrefix(lines, want); !ok {
			t.Errorf("missing %q", want)
		}
	}
}

func TestServerPerft(t *testing.T) {
	lines := runServer(t, "position startpos\nperft 2\nquit\n")
	l, ok := lineWithPrefix(lines, "info string perft 2 nodes ")
	if !ok || strings.Fields(l)[5] != "400" {
		t.Errorf("perft line %q, want 400 nodes", l)
	}
}
