package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hailam/chessbot/internal/ai"
	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/engine"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestPreferences(t *testing.T) {
	s := openTest(t)

	t.Run("defaults", func(t *testing.T) {
		prefs, err := s.LoadPreferences()
		if err != nil {
			t.Fatal(err)
		}
		if prefs.Difficulty != engine.LabelModerate {
			t.Errorf("default difficulty %q", prefs.Difficulty)
		}
	})

	t.Run("saved", func(t *testing.T) {
		if err := s.SavePreferences(&Preferences{Difficulty: "stockfish_12"}); err != nil {
			t.Fatal(err)
		}
		prefs, err := s.LoadPreferences()
		if err != nil {
			t.Fatal(err)
		}
		if prefs.Difficulty != "stockfish_12" || prefs.LastUsed.IsZero() {
			t.Errorf("loaded %+v", prefs)
		}
	})
}

func TestRecordSelections(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	responses := []ai.Response{
		{ID: "a", Move: "e2e4", Selection: ai.Selection{Found: true, Backend: ai.BackendLocal, Depth: 3, Elapsed: 40 * time.Millisecond}},
		{ID: "b", Move: "g1f3", Selection: ai.Selection{Found: true, Backend: ai.BackendLocal, Fallback: true, FallbackReason: "timeout", Depth: 3, Elapsed: 60 * time.Millisecond}},
		{ID: "c", Move: "d2d4", Selection: ai.Selection{Found: true, Backend: ai.BackendExternal, Depth: 11}},
		{ID: "d", Selection: ai.Selection{Outcome: board.Stalemate, Backend: ai.BackendLocal}},
		{ID: "e", Err: errors.New("bad fen")},
	}
	for _, resp := range responses {
		if err := s.Record(ctx, ai.Request{ID: resp.ID, FEN: board.StartFEN, Difficulty: "stockfish"}, resp); err != nil {
			t.Fatalf("Record %s: %v", resp.ID, err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	checks := []struct {
		name      string
		got, want int
	}{
		{"requests", stats.Requests, 5},
		{"local", stats.ByBackend["local"], 2},
		{"external", stats.ByBackend["external"], 1},
		{"fallbacks", stats.Fallbacks, 1},
		{"no move", stats.NoMove, 1},
		{"errors", stats.Errors, 1},
		{"search time", int(stats.SearchTimeMS), 100},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if r := stats.FallbackRate(); r != 0.2 {
		t.Errorf("fallback rate %v", r)
	}

	recent, err := s.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range recent {
		ids = append(ids, r.ID)
	}
	if fmt.Sprint(ids) != "[e d c]" {
		t.Errorf("recent ids %v, want [e d c]", ids)
	}
	if recent[0].Error != "bad fen" || recent[1].Outcome != "stalemate" || recent[2].Depth != 11 {
		t.Errorf("recent records %+v", recent)
	}
}

func TestRecordConcurrent(t *testing.T) {
	s := openTest(t)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			resp := ai.Response{ID: id, Move: "e2e4", Selection: ai.Selection{Backend: ai.BackendLocal}}
			if err := s.Record(context.Background(), ai.Request{ID: id}, resp); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Requests != 8 {
		t.Errorf("requests = %d, want 8", stats.Requests)
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)
	games := []GameResult{
		{Difficulty: "easy", Outcome: board.Checkmate, Winner: board.White, Plies: 41},
		{Difficulty: "easy", Outcome: board.Checkmate, Winner: board.Black, Plies: 60},
		{Difficulty: "hard", Outcome: board.Draw, Winner: board.NoColor, Plies: 120},
		{Difficulty: "hard", Outcome: board.Ongoing, Winner: board.NoColor, Plies: 200},
	}
	for _, g := range games {
		if err := s.RecordGame(g); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 4 || stats.WhiteWins != 1 || stats.BlackWins != 1 || stats.Draws != 2 {
		t.Errorf("stats %+v", stats)
	}
	if stats.GamesByDiff["hard"] != 2 || stats.LongestGame != 200 {
		t.Errorf("by difficulty %v, longest %d", stats.GamesByDiff, stats.LongestGame)
	}
}

func TestDataPaths(t *testing.T) {
	base := filepath.Join(t.TempDir(), "data")
	dbDir, err := DatabaseDir(base)
	if err != nil {
		t.Fatal(err)
	}
	if dbDir != filepath.Join(base, "db") {
		t.Errorf("DatabaseDir = %s", dbDir)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("database directory not created: %v", err)
	}

	s, err := NewStorage(base)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Error(err)
	}
}
