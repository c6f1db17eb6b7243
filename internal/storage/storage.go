package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/chessbot/internal/ai"
	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/engine"
)

// Storage keys
const (
	keyPreferences = "preferences"
	keyStats       = "stats"
	prefixSelect   = "sel/"
)

// Preferences are remembered between runs.
type Preferences struct {
	Difficulty string    `json:"difficulty"`
	LastUsed   time.Time `json:"last_used"`
}

// DefaultPreferences returns the preferences of a fresh install.
func DefaultPreferences() *Preferences {
	return &Preferences{Difficulty: engine.LabelModerate}
}

// SelectionRecord is one answered move request.
type SelectionRecord struct {
	ID             string    `json:"id"`
	At             time.Time `json:"at"`
	FEN            string    `json:"fen"`
	Difficulty     string    `json:"difficulty"`
	Move           string    `json:"move,omitempty"`
	Backend        string    `json:"backend,omitempty"`
	Fallback       bool      `json:"fallback,omitempty"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	Outcome        string    `json:"outcome"`
	Score          int       `json:"score"`
	Depth          int       `json:"depth"`
	ElapsedMS      int64     `json:"elapsed_ms"`
	Error          string    `json:"error,omitempty"`
}

// Stats aggregate every recorded selection and game.
type Stats struct {
	Requests     int            `json:"requests"`
	ByBackend    map[string]int `json:"by_backend"`
	Fallbacks    int            `json:"fallbacks"`
	NoMove       int            `json:"no_move"`
	Errors       int            `json:"errors"`
	SearchTimeMS int64          `json:"search_time_ms"`

	GamesPlayed int            `json:"games_played"`
	WhiteWins   int            `json:"white_wins"`
	BlackWins   int            `json:"black_wins"`
	Draws       int            `json:"draws"`
	GamesByDiff map[string]int `json:"games_by_difficulty"`
	LongestGame int            `json:"longest_game_plies"`
}

// NewStats returns empty statistics.
func NewStats() *Stats {
	return &Stats{
		ByBackend:   make(map[string]int),
		GamesByDiff: make(map[string]int),
	}
}

// FallbackRate is the share of requests answered by the local fallback,
// from 0 to 1.
func (s *Stats) FallbackRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Fallbacks) / float64(s.Requests)
}

// GameResult describes a finished self-play game.
type GameResult struct {
	Difficulty string
	Outcome    board.Outcome
	Winner     board.Color
	Plies      int
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens or creates the database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dir, err)
	}
	return &Storage{db: db, now: time.Now}, nil
}

// NewStorage opens the database under the data directory, or under
// dataDir when it is not empty.
func NewStorage(dataDir string) (*Storage, error) {
	dbDir, err := DatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = s.now()
	return s.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, keyPreferences, prefs)
	})
}

// LoadPreferences returns the stored preferences, or defaults if none.
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, keyPreferences, prefs)
		return err
	})
	return prefs, err
}

// LoadStats returns the stored statistics, or empty ones if none.
func (s *Storage) LoadStats() (*Stats, error) {
	stats := NewStats()
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, keyStats, stats)
		return err
	})
	return stats, err
}

// Record stores the response to req and updates the statistics in the
// same transaction. It implements ai.Recorder.
func (s *Storage) Record(_ context.Context, req ai.Request, resp ai.Response) error {
	sel := resp.Selection
	rec := SelectionRecord{
		ID:             resp.ID,
		At:             s.now().UTC(),
		FEN:            req.FEN,
		Difficulty:     req.Difficulty,
		Move:           resp.Move,
		Backend:        string(sel.Backend),
		Fallback:       sel.Fallback,
		FallbackReason: sel.FallbackReason,
		Outcome:        sel.Outcome.String(),
		Score:          int(sel.Score),
		Depth:          sel.Depth,
		ElapsedMS:      sel.Elapsed.Milliseconds(),
	}
	if resp.Err != nil {
		rec.Error = resp.Err.Error()
	}
	key := fmt.Sprintf("%s%020d/%s", prefixSelect, rec.At.UnixNano(), rec.ID)

	return s.update(func(txn *badger.Txn, stats *Stats) error {
		stats.Requests++
		switch {
		case resp.Err != nil:
			stats.Errors++
		case resp.Move == "":
			stats.NoMove++
		default:
			stats.ByBackend[rec.Backend]++
		}
		if rec.Fallback {
			stats.Fallbacks++
		}
		stats.SearchTimeMS += rec.ElapsedMS
		return putJSON(txn, key, rec)
	})
}

// RecordGame counts a finished self-play game.
func (s *Storage) RecordGame(result GameResult) error {
	return s.update(func(_ *badger.Txn, stats *Stats) error {
		stats.GamesPlayed++
		stats.GamesByDiff[result.Difficulty]++
		switch {
		case result.Outcome == board.Checkmate && result.Winner == board.White:
			stats.WhiteWins++
		case result.Outcome == board.Checkmate && result.Winner == board.Black:
			stats.BlackWins++
		default:
			stats.Draws++
		}
		stats.LongestGame = max(stats.LongestGame, result.Plies)
		return nil
	})
}

// Recent returns up to n selection records, newest first.
func (s *Storage) Recent(n int) ([]SelectionRecord, error) {
	var out []SelectionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixSelect)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key not after the seek key.
		for it.Seek([]byte(prefixSelect + "\xff")); it.Valid() && len(out) < n; it.Next() {
			var rec SelectionRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// update runs fn on the current statistics and saves them, retrying when
// a concurrent writer wins the transaction.
func (s *Storage) update(fn func(txn *badger.Txn, stats *Stats) error) error {
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			stats := NewStats()
			if _, err := getJSON(txn, keyStats, stats); err != nil {
				return err
			}
			if err := fn(txn, stats); err != nil {
				return err
			}
			return putJSON(txn, keyStats, stats)
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

func putJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// getJSON decodes the value at key into v; found is false and v untouched
// if the key does not exist.
func getJSON(txn *badger.Txn, key string, v any) (found bool, err error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
