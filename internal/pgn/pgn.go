// Package pgn exports games as PGN. Moves are replayed through
// github.com/notnil/chess, so an export also re-checks their legality.
package pgn

import (
	"fmt"
	"time"

	"github.com/notnil/chess"

	"github.com/hailam/chessbot/internal/board"
)

// Header is the seven tag roster. Empty fields are written as "?".
type Header struct {
	Event string
	Site  string
	Date  time.Time
	Round string
	White string
	Black string
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// Export renders g, from its starting position through every move played,
// with h as the tag pairs. The result tag reflects g's outcome.
func Export(g *board.Game, h Header) (string, error) {
	date := "????.??.??"
	if !h.Date.IsZero() {
		date = h.Date.Format("2006.01.02")
	}
	tags := []*chess.TagPair{
		{Key: "Event", Value: orUnknown(h.Event)},
		{Key: "Site", Value: orUnknown(h.Site)},
		{Key: "Date", Value: date},
		{Key: "Round", Value: orUnknown(h.Round)},
		{Key: "White", Value: orUnknown(h.White)},
		{Key: "Black", Value: orUnknown(h.Black)},
	}
	opts := []func(*chess.Game){chess.TagPairs(tags)}
	if start := g.StartFEN(); start != board.StartFEN {
		fenOpt, err := chess.FEN(start)
		if err != nil {
			return "", fmt.Errorf("pgn: start position: %w", err)
		}
		opts = append(opts, fenOpt)
	}
	cg := chess.NewGame(opts...)
	if start := g.StartFEN(); start != board.StartFEN {
		cg.AddTagPair("SetUp", "1")
		cg.AddTagPair("FEN", start)
	}

	notation := chess.UCINotation{}
	for i, m := range g.Moves() {
		cm, err := notation.Decode(cg.Position(), m.String())
		if err != nil {
			return "", fmt.Errorf("pgn: ply %d %s: %w", i+1, m, err)
		}
		if err := cg.Move(cm); err != nil {
			return "", fmt.Errorf("pgn: ply %d %s: %w", i+1, m, err)
		}
	}

	if g.Outcome() == board.Draw && cg.Outcome() == chess.NoOutcome {
		method := chess.DrawOffer
		for _, e := range cg.EligibleDraws() {
			if e != chess.DrawOffer {
				method = e
				break
			}
		}
		if err := cg.Draw(method); err != nil {
			return "", fmt.Errorf("pgn: record draw: %w", err)
		}
	}
	return cg.String(), nil
}
