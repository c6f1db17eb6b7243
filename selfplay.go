package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hailam/chessbot/internal/ai"
	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/pgn"
	"github.com/hailam/chessbot/internal/storage"
)

type selfPlay struct {
	FEN        string
	Difficulty string
	MaxPlies   int
	PGNPath    string
}

// playSelf lets the worker play both sides until the game ends or
// MaxPlies moves have been made, then prints the game as PGN.
func playSelf(ctx context.Context, worker *ai.Worker, store *storage.Storage, sp selfPlay, w io.Writer) error {
	g, err := board.NewGame(sp.FEN)
	if err != nil {
		return err
	}
	for g.Ply() < sp.MaxPlies && !g.IsGameOver() {
		resp, err := worker.Do(ctx, ai.Request{FEN: g.FEN(), Difficulty: sp.Difficulty})
		if err != nil {
			return err
		}
		if resp.Err != nil {
			return resp.Err
		}
		if !resp.Selection.Found {
			break
		}
		mi, err := g.ResolveMove(resp.Move)
		if err != nil {
			return fmt.Errorf("ply %d: %w", g.Ply()+1, err)
		}
		if err := g.ApplyMove(mi.Move); err != nil {
			return fmt.Errorf("ply %d: %w", g.Ply()+1, err)
		}
	}

	player := "chessbot " + sp.Difficulty
	text, err := pgn.Export(g, pgn.Header{
		Event: "chessbot self-play",
		Site:  "local",
		Date:  time.Now(),
		Round: "1",
		White: player,
		Black: player,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, text)
	if sp.PGNPath != "" {
		if err := os.WriteFile(sp.PGNPath, []byte(text+"\n"), 0o644); err != nil {
			return err
		}
	}

	if store != nil {
		winner := board.NoColor
		if g.Outcome() == board.Checkmate {
			winner = g.SideToMove().Other()
		}
		return store.RecordGame(storage.GameResult{
			Difficulty: sp.Difficulty,
			Outcome:    g.Outcome(),
			Winner:     winner,
			Plies:      g.Ply(),
		})
	}
	return nil
}
