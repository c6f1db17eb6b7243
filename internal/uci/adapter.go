package uci

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/engine"
)

// Resolver is the part of a game the adapter needs: the position to send
// and a way to turn the engine's answer back into a legal move.
type Resolver interface {
	FEN() string
	ResolveMove(token string) (board.MoveInfo, error)
}

// Adapter asks an external engine for moves at a given skill.
type Adapter struct {
	session *Session
	log     zerolog.Logger
}

// NewAdapter wraps a session.
func NewAdapter(s *Session, log zerolog.Logger) *Adapter {
	return &Adapter{session: s, log: log}
}

// NewProcessAdapter runs the engine binary at path with args.
func NewProcessAdapter(path string, args []string, log zerolog.Logger, opts ...SessionOption) *Adapter {
	opts = append([]SessionOption{WithSessionLogger(log)}, opts...)
	return NewAdapter(NewSession(ProcessLauncher(path, args...), opts...), log)
}

// Session returns the underlying session.
func (a *Adapter) Session() *Session { return a.session }

// BestMove searches pos with the limits for skill and returns the engine's
// choice as a legal move of pos.
func (a *Adapter) BestMove(ctx context.Context, pos Resolver, skill int) (board.MoveInfo, error) {
	fen := pos.FEN()
	tok, err := a.session.Search(ctx, SearchRequest{
		FEN:    fen,
		Skill:  skill,
		Limits: engine.ExternalLimits(skill),
	})
	if err != nil {
		return board.MoveInfo{}, err
	}
	mi, err := pos.ResolveMove(tok)
	if err != nil {
		a.log.Warn().Str("fen", fen).Str("bestmove", tok).Err(err).Msg("engine move rejected")
		return board.MoveInfo{}, fmt.Errorf("%w: bestmove %q: %v", ErrProtocol, tok, err)
	}
	return mi, nil
}

// Close shuts the engine down.
func (a *Adapter) Close() error { return a.session.Shutdown() }
