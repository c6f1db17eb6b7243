// Package ai selects moves for a position and difficulty, using an external
// UCI engine when asked for one and the local search otherwise.
package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/board"
	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/uci"
)

// Backend names the search that produced a selection.
type Backend string

const (
	BackendLocal    Backend = "local"
	BackendExternal Backend = "external"
)

// External is an out-of-process engine. *uci.Adapter implements it.
type External interface {
	BestMove(ctx context.Context, pos uci.Resolver, skill int) (board.MoveInfo, error)
}

// Selection is the outcome of SelectMove. Found is false only when the side
// to move has no legal moves; Outcome then says why.
type Selection struct {
	Move           board.MoveInfo
	Found          bool
	Outcome        board.Outcome
	Backend        Backend
	Fallback       bool
	FallbackReason string
	Score          engine.Score
	Depth          int
	Elapsed        time.Duration
}

// Coordinator routes move requests to a backend.
type Coordinator struct {
	engine        *engine.Engine
	external      External
	fallbackDepth int
	log           zerolog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithExternal sets the engine used for external difficulty labels.
func WithExternal(x External) CoordinatorOption {
	return func(c *Coordinator) { c.external = x }
}

// WithFallbackDepth sets the local depth used when the external engine
// fails. Values below 1 are ignored.
func WithFallbackDepth(d int) CoordinatorOption {
	return func(c *Coordinator) {
		if d >= 1 {
			c.fallbackDepth = d
		}
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(l zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator returns a coordinator over the local engine.
func NewCoordinator(eng *engine.Engine, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		engine:        eng,
		fallbackDepth: engine.DefaultDepth,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectMove picks a move for the side to move in g. g is left unchanged.
//
// External failures never reach the caller: they are logged and the local
// engine searches at the fallback depth instead. The only error returned
// is a broken contract between the search and the rules, which aborts the
// search.
func (c *Coordinator) SelectMove(ctx context.Context, g *board.Game, label string) (Selection, error) {
	start := time.Now()
	if len(g.LegalMoves()) == 0 {
		return Selection{Outcome: g.Outcome(), Backend: BackendLocal}, nil
	}

	switch s := engine.ParseDifficulty(label).(type) {
	case engine.External:
		reason := "no external engine configured"
		if c.external != nil {
			mi, err := c.external.BestMove(ctx, g, s.Skill)
			if err == nil {
				return Selection{
					Move:    mi,
					Found:   true,
					Outcome: g.Outcome(),
					Backend: BackendExternal,
					Depth:   engine.ExternalLimits(s.Skill).Depth,
					Elapsed: time.Since(start),
				}, nil
			}
			reason = err.Error()
		}
		c.log.Warn().
			Str("difficulty", label).
			Str("reason", reason).
			Int("depth", c.fallbackDepth).
			Msg("external engine unavailable, searching locally")
		sel, err := c.local(g, c.fallbackDepth, start)
		sel.Fallback = true
		sel.FallbackReason = reason
		return sel, err
	case engine.Local:
		return c.local(g, s.Depth, start)
	default:
		return c.local(g, engine.DefaultDepth, start)
	}
}

func (c *Coordinator) local(g *board.Game, depth int, start time.Time) (Selection, error) {
	res, err := c.engine.Search(g, depth)
	if err != nil {
		c.log.Error().Err(err).Str("fen", g.FEN()).Msg("local search aborted")
		return Selection{Backend: BackendLocal, Outcome: g.Outcome()}, err
	}
	return Selection{
		Move:    res.Move,
		Found:   res.Found,
		Outcome: g.Outcome(),
		Backend: BackendLocal,
		Score:   res.Score,
		Depth:   res.Depth,
		Elapsed: time.Since(start),
	}, nil
}
