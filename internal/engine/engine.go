package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/hailam/chessbot/internal/board"
)

// Result describes a finished root search.
type Result struct {
	Move    board.MoveInfo
	Found   bool
	Score   Score
	Depth   int
	Nodes   uint64
	QNodes  uint64
	Elapsed time.Duration
}

// Engine is the local search backend. It is safe for concurrent use; each
// call to Search runs on its own Searcher.
type Engine struct {
	eval  *Evaluator
	order *MoveOrderer
	log   zerolog.Logger

	mu      sync.Mutex
	rng     *frand.RNG
	shuffle bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvalParams replaces the default material values and tables.
func WithEvalParams(p EvalParams) Option {
	return func(e *Engine) { e.eval = NewEvaluator(p) }
}

// WithOrderParams replaces the default ordering constants.
func WithOrderParams(p OrderParams) Option {
	return func(e *Engine) { e.order = NewMoveOrderer(p) }
}

// WithSeed makes root shuffling reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		key := make([]byte, 32)
		for i := range 8 {
			key[i] = byte(seed >> (8 * i))
		}
		e.rng = frand.NewCustom(key, 1024, 12)
	}
}

// WithoutShuffle searches root moves in generation order.
func WithoutShuffle() Option {
	return func(e *Engine) { e.shuffle = false }
}

// WithLogger sets the logger used for per-search debug lines.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an engine with default parameters and root shuffling on.
func New(opts ...Option) *Engine {
	e := &Engine{
		eval:    NewEvaluator(DefaultEvalParams()),
		order:   NewMoveOrderer(DefaultOrderParams()),
		log:     zerolog.Nop(),
		shuffle: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) shuffleMoves(n int, swap func(i, j int)) {
	if e.rng == nil {
		frand.Shuffle(n, swap)
		return
	}
	e.mu.Lock()
	e.rng.Shuffle(n, swap)
	e.mu.Unlock()
}

// Evaluate returns the static value of pos.
func (e *Engine) Evaluate(pos PositionView) Score {
	return e.eval.Evaluate(pos)
}

// Search picks a move for the side to move in pos with a fixed-depth
// search. A position with no legal moves is not an error: Found is false
// and Score holds the terminal value. If pos rejects a move the search
// believed legal, every move already applied is taken back and a
// *PreconditionError is returned.
func (e *Engine) Search(pos PositionView, depth int) (res Result, err error) {
	s := NewSearcher(pos, e.eval, e.order)
	if e.shuffle {
		s.shuffle = e.shuffleMoves
	}
	start := time.Now()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		var pe *PreconditionError
		if rerr, ok := r.(error); !ok || !errors.As(rerr, &pe) {
			panic(r)
		}
		for ; s.applied > 0; s.applied-- {
			if uerr := pos.UndoLastMove(); uerr != nil {
				err = fmt.Errorf("%w (restoring position: %v)", pe, uerr)
				return
			}
		}
		e.log.Error().Err(pe).Str("fen", pos.FEN()).Msg("search aborted")
		err = pe
	}()

	maximizing := pos.SideToMove() == board.White
	mi, score, ok := s.SearchRoot(depth, maximizing)
	st := s.Stats()
	res = Result{
		Move:    mi,
		Found:   ok,
		Score:   score,
		Depth:   max(depth, 1),
		Nodes:   st.Nodes,
		QNodes:  st.QNodes,
		Elapsed: time.Since(start),
	}
	e.log.Debug().
		Str("move", mi.String()).
		Bool("found", ok).
		Int("depth", res.Depth).
		Int("score", int(score)).
		Uint64("nodes", st.Nodes).
		Uint64("qnodes", st.QNodes).
		Dur("elapsed", res.Elapsed).
		Msg("search done")
	return res, nil
}

// Perft counts leaf nodes of the legal move tree to depth.
func (e *Engine) Perft(pos PositionView, depth int) (uint64, error) {
	if depth <= 0 {
		return 1, nil
	}
	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves)), nil
	}
	var nodes uint64
	for _, m := range moves {
		if err := pos.ApplyMove(m); err != nil {
			return nodes, err
		}
		n, err := e.Perft(pos, depth-1)
		if uerr := pos.UndoLastMove(); uerr != nil && err == nil {
			err = uerr
		}
		if err != nil {
			return nodes, err
		}
		nodes += n
	}
	return nodes, nil
}
