package engine

import (
	"fmt"

	"github.com/hailam/chessbot/internal/board"
)

// PreconditionError reports that the rules collaborator refused a move
// or undo the search had every reason to expect would succeed. It means
// the two disagree about the position and the search cannot continue.
type PreconditionError struct {
	Op   string
	Move board.Move
	FEN  string
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("search precondition: %s %s in %q: %v", e.Op, e.Move, e.FEN, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// Stats counts visited nodes.
type Stats struct {
	Nodes  uint64
	QNodes uint64
}

// Searcher runs searches over one PositionView. It carries no state
// between calls except the node counters, and must not be shared between
// goroutines.
//
// Search, Quiescence and SearchRoot panic with a *PreconditionError if the
// PositionView rejects an apply or undo; Engine.Search turns that into an
// error and puts the position back.
type Searcher struct {
	pos     PositionView
	eval    *Evaluator
	order   *MoveOrderer
	shuffle func(n int, swap func(i, j int))

	stats   Stats
	applied int
}

// NewSearcher returns a searcher over pos. Root moves are not shuffled.
func NewSearcher(pos PositionView, eval *Evaluator, order *MoveOrderer) *Searcher {
	return &Searcher{pos: pos, eval: eval, order: order}
}

// Stats returns the node counts accumulated so far.
func (s *Searcher) Stats() Stats { return s.stats }

func (s *Searcher) apply(m board.Move) {
	if err := s.pos.ApplyMove(m); err != nil {
		panic(&PreconditionError{Op: "apply", Move: m, FEN: s.pos.FEN(), Err: err})
	}
	s.applied++
}

func (s *Searcher) undo(m board.Move) {
	if err := s.pos.UndoLastMove(); err != nil {
		panic(&PreconditionError{Op: "undo", Move: m, FEN: s.pos.FEN(), Err: err})
	}
	s.applied--
}

// Search returns the minimax value of the position to depth plies, pruned
// to the window [alpha, beta]. At depth 0 it hands over to Quiescence.
func (s *Searcher) Search(depth int, alpha, beta Score, maximizing bool) Score {
	if depth <= 0 {
		return s.Quiescence(alpha, beta, maximizing)
	}
	s.stats.Nodes++

	moves := s.pos.DetailedMoves()
	if len(moves) == 0 {
		if s.pos.InCheck() {
			return mated(maximizing)
		}
		return DrawScore
	}
	s.order.Order(moves)

	best := Infinity
	if maximizing {
		best = -Infinity
	}
	for _, mi := range moves {
		s.apply(mi.Move)
		v := s.Search(depth-1, alpha, beta, !maximizing)
		s.undo(mi.Move)

		if maximizing {
			best = max(best, v)
			alpha = max(alpha, best)
		} else {
			best = min(best, v)
			beta = min(beta, best)
		}
		if beta <= alpha {
			return best
		}
	}
	return best
}

// Quiescence extends a leaf through captures and promotions only, letting
// the side to move stand pat on the static evaluation. It has no depth
// limit: every capture takes material off the board.
func (s *Searcher) Quiescence(alpha, beta Score, maximizing bool) Score {
	s.stats.QNodes++

	standPat := s.eval.Evaluate(s.pos)
	if maximizing {
		if standPat >= beta {
			return beta
		}
		alpha = max(alpha, standPat)
	} else {
		if standPat <= alpha {
			return alpha
		}
		beta = min(beta, standPat)
	}

	moves := s.pos.DetailedMoves()
	noisy := moves[:0]
	for _, mi := range moves {
		if mi.IsCapture() || mi.IsPromotion() {
			noisy = append(noisy, mi)
		}
	}
	s.order.Order(noisy)

	for _, mi := range noisy {
		s.apply(mi.Move)
		v := s.Quiescence(alpha, beta, !maximizing)
		s.undo(mi.Move)

		if maximizing {
			alpha = max(alpha, v)
		} else {
			beta = min(beta, v)
		}
		if beta <= alpha {
			break
		}
	}
	if maximizing {
		return alpha
	}
	return beta
}

// SearchRoot picks a move for the side to move by searching each root move
// with a full window. Among equal best values the last one examined wins,
// so shuffling the root varies play between equal replies. ok is false
// when there are no legal moves.
func (s *Searcher) SearchRoot(depth int, maximizing bool) (best board.MoveInfo, score Score, ok bool) {
	moves := s.pos.DetailedMoves()
	if len(moves) == 0 {
		return board.MoveInfo{}, s.eval.Evaluate(s.pos), false
	}
	if s.shuffle != nil {
		s.shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
	}
	s.order.Order(moves)
	depth = max(depth, 1)

	score = Infinity
	if maximizing {
		score = -Infinity
	}
	found := -1
	for i, mi := range moves {
		s.apply(mi.Move)
		v := s.Search(depth-1, -Infinity, Infinity, !maximizing)
		s.undo(mi.Move)

		if (maximizing && v >= score) || (!maximizing && v <= score) {
			score, found = v, i
		}
	}
	if found < 0 {
		found = 0
	}
	return moves[found], score, true
}
