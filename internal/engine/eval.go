package engine

import "github.com/hailam/chessbot/internal/board"

// EvalParams are the evaluator's tuning values. Tables are written from
// white's side with row 0 being the eighth rank; black reads them mirrored.
type EvalParams struct {
	PieceValues [6]Score
	Tables      [6][8][8]Score
}

// DefaultEvalParams returns the stock material values and piece-square tables.
func DefaultEvalParams() EvalParams {
	return EvalParams{
		PieceValues: [6]Score{100, 320, 330, 500, 900, 20000},
		Tables: [6][8][8]Score{
			board.Pawn: {
				{0, 0, 0, 0, 0, 0, 0, 0},
				{50, 50, 50, 50, 50, 50, 50, 50},
				{10, 10, 20, 30, 30, 20, 10, 10},
				{5, 5, 10, 25, 25, 10, 5, 5},
				{0, 0, 0, 20, 20, 0, 0, 0},
				{5, -5, -10, 0, 0, -10, -5, 5},
				{5, 10, 10, -20, -20, 10, 10, 5},
				{0, 0, 0, 0, 0, 0, 0, 0},
			},
			board.Knight: {
				{-50, -40, -30, -30, -30, -30, -40, -50},
				{-40, -20, 0, 0, 0, 0, -20, -40},
				{-30, 0, 10, 15, 15, 10, 0, -30},
				{-30, 5, 15, 20, 20, 15, 5, -30},
				{-30, 0, 15, 20, 20, 15, 0, -30},
				{-30, 5, 10, 15, 15, 10, 5, -30},
				{-40, -20, 0, 5, 5, 0, -20, -40},
				{-50, -40, -30, -30, -30, -30, -40, -50},
			},
			board.Bishop: {
				{-20, -10, -10, -10, -10, -10, -10, -20},
				{-10, 0, 0, 0, 0, 0, 0, -10},
				{-10, 0, 5, 10, 10, 5, 0, -10},
				{-10, 5, 5, 10, 10, 5, 5, -10},
				{-10, 0, 10, 10, 10, 10, 0, -10},
				{-10, 10, 10, 10, 10, 10, 10, -10},
				{-10, 5, 0, 0, 0, 0, 5, -10},
				{-20, -10, -10, -10, -10, -10, -10, -20},
			},
			board.Rook: {
				{0, 0, 0, 0, 0, 0, 0, 0},
				{5, 10, 10, 10, 10, 10, 10, 5},
				{-5, 0, 0, 0, 0, 0, 0, -5},
				{-5, 0, 0, 0, 0, 0, 0, -5},
				{-5, 0, 0, 0, 0, 0, 0, -5},
				{-5, 0, 0, 0, 0, 0, 0, -5},
				{-5, 0, 0, 0, 0, 0, 0, -5},
				{0, 0, 0, 5, 5, 0, 0, 0},
			},
			board.Queen: {
				{-20, -10, -10, -5, -5, -10, -10, -20},
				{-10, 0, 0, 0, 0, 0, 0, -10},
				{-10, 0, 5, 5, 5, 5, 0, -10},
				{-5, 0, 5, 5, 5, 5, 0, -5},
				{0, 0, 5, 5, 5, 5, 0, -5},
				{-10, 5, 5, 5, 5, 5, 0, -10},
				{-10, 0, 5, 0, 0, 0, 0, -10},
				{-20, -10, -10, -5, -5, -10, -10, -20},
			},
			board.King: {
				{-30, -40, -40, -50, -50, -40, -40, -30},
				{-30, -40, -40, -50, -50, -40, -40, -30},
				{-30, -40, -40, -50, -50, -40, -40, -30},
				{-30, -40, -40, -50, -50, -40, -40, -30},
				{-20, -30, -30, -40, -40, -30, -30, -20},
				{-10, -20, -20, -20, -20, -20, -20, -10},
				{20, 20, 0, 0, 0, 0, 20, 20},
				{20, 30, 10, 0, 0, 10, 30, 20},
			},
		},
	}
}

// Evaluator scores positions. It holds no search state and is safe for
// concurrent use.
type Evaluator struct {
	// signed value of each coloured piece on each square
	square [16][64]Score
}

// NewEvaluator folds the material values and tables into per-square values.
func NewEvaluator(p EvalParams) *Evaluator {
	e := &Evaluator{}
	for pt := board.Pawn; pt <= board.King; pt++ {
		for sq := board.A1; sq <= board.H8; sq++ {
			col := sq.File()
			white := p.PieceValues[pt] + p.Tables[pt][7-sq.Rank()][col]
			black := p.PieceValues[pt] + p.Tables[pt][sq.Rank()][col]
			e.square[board.MakePiece(pt, board.White)][sq] = white
			e.square[board.MakePiece(pt, board.Black)][sq] = -black
		}
	}
	return e
}

// Evaluate scores pos including terminal states: a checkmated side to
// move gets the full mate score against it, and stalemate or any other
// draw is zero.
func (e *Evaluator) Evaluate(pos PositionView) Score {
	if pos.IsCheckmate() {
		if pos.SideToMove() == board.White {
			return -MateScore
		}
		return MateScore
	}
	if pos.IsStalemate() || pos.IsDraw() {
		return DrawScore
	}
	return e.Material(pos)
}

// Material is the cheap variant: material and placement only, with no
// terminal checks.
func (e *Evaluator) Material(pos PositionView) Score {
	var total Score
	for sq := board.A1; sq <= board.H8; sq++ {
		if pc := pos.PieceAt(sq); pc != board.NoPiece {
			total += e.square[pc][sq]
		}
	}
	return total
}
