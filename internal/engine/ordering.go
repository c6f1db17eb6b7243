package engine

import (
	"slices"

	"github.com/hailam/chessbot/internal/board"
)

// OrderParams tune move ordering. Captures score
// CaptureScale*victim - attacker using the small Victim values; promotions
// and checks add fixed bonuses on top.
type OrderParams struct {
	CaptureScale   int
	PromotionBonus int
	CheckBonus     int
	Victim         [6]int
}

// DefaultOrderParams returns MVV-LVA ordering with promotion and check bonuses.
func DefaultOrderParams() OrderParams {
	return OrderParams{
		CaptureScale:   10,
		PromotionBonus: 1000,
		CheckBonus:     500,
		Victim:         [6]int{1, 3, 3, 5, 9, 100},
	}
}

// MoveOrderer sorts moves so likely refutations are searched first.
type MoveOrderer struct {
	p OrderParams
}

// NewMoveOrderer returns an orderer using p.
func NewMoveOrderer(p OrderParams) *MoveOrderer {
	return &MoveOrderer{p: p}
}

// Score is the ordering priority of mi; higher is searched earlier.
func (o *MoveOrderer) Score(mi board.MoveInfo) int {
	score := 0
	if mi.IsCapture() && mi.Captured < board.NoPieceType && mi.Piece < board.NoPieceType {
		score += o.p.CaptureScale*o.p.Victim[mi.Captured] - o.p.Victim[mi.Piece]
	}
	if mi.IsPromotion() {
		score += o.p.PromotionBonus
	}
	if mi.GivesCheck() {
		score += o.p.CheckBonus
	}
	return score
}

// Order sorts moves in place by descending Score and returns them. Moves
// with equal scores keep their relative order.
func (o *MoveOrderer) Order(moves []board.MoveInfo) []board.MoveInfo {
	type scored struct {
		mi    board.MoveInfo
		score int
	}
	buf := make([]scored, len(moves))
	for i, mi := range moves {
		buf[i] = scored{mi, o.Score(mi)}
	}
	slices.SortStableFunc(buf, func(a, b scored) int { return b.score - a.score })
	for i := range buf {
		moves[i] = buf[i].mi
	}
	return moves
}
