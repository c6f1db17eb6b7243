// Package engine picks moves by fixed-depth minimax with alpha-beta pruning
// and a capture-only quiescence extension, scoring leaves with material
// plus piece-square tables.
//
// Scores are from white's point of view: white maximizes, black minimizes.
package engine

import "github.com/hailam/chessbot/internal/board"

// PositionView is the rules collaborator the search runs against. It owns
// the position; the search only changes it through ApplyMove and
// UndoLastMove and always leaves it as it found it. *board.Game
// implements it.
type PositionView interface {
	SideToMove() board.Color
	PieceAt(sq board.Square) board.Piece
	LegalMoves() []board.Move
	DetailedMoves() []board.MoveInfo
	ApplyMove(m board.Move) error
	UndoLastMove() error
	InCheck() bool
	IsCheckmate() bool
	IsStalemate() bool
	IsDraw() bool
	FEN() string
}

var _ PositionView = (*board.Game)(nil)
