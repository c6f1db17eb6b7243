package board

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrIllegalMove is returned when a move is not legal in the current position.
	ErrIllegalMove = errors.New("illegal move")
	// ErrNoHistory is returned by UndoLastMove on a game with no moves played.
	ErrNoHistory = errors.New("no move to undo")
	// ErrNoMove is returned when a move token denotes the null move.
	ErrNoMove = errors.New("no move")
)

// Outcome classifies a position for the side to move.
type Outcome uint8

const (
	Ongoing Outcome = iota
	Checkmate
	Stalemate
	Draw
)

var outcomeNames = [...]string{"ongoing", "checkmate", "stalemate", "draw"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", o)
}

type ply struct {
	undo
	// legal moves of the position the move was played from, restored on undo
	legal []Move
}

// Game is a position plus the moves that led to it. It is the only thing
// allowed to mutate board state: callers play and take back moves through
// ApplyMove and UndoLastMove. A Game is not safe for concurrent use.
type Game struct {
	pos     Position
	initial Position
	history []ply
	legal   []Move
}

// NewGame starts a game from fen, or from the initial position when fen is empty.
func NewGame(fen string) (*Game, error) {
	if fen == "" {
		fen = StartFEN
	}
	pos, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{pos: *pos, initial: *pos}, nil
}

// Position returns a copy of the current position.
func (g *Game) Position() Position { return g.pos }

// SideToMove is the colour whose turn it is.
func (g *Game) SideToMove() Color { return g.pos.SideToMove }

// PieceAt returns the piece on sq.
func (g *Game) PieceAt(sq Square) Piece { return g.pos.board[sq] }

// Hash is the Zobrist key of the current position.
func (g *Game) Hash() uint64 { return g.pos.hash }

// FEN serialises the current position.
func (g *Game) FEN() string { return g.pos.ToFEN() }

// StartFEN serialises the position the game was created from.
func (g *Game) StartFEN() string { return g.initial.ToFEN() }

// Ply is the number of moves played since the game was created.
func (g *Game) Ply() int { return len(g.history) }

// Moves lists the moves played so far, oldest first.
func (g *Game) Moves() []Move {
	out := make([]Move, len(g.history))
	for i, h := range g.history {
		out[i] = h.move
	}
	return out
}

// Clone returns an independent copy, history included.
func (g *Game) Clone() *Game {
	c := *g
	c.history = slices.Clone(g.history)
	return &c
}

// Reset takes the game back to the position it was created from.
func (g *Game) Reset() {
	g.pos = g.initial
	g.history = g.history[:0]
	g.legal = nil
}

func (g *Game) legalMoves() []Move {
	if g.legal == nil {
		g.legal = g.pos.LegalMoves()
	}
	return g.legal
}

// LegalMoves returns the legal moves in the plain form.
func (g *Game) LegalMoves() []Move {
	return slices.Clone(g.legalMoves())
}

// DetailedMoves returns the legal moves annotated with the moving and
// captured pieces and the capture, promotion, castling, en passant and
// check flags.
func (g *Game) DetailedMoves() []MoveInfo {
	legal := g.legalMoves()
	out := make([]MoveInfo, len(legal))
	for i, m := range legal {
		out[i] = g.describe(m)
	}
	return out
}

// MovesFrom returns the detailed legal moves of the piece on sq.
func (g *Game) MovesFrom(sq Square) []MoveInfo {
	var out []MoveInfo
	for _, m := range g.legalMoves() {
		if m.From() == sq {
			out = append(out, g.describe(m))
		}
	}
	return out
}

func (g *Game) describe(m Move) MoveInfo {
	p := &g.pos
	mi := MoveInfo{
		Move:      m,
		Piece:     p.board[m.From()].Type(),
		Captured:  p.board[m.To()].Type(),
		Promotion: m.Promotion(),
	}
	switch {
	case m.IsEnPassant():
		mi.Captured = Pawn
		mi.Flags |= FlagEnPassant
	case m.IsCastle() && m.To() > m.From():
		mi.Flags |= FlagKingsideCastle
	case m.IsCastle():
		mi.Flags |= FlagQueensideCastle
	}
	if mi.Captured != NoPieceType {
		mi.Flags |= FlagCapture
	}
	if m.IsPromotion() {
		mi.Flags |= FlagPromotion
	}
	u := p.makeMove(m)
	if p.InCheck() {
		mi.Flags |= FlagCheck
	}
	p.unmakeMove(u)
	return mi
}

// ApplyMove plays m. It fails with ErrIllegalMove, leaving the game
// untouched, if m is not one of the current legal moves.
func (g *Game) ApplyMove(m Move) error {
	legal := g.legalMoves()
	if !slices.Contains(legal, m) {
		return fmt.Errorf("%w: %s in %s", ErrIllegalMove, m, g.FEN())
	}
	g.history = append(g.history, ply{undo: g.pos.makeMove(m), legal: legal})
	g.legal = nil
	return nil
}

// UndoLastMove takes back the most recent ApplyMove.
func (g *Game) UndoLastMove() error {
	n := len(g.history)
	if n == 0 {
		return ErrNoHistory
	}
	last := g.history[n-1]
	g.history = g.history[:n-1]
	g.pos.unmakeMove(last.undo)
	g.legal = last.legal
	return nil
}

// InCheck reports whether the side to move is in check.
func (g *Game) InCheck() bool { return g.pos.InCheck() }

// IsCheckmate reports a checked side with no legal reply.
func (g *Game) IsCheckmate() bool { return g.InCheck() && len(g.legalMoves()) == 0 }

// IsStalemate reports an unchecked side with no legal move.
func (g *Game) IsStalemate() bool { return !g.InCheck() && len(g.legalMoves()) == 0 }

// IsInsufficientMaterial reports that neither side can mate.
func (g *Game) IsInsufficientMaterial() bool { return g.pos.insufficientMaterial() }

// IsThreefoldRepetition reports that the current position has occurred
// at least twice before within the reversible part of the game.
func (g *Game) IsThreefoldRepetition() bool {
	seen := 1
	limit := min(g.pos.HalfMoveClock, len(g.history))
	for i := 1; i <= limit; i++ {
		if g.history[len(g.history)-i].hash == g.pos.hash {
			seen++
			if seen >= 3 {
				return true
			}
		}
	}
	return false
}

// IsDraw covers stalemate, the fifty-move rule, insufficient material and
// threefold repetition.
func (g *Game) IsDraw() bool {
	return g.pos.HalfMoveClock >= 100 ||
		g.IsInsufficientMaterial() ||
		g.IsThreefoldRepetition() ||
		g.IsStalemate()
}

// Outcome classifies the current position.
func (g *Game) Outcome() Outcome {
	switch {
	case g.IsCheckmate():
		return Checkmate
	case g.IsStalemate():
		return Stalemate
	case g.IsDraw():
		return Draw
	}
	return Ongoing
}

// IsGameOver reports any outcome other than Ongoing.
func (g *Game) IsGameOver() bool { return g.Outcome() != Ongoing }

// ResolveMove finds the legal move a compact token such as "e2e4" or
// "e7e8q" denotes. It is lenient: case and "-" or "x" separators are
// ignored, and a promotion without a piece letter becomes a queen.
func (g *Game) ResolveMove(token string) (MoveInfo, error) {
	tok := strings.ToLower(strings.TrimSpace(token))
	tok = strings.NewReplacer("-", "", "x", "", "=", "").Replace(tok)
	if tok == "" || tok == "0000" || tok == "(none)" {
		return MoveInfo{}, ErrNoMove
	}
	if len(tok) != 4 && len(tok) != 5 {
		return MoveInfo{}, fmt.Errorf("%w: cannot read %q", ErrIllegalMove, token)
	}
	from, err := ParseSquare(tok[:2])
	if err != nil {
		return MoveInfo{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	to, err := ParseSquare(tok[2:4])
	if err != nil {
		return MoveInfo{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	promo := Queen
	if len(tok) == 5 {
		promo = PieceTypeFromLetter(tok[4])
		if promo < Knight || promo > Queen {
			return MoveInfo{}, fmt.Errorf("%w: bad promotion in %q", ErrIllegalMove, token)
		}
	}
	for _, m := range g.legalMoves() {
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() && m.Promotion() != promo {
			continue
		}
		return g.describe(m), nil
	}
	return MoveInfo{}, fmt.Errorf("%w: %s in %s", ErrIllegalMove, tok, g.FEN())
}
