package board

import "strings"

// Move packs a move into 16 bits: from in bits 0-5, to in bits 6-11,
// the promotion piece in bits 12-13 and the move kind in bits 14-15.
// The zero value is NoMove.
type Move uint16

// NoMove is printed as "0000", the UCI null move.
const NoMove Move = 0

const (
	kindNormal uint16 = iota << 14
	kindPromotion
	kindEnPassant
	kindCastle
	kindMask uint16 = 3 << 14
)

func newMove(from, to Square, kind uint16) Move {
	return Move(uint16(from) | uint16(to)<<6 | kind)
}

func newPromotion(from, to Square, pt PieceType) Move {
	return Move(uint16(from) | uint16(to)<<6 | uint16(pt-Knight)<<12 | kindPromotion)
}

// From is the origin square.
func (m Move) From() Square { return Square(m & 0x3F) }

// To is the destination square.
func (m Move) To() Square { return Square(m >> 6 & 0x3F) }

func (m Move) kind() uint16 { return uint16(m) & kindMask }

// IsPromotion reports a pawn promotion.
func (m Move) IsPromotion() bool { return m.kind() == kindPromotion }

// IsEnPassant reports an en passant capture.
func (m Move) IsEnPassant() bool { return m.kind() == kindEnPassant }

// IsCastle reports a castling move, encoded as the king's step.
func (m Move) IsCastle() bool { return m.kind() == kindCastle }

// Promotion is the piece a pawn becomes, NoPieceType otherwise.
func (m Move) Promotion() PieceType {
	if !m.IsPromotion() {
		return NoPieceType
	}
	return PieceType(m>>12&3) + Knight
}

// String renders the compact UCI form, e.g. "e2e4" or "a7a8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	var sb strings.Builder
	sb.WriteString(m.From().String())
	sb.WriteString(m.To().String())
	if m.IsPromotion() {
		sb.WriteByte(m.Promotion().Letter())
	}
	return sb.String()
}

// MoveFlags annotates a detailed move.
type MoveFlags uint8

const (
	FlagCapture MoveFlags = 1 << iota
	FlagPromotion
	FlagKingsideCastle
	FlagQueensideCastle
	FlagEnPassant
	FlagCheck
)

// Has reports whether every flag in f2 is set.
func (f MoveFlags) Has(f2 MoveFlags) bool { return f&f2 == f2 }

func (f MoveFlags) String() string {
	const letters = "cpkqe+"
	var sb strings.Builder
	for i := range len(letters) {
		if f&(1<<i) != 0 {
			sb.WriteByte(letters[i])
		}
	}
	return sb.String()
}

// MoveInfo is the detailed form of a legal move. It is an immutable value
// produced by the Game for the position it was generated in.
type MoveInfo struct {
	Move      Move
	Piece     PieceType
	Captured  PieceType
	Promotion PieceType
	Flags     MoveFlags
}

// From is the origin square.
func (mi MoveInfo) From() Square { return mi.Move.From() }

// To is the destination square.
func (mi MoveInfo) To() Square { return mi.Move.To() }

// IsCapture includes en passant.
func (mi MoveInfo) IsCapture() bool { return mi.Flags.Has(FlagCapture) }

// IsPromotion reports a promoting move.
func (mi MoveInfo) IsPromotion() bool { return mi.Flags.Has(FlagPromotion) }

// GivesCheck reports whether the move leaves the opponent in check.
func (mi MoveInfo) GivesCheck() bool { return mi.Flags.Has(FlagCheck) }

func (mi MoveInfo) String() string { return mi.Move.String() }
