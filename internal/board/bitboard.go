package board

import "math/bits"

// Bitboard holds one bit per square, bit 0 being A1.
type Bitboard uint64

const (
	rank1 Bitboard = 0xFF
	rank2 Bitboard = rank1 << 8
	rank7 Bitboard = rank1 << 48
	rank8 Bitboard = rank1 << 56
)

func bit(sq Square) Bitboard { return 1 << sq }

// Has reports whether sq is set.
func (b Bitboard) Has(sq Square) bool { return b&bit(sq) != 0 }

// Count is the population count.
func (b Bitboard) Count() int { return bits.OnesCount64(uint64(b)) }

// First returns the lowest set square, NoSquare when empty.
func (b Bitboard) First() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// Last returns the highest set square, NoSquare when empty.
func (b Bitboard) Last() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(63 - bits.LeadingZeros64(uint64(b)))
}

// Pop clears and returns the lowest set square.
func (b *Bitboard) Pop() Square {
	sq := b.First()
	*b &= *b - 1
	return sq
}
