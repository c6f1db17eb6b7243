package board

// Zobrist keys. The generator is seeded with a constant so hashes are
// stable across runs and can be persisted.
var (
	zobristPiece     [2][6][64]uint64
	zobristEnPassant [8]uint64
	zobristCastling  [16]uint64
	zobristBlack     uint64
)

func init() {
	// splitmix64
	state := uint64(0x5EED_C4E5_5B07_0001)
	next := func() uint64 {
		state += 0x9E3779B97F4A7C15
		z := state
		z = (z ^ z>>30) * 0xBF58476D1CE4E5B9
		z = (z ^ z>>27) * 0x94D049BB133111EB
		return z ^ z>>31
	}
	for c := range 2 {
		for pt := range 6 {
			for sq := range 64 {
				zobristPiece[c][pt][sq] = next()
			}
		}
	}
	for i := range zobristEnPassant {
		zobristEnPassant[i] = next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = next()
	}
	zobristBlack = next()
}

func (p *Position) computeHash() uint64 {
	var h uint64
	for sq, pc := range p.board {
		if pc != NoPiece {
			h ^= zobristPiece[pc.Color()][pc.Type()][sq]
		}
	}
	h ^= zobristCastling[p.Castling]
	if p.EnPassant != NoSquare {
		h ^= zobristEnPassant[p.EnPassant.File()]
	}
	if p.SideToMove == Black {
		h ^= zobristBlack
	}
	return h
}
