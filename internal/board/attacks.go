package board

// Ray directions. The first four step to higher square indexes, so the
// nearest blocker on them is the lowest set bit.
const (
	north = iota
	northEast
	east
	northWest
	south
	southWest
	west
	southEast
)

var (
	stepFile = [8]int{0, 1, 1, -1, 0, -1, -1, 1}
	stepRank = [8]int{1, 1, 0, 1, -1, -1, 0, -1}

	rookDirections   = [4]int{north, east, south, west}
	bishopDirections = [4]int{northEast, northWest, southWest, southEast}
)

var (
	knightTargets [64]Bitboard
	kingTargets   [64]Bitboard
	pawnTargets   [2][64]Bitboard
	rays          [8][64]Bitboard
)

func init() {
	knightJumps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	for sq := A1; sq <= H8; sq++ {
		f, r := sq.File(), sq.Rank()
		for _, j := range knightJumps {
			knightTargets[sq] |= offset(f+j[0], r+j[1])
		}
		for d := range 8 {
			kingTargets[sq] |= offset(f+stepFile[d], r+stepRank[d])
			for nf, nr := f+stepFile[d], r+stepRank[d]; onBoard(nf, nr); nf, nr = nf+stepFile[d], nr+stepRank[d] {
				rays[d][sq] |= bit(NewSquare(nf, nr))
			}
		}
		pawnTargets[White][sq] = offset(f-1, r+1) | offset(f+1, r+1)
		pawnTargets[Black][sq] = offset(f-1, r-1) | offset(f+1, r-1)
	}
}

func onBoard(f, r int) bool { return f >= 0 && f < 8 && r >= 0 && r < 8 }

func offset(f, r int) Bitboard {
	if !onBoard(f, r) {
		return 0
	}
	return bit(NewSquare(f, r))
}

func slide(sq Square, occupied Bitboard, dirs [4]int) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		ray := rays[d][sq]
		if blockers := ray & occupied; blockers != 0 {
			var stop Square
			if d < south {
				stop = blockers.First()
			} else {
				stop = blockers.Last()
			}
			ray &^= rays[d][stop]
		}
		attacks |= ray
	}
	return attacks
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard { return knightTargets[sq] }

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard { return kingTargets[sq] }

// PawnAttacks returns the capture squares of a c pawn on sq.
func PawnAttacks(sq Square, c Color) Bitboard { return pawnTargets[c][sq] }

// BishopAttacks returns diagonal attacks from sq, stopping at blockers.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, bishopDirections)
}

// RookAttacks returns orthogonal attacks from sq, stopping at blockers.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, rookDirections)
}

// QueenAttacks is the union of rook and bishop attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Attackers returns the pieces of colour by that attack sq.
func (p *Position) Attackers(sq Square, by Color) Bitboard {
	pcs := &p.pieces[by]
	diag := pcs[Bishop] | pcs[Queen]
	line := pcs[Rook] | pcs[Queen]
	return pawnTargets[by.Other()][sq]&pcs[Pawn] |
		knightTargets[sq]&pcs[Knight] |
		kingTargets[sq]&pcs[King] |
		BishopAttacks(sq, p.all)&diag |
		RookAttacks(sq, p.all)&line
}

// IsAttacked reports whether any piece of colour by attacks sq.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	return p.Attackers(sq, by) != 0
}
