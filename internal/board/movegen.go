package board

// undo carries the state make cannot recompute when taking a move back.
type undo struct {
	move      Move
	captured  Piece
	castling  CastlingRights
	enPassant Square
	halfMove  int
	hash      uint64
}

// castleRook maps a castling king destination to the rook's from/to.
var castleRook = map[Square][2]Square{
	G1: {H1, F1},
	C1: {A1, D1},
	G8: {H8, F8},
	C8: {A8, D8},
}

func pawnStep(c Color) int {
	if c == White {
		return 8
	}
	return -8
}

// pseudoLegal appends every move that obeys piece movement, ignoring
// whether the mover's own king is left attacked.
func (p *Position) pseudoLegal(moves []Move) []Move {
	us := p.SideToMove
	own, enemy := p.occupied[us], p.occupied[us.Other()]

	moves = p.pawnMoves(moves, us, enemy)

	for pt := Knight; pt <= King; pt++ {
		for from := p.pieces[us][pt]; from != 0; {
			sq := from.Pop()
			var targets Bitboard
			switch pt {
			case Knight:
				targets = KnightAttacks(sq)
			case Bishop:
				targets = BishopAttacks(sq, p.all)
			case Rook:
				targets = RookAttacks(sq, p.all)
			case Queen:
				targets = QueenAttacks(sq, p.all)
			case King:
				targets = KingAttacks(sq)
			}
			for targets &^= own; targets != 0; {
				moves = append(moves, newMove(sq, targets.Pop(), kindNormal))
			}
		}
	}
	return p.castlingMoves(moves, us)
}

func (p *Position) pawnMoves(moves []Move, us Color, enemy Bitboard) []Move {
	step := pawnStep(us)
	startRank, lastRank := 1, 7
	if us == Black {
		startRank, lastRank = 6, 0
	}
	add := func(from, to Square) {
		if to.Rank() == lastRank {
			for pt := Queen; pt >= Knight; pt-- {
				moves = append(moves, newPromotion(from, to, pt))
			}
			return
		}
		moves = append(moves, newMove(from, to, kindNormal))
	}

	for pawns := p.pieces[us][Pawn]; pawns != 0; {
		from := pawns.Pop()
		one := Square(int(from) + step)
		if p.board[one] == NoPiece {
			add(from, one)
			if two := Square(int(one) + step); from.Rank() == startRank && p.board[two] == NoPiece {
				moves = append(moves, newMove(from, two, kindNormal))
			}
		}
		for caps := PawnAttacks(from, us) & enemy; caps != 0; {
			add(from, caps.Pop())
		}
		if p.EnPassant != NoSquare && PawnAttacks(from, us).Has(p.EnPassant) {
			moves = append(moves, newMove(from, p.EnPassant, kindEnPassant))
		}
	}
	return moves
}

func (p *Position) castlingMoves(moves []Move, us Color) []Move {
	them := us.Other()
	type option struct {
		right    CastlingRights
		king, to Square
		empty    []Square
		safe     []Square
	}
	options := []option{
		{WhiteKingside, E1, G1, []Square{F1, G1}, []Square{E1, F1}},
		{WhiteQueenside, E1, C1, []Square{D1, C1, B1}, []Square{E1, D1}},
		{BlackKingside, E8, G8, []Square{F8, G8}, []Square{E8, F8}},
		{BlackQueenside, E8, C8, []Square{D8, C8, B8}, []Square{E8, D8}},
	}
	for _, o := range options {
		if p.Castling&o.right == 0 || p.board[o.king] != MakePiece(King, us) {
			continue
		}
		ok := true
		for _, sq := range o.empty {
			ok = ok && p.board[sq] == NoPiece
		}
		for _, sq := range o.safe {
			ok = ok && !p.IsAttacked(sq, them)
		}
		if ok {
			moves = append(moves, newMove(o.king, o.to, kindCastle))
		}
	}
	return moves
}

// LegalMoves returns every legal move for the side to move.
func (p *Position) LegalMoves() []Move {
	moves := p.pseudoLegal(make([]Move, 0, 48))
	us := p.SideToMove
	legal := moves[:0]
	for _, m := range moves {
		u := p.makeMove(m)
		if !p.IsAttacked(p.King(us), us.Other()) {
			legal = append(legal, m)
		}
		p.unmakeMove(u)
	}
	return legal
}

// makeMove plays m, which must be pseudo-legal, and returns what
// unmakeMove needs to restore the position exactly.
func (p *Position) makeMove(m Move) undo {
	u := undo{
		move:      m,
		captured:  NoPiece,
		castling:  p.Castling,
		enPassant: p.EnPassant,
		halfMove:  p.HalfMoveClock,
		hash:      p.hash,
	}
	us := p.SideToMove
	from, to := m.From(), m.To()

	if p.EnPassant != NoSquare {
		p.hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++

	if m.IsEnPassant() {
		u.captured = p.remove(Square(int(to) - pawnStep(us)))
	} else {
		u.captured = p.remove(to)
	}

	mover := p.remove(from)
	if m.IsPromotion() {
		p.put(MakePiece(m.Promotion(), us), to)
	} else {
		p.put(mover, to)
	}

	if mover.Type() == Pawn || u.captured != NoPiece {
		p.HalfMoveClock = 0
	}
	if mover.Type() == Pawn && (int(to)-int(from) == 16 || int(from)-int(to) == 16) {
		p.EnPassant = Square((int(from) + int(to)) / 2)
		p.hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	if m.IsCastle() {
		r := castleRook[to]
		p.put(p.remove(r[0]), r[1])
	}

	p.hash ^= zobristCastling[p.Castling]
	p.Castling &= castlingKeep[from] & castlingKeep[to]
	p.hash ^= zobristCastling[p.Castling]

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = us.Other()
	p.hash ^= zobristBlack
	return u
}

func (p *Position) unmakeMove(u undo) {
	m := u.move
	us := p.SideToMove.Other()
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}
	from, to := m.From(), m.To()

	if m.IsCastle() {
		r := castleRook[to]
		p.put(p.remove(r[1]), r[0])
	}
	mover := p.remove(to)
	if m.IsPromotion() {
		mover = MakePiece(Pawn, us)
	}
	p.put(mover, from)
	if u.captured != NoPiece {
		if m.IsEnPassant() {
			p.put(u.captured, Square(int(to)-pawnStep(us)))
		} else {
			p.put(u.captured, to)
		}
	}

	p.Castling = u.castling
	p.EnPassant = u.enPassant
	p.HalfMoveClock = u.halfMove
	p.hash = u.hash
}

// insufficientMaterial covers the dead positions FIDE lists: bare kings,
// a single minor piece, and bishops all on one colour.
func (p *Position) insufficientMaterial() bool {
	for _, c := range []Color{White, Black} {
		if p.pieces[c][Pawn]|p.pieces[c][Rook]|p.pieces[c][Queen] != 0 {
			return false
		}
	}
	knights := p.pieces[White][Knight] | p.pieces[Black][Knight]
	bishops := p.pieces[White][Bishop] | p.pieces[Black][Bishop]
	minors := knights.Count() + bishops.Count()
	if minors <= 1 {
		return true
	}
	if knights != 0 {
		return false
	}
	const darkSquares Bitboard = 0xAA55AA55AA55AA55
	return bishops&darkSquares == 0 || bishops&^darkSquares == 0
}
