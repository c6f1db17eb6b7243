package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a set of the four castling options.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, l := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(l)
		}
	}
	return sb.String()
}

// castlingKeep[sq] is and-ed into the rights whenever a move touches sq.
var castlingKeep = func() [64]CastlingRights {
	var keep [64]CastlingRights
	for i := range keep {
		keep[i] = AllCastling
	}
	keep[A1] &^= WhiteQueenside
	keep[H1] &^= WhiteKingside
	keep[E1] &^= WhiteKingside | WhiteQueenside
	keep[A8] &^= BlackQueenside
	keep[H8] &^= BlackKingside
	keep[E8] &^= BlackKingside | BlackQueenside
	return keep
}()

// Position is a complete board state. It is a plain value: copying it
// yields an independent position, and two positions compare equal with ==
// exactly when every field, including the hash, matches.
type Position struct {
	board    [64]Piece
	pieces   [2][6]Bitboard
	occupied [2]Bitboard
	all      Bitboard
	hash     uint64

	SideToMove     Color
	Castling       CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int
}

func emptyPosition() Position {
	p := Position{EnPassant: NoSquare, FullMoveNumber: 1}
	for i := range p.board {
		p.board[i] = NoPiece
	}
	return p
}

// PieceAt returns the piece on sq or NoPiece.
func (p *Position) PieceAt(sq Square) Piece { return p.board[sq] }

// Pieces returns the bitboard of c's pieces of type pt.
func (p *Position) Pieces(c Color, pt PieceType) Bitboard { return p.pieces[c][pt] }

// Occupied returns every square holding a piece of colour c.
func (p *Position) Occupied(c Color) Bitboard { return p.occupied[c] }

// King returns the king square of colour c, NoSquare if it has none.
func (p *Position) King(c Color) Square { return p.pieces[c][King].First() }

// Hash is the Zobrist key of the position.
func (p *Position) Hash() uint64 { return p.hash }

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	k := p.King(p.SideToMove)
	return k != NoSquare && p.IsAttacked(k, p.SideToMove.Other())
}

func (p *Position) put(pc Piece, sq Square) {
	c, pt := pc.Color(), pc.Type()
	p.board[sq] = pc
	p.pieces[c][pt] |= bit(sq)
	p.occupied[c] |= bit(sq)
	p.all |= bit(sq)
	p.hash ^= zobristPiece[c][pt][sq]
}

func (p *Position) remove(sq Square) Piece {
	pc := p.board[sq]
	if pc == NoPiece {
		return NoPiece
	}
	c, pt := pc.Color(), pc.Type()
	p.board[sq] = NoPiece
	p.pieces[c][pt] &^= bit(sq)
	p.occupied[c] &^= bit(sq)
	p.all &^= bit(sq)
	p.hash ^= zobristPiece[c][pt][sq]
	return pc
}

// Mirror returns the position flipped top to bottom with colours swapped,
// so that white's pieces become black's on the mirrored squares and the
// other side is to move.
func (p *Position) Mirror() Position {
	m := emptyPosition()
	for sq, pc := range p.board {
		if pc != NoPiece {
			m.put(MakePiece(pc.Type(), pc.Color().Other()), Square(sq).Mirror())
		}
	}
	m.SideToMove = p.SideToMove.Other()
	m.Castling = (p.Castling&(WhiteKingside|WhiteQueenside))<<2 | (p.Castling>>2)&(WhiteKingside|WhiteQueenside)
	if p.EnPassant != NoSquare {
		m.EnPassant = p.EnPassant.Mirror()
	}
	m.HalfMoveClock = p.HalfMoveClock
	m.FullMoveNumber = p.FullMoveNumber
	m.hash = m.computeHash()
	return m
}

// validate rejects placements that no legal game can reach and that the
// move generator cannot cope with.
func (p *Position) validate() error {
	for _, c := range []Color{White, Black} {
		if n := p.pieces[c][King].Count(); n != 1 {
			return fmt.Errorf("%s has %d kings", c, n)
		}
	}
	if (p.pieces[White][Pawn]|p.pieces[Black][Pawn])&(rank1|rank8) != 0 {
		return fmt.Errorf("pawn on first or last rank")
	}
	them := p.SideToMove.Other()
	if p.IsAttacked(p.King(them), p.SideToMove) {
		return fmt.Errorf("%s is in check with %s to move", them, p.SideToMove)
	}
	return nil
}

// String draws the board from white's side, for debugging.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d ", rank+1)
		for file := range 8 {
			sb.WriteByte(' ')
			sb.WriteByte(p.board[NewSquare(file, rank)].Letter())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n")
	fmt.Fprintf(&sb, "%s to move, castling %s, en passant %s, key %016x\n",
		p.SideToMove, p.Castling, p.EnPassant, p.hash)
	return sb.String()
}
