package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN wraps every ParseFEN failure.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN reads a position. The move counters are optional.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: want at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}
	p := emptyPosition()

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("%w: want 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, row := range ranks {
		rank, file := 7-i, 0
		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc := PieceFromLetter(ch)
			if pc == NoPiece || file > 7 {
				return nil, fmt.Errorf("%w: bad rank %q", ErrInvalidFEN, row)
			}
			p.put(pc, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return nil, fmt.Errorf("%w: rank %q covers %d files", ErrInvalidFEN, row, file)
		}
	}

	switch fields[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	if fields[2] != "-" {
		for _, ch := range fields[2] {
			switch ch {
			case 'K':
				p.Castling |= WhiteKingside
			case 'Q':
				p.Castling |= WhiteQueenside
			case 'k':
				p.Castling |= BlackKingside
			case 'q':
				p.Castling |= BlackQueenside
			default:
				return nil, fmt.Errorf("%w: castling %q", ErrInvalidFEN, fields[2])
			}
		}
	}
	p.Castling &= p.castlingSupported()

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil || (sq.Rank() != 2 && sq.Rank() != 5) {
			return nil, fmt.Errorf("%w: en passant %q", ErrInvalidFEN, fields[3])
		}
		p.EnPassant = sq
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: half-move clock %q", ErrInvalidFEN, fields[4])
		}
		p.HalfMoveClock = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: move number %q", ErrInvalidFEN, fields[5])
		}
		p.FullMoveNumber = n
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	p.hash = p.computeHash()
	return &p, nil
}

// castlingSupported drops rights whose king or rook is not at home, which
// some FEN writers leave behind.
func (p *Position) castlingSupported() CastlingRights {
	var ok CastlingRights
	home := func(pc Piece, sq Square) bool { return p.board[sq] == pc }
	wk, bk := MakePiece(King, White), MakePiece(King, Black)
	wr, br := MakePiece(Rook, White), MakePiece(Rook, Black)
	if home(wk, E1) && home(wr, H1) {
		ok |= WhiteKingside
	}
	if home(wk, E1) && home(wr, A1) {
		ok |= WhiteQueenside
	}
	if home(bk, E8) && home(br, H8) {
		ok |= BlackKingside
	}
	if home(bk, E8) && home(br, A8) {
		ok |= BlackQueenside
	}
	return ok
}

// ToFEN writes the position in Forsyth-Edwards notation.
func (p *Position) ToFEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := range 8 {
			pc := p.board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pc.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if p.SideToMove == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, p.Castling, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)
	return sb.String()
}
