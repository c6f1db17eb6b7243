package board

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
	NoColor
)

// Other returns the opposing side.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return "none"
}

// PieceType is a colourless piece kind.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

var pieceTypeNames = [...]string{"pawn", "knight", "bishop", "rook", "queen", "king", "none"}

func (pt PieceType) String() string {
	if pt > NoPieceType {
		return "none"
	}
	return pieceTypeNames[pt]
}

// Letter is the lowercase FEN letter, or 0 for NoPieceType.
func (pt PieceType) Letter() byte {
	if pt >= NoPieceType {
		return 0
	}
	return "pnbrqk"[pt]
}

// PieceTypeFromLetter accepts either case.
func PieceTypeFromLetter(c byte) PieceType {
	switch c | 0x20 {
	case 'p':
		return Pawn
	case 'n':
		return Knight
	case 'b':
		return Bishop
	case 'r':
		return Rook
	case 'q':
		return Queen
	case 'k':
		return King
	}
	return NoPieceType
}

// Piece is a coloured piece: the type in the low three bits, the colour
// in bit three.
type Piece uint8

// NoPiece marks an empty square.
const NoPiece = Piece(NoPieceType)

// MakePiece combines a type and colour.
func MakePiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(c)<<3 | Piece(pt)
}

// Type returns the piece kind.
func (p Piece) Type() PieceType {
	if p == NoPiece {
		return NoPieceType
	}
	return PieceType(p & 7)
}

// Color returns the owner, or NoColor for an empty square.
func (p Piece) Color() Color {
	if p == NoPiece {
		return NoColor
	}
	return Color(p >> 3)
}

// Letter is the FEN letter: uppercase for white, lowercase for black.
func (p Piece) Letter() byte {
	if p == NoPiece {
		return '.'
	}
	l := p.Type().Letter()
	if p.Color() == White {
		l -= 'a' - 'A'
	}
	return l
}

func (p Piece) String() string { return string(p.Letter()) }

// PieceFromLetter parses a FEN piece letter.
func PieceFromLetter(c byte) Piece {
	pt := PieceTypeFromLetter(c)
	if pt == NoPieceType {
		return NoPiece
	}
	if c >= 'a' {
		return MakePiece(pt, Black)
	}
	return MakePiece(pt, White)
}
