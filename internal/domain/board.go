package domain

// Bonus is the static premium of a board cell.
type Bonus int

const (
	BonusNone Bonus = iota
	DoubleLetter
	TripleLetter
	DoubleWord
	TripleWord
)

// LetterMultiplier returns the factor applied to a tile newly placed on the cell.
func (b Bonus) LetterMultiplier() int {
	switch b {
	case DoubleLetter:
		return 2
	case TripleLetter:
		return 3
	default:
		return 1
	}
}

// WordMultiplier returns the factor applied to every word covering a newly placed tile on the cell.
func (b Bonus) WordMultiplier() int {
	switch b {
	case DoubleWord:
		return 2
	case TripleWord:
		return 3
	default:
		return 1
	}
}

// standardLayout: T triple word, D double word, t triple letter, d double letter.
var standardLayout = [BoardSize]string{
	"T..d...T...d..T",
	".D...t...t...D.",
	"..D...d.d...D..",
	"d..D...d...D..d",
	"....D.....D....",
	".t...t...t...t.",
	"..d...d.d...d..",
	"T..d...D...d..T",
	"..d...d.d...d..",
	".t...t...t...t.",
	"....D.....D....",
	"d..D...d...D..d",
	"..D...d.d...D..",
	".D...t...t...D.",
	"T..d...T...d..T",
}

// Cell is one board square.
type Cell struct {
	Bonus Bonus
	Tile  *Tile
}

// Board is the committed game board. It is owned by the game model.
type Board struct {
	cells [BoardSize][BoardSize]Cell
}

// NewBoard returns an empty board with the standard premium layout.
func NewBoard() *Board {
	b := &Board{}
	for r, line := range standardLayout {
		for c, ch := range line {
			var bonus Bonus
			switch ch {
			case 'T':
				bonus = TripleWord
			case 'D':
				bonus = DoubleWord
			case 't':
				bonus = TripleLetter
			case 'd':
				bonus = DoubleLetter
			}
			b.cells[r][c].Bonus = bonus
		}
	}
	return b
}

// Size returns the side length of the board.
func (b *Board) Size() int { return BoardSize }

// InBounds reports whether p addresses a cell of the board.
func (b *Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// At returns the committed tile at p.
func (b *Board) At(p Position) (Tile, bool) {
	if !b.InBounds(p) || b.cells[p.Row][p.Col].Tile == nil {
		return Tile{}, false
	}
	return *b.cells[p.Row][p.Col].Tile, true
}

// Occupied reports whether p holds a committed tile. Out of bounds cells are never occupied.
func (b *Board) Occupied(p Position) bool {
	_, ok := b.At(p)
	return ok
}

// BonusAt returns the premium of the cell at p.
func (b *Board) BonusAt(p Position) Bonus {
	if !b.InBounds(p) {
		return BonusNone
	}
	return b.cells[p.Row][p.Col].Bonus
}

// Place commits t at p.
func (b *Board) Place(p Position, t Tile) error {
	if !b.InBounds(p) {
		return ErrOutOfBounds
	}
	if b.cells[p.Row][p.Col].Tile != nil {
		return ErrCellUnavailable
	}
	tile := t
	b.cells[p.Row][p.Col].Tile = &tile
	return nil
}

// Clear removes every committed tile.
func (b *Board) Clear() {
	for r := range b.cells {
		for c := range b.cells[r] {
			b.cells[r][c].Tile = nil
		}
	}
}

// Empty reports whether no tile has been committed yet.
func (b *Board) Empty() bool {
	for r := range b.cells {
		for c := range b.cells[r] {
			if b.cells[r][c].Tile != nil {
				return false
			}
		}
	}
	return true
}

// Tiles returns the committed tiles in row-major order.
func (b *Board) Tiles() []PlacedTile {
	var out []PlacedTile
	for r := range b.cells {
		for c := range b.cells[r] {
			if t := b.cells[r][c].Tile; t != nil {
				out = append(out, PlacedTile{Pos: Position{Row: r, Col: c}, Tile: *t})
			}
		}
	}
	return out
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	out := NewBoard()
	for _, pt := range b.Tiles() {
		_ = out.Place(pt.Pos, pt.Tile)
	}
	return out
}
