package domain

// CellState is the per-turn state of a cell in the placement grid.
type CellState int

const (
	// CellFree is available and holds no tile.
	CellFree CellState = iota
	// CellPending holds a tile placed during the current turn.
	CellPending
	// CellCommitted is permanently occupied.
	CellCommitted
)

// PlacementGrid tracks the tiles a local player places during one turn.
// It is plain data; the session loop is its only mutator.
//
// The four matrices follow the cell states:
//
//	FREE       available && !editable
//	PENDING    !available && editable
//	COMMITTED  !available && !editable
type PlacementGrid struct {
	available [BoardSize][BoardSize]bool
	editable  [BoardSize][BoardSize]bool
	valid     [BoardSize][BoardSize]bool
	isJoker   [BoardSize][BoardSize]bool
	tiles     [BoardSize][BoardSize]Tile

	// pending keeps placement order; the first two entries define the line.
	pending []Position
}

// NewPlacementGrid returns a grid where every cell is free.
func NewPlacementGrid() *PlacementGrid {
	g := &PlacementGrid{}
	g.Reset(nil)
	return g
}

// Reset starts a new turn: cells occupied on board become committed, every other cell free.
// A nil board frees every cell.
func (g *PlacementGrid) Reset(board *Board) {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			occupied := board != nil && board.Occupied(Position{Row: r, Col: c})
			g.available[r][c] = !occupied
			g.editable[r][c] = false
			g.isJoker[r][c] = false
			g.tiles[r][c] = Tile{}
		}
	}
	g.pending = g.pending[:0]
	g.recomputeValid()
}

func inGrid(p Position) bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// MarkPlaced moves a free cell to pending. The placement is rejected when the
// cell is unavailable or when the pending tiles would span two rows and two columns.
func (g *PlacementGrid) MarkPlaced(pos Position, tile Tile) error {
	if !inGrid(pos) {
		return ErrOutOfBounds
	}
	if !g.available[pos.Row][pos.Col] {
		return ErrCellUnavailable
	}
	if !g.fitsLine(pos) {
		return ErrNotInLine
	}

	g.available[pos.Row][pos.Col] = false
	g.editable[pos.Row][pos.Col] = true
	g.isJoker[pos.Row][pos.Col] = tile.Joker
	g.tiles[pos.Row][pos.Col] = tile
	g.pending = append(g.pending, pos)
	g.recomputeValid()
	return nil
}

// fitsLine reports whether pos keeps every pending tile on one row or one column.
func (g *PlacementGrid) fitsLine(pos Position) bool {
	sameRow, sameCol := true, true
	for _, p := range g.pending {
		if p.Row != pos.Row {
			sameRow = false
		}
		if p.Col != pos.Col {
			sameCol = false
		}
	}
	return sameRow || sameCol
}

// MarkRemoved moves a pending cell back to free and returns its tile.
func (g *PlacementGrid) MarkRemoved(pos Position) (Tile, error) {
	if !inGrid(pos) {
		return Tile{}, ErrOutOfBounds
	}
	if !g.editable[pos.Row][pos.Col] {
		return Tile{}, ErrNotPending
	}

	tile := g.release(pos)
	for i, p := range g.pending {
		if p == pos {
			g.pending = append(g.pending[:i], g.pending[i+1:]...)
			break
		}
	}
	g.recomputeValid()
	return tile, nil
}

// release frees a pending cell and returns its tile as it sat in the rack.
func (g *PlacementGrid) release(pos Position) Tile {
	tile := g.tiles[pos.Row][pos.Col]
	if tile.Joker {
		tile.Letter = 0
	}
	g.available[pos.Row][pos.Col] = true
	g.editable[pos.Row][pos.Col] = false
	g.isJoker[pos.Row][pos.Col] = false
	g.tiles[pos.Row][pos.Col] = Tile{}
	return tile
}

// RevertAll frees every pending cell and returns the tiles in placement order.
func (g *PlacementGrid) RevertAll() []Tile {
	out := make([]Tile, 0, len(g.pending))
	for _, p := range g.pending {
		out = append(out, g.release(p))
	}
	g.pending = g.pending[:0]
	g.recomputeValid()
	return out
}

// CommitAll turns every pending cell into a committed one and returns the committed tiles.
func (g *PlacementGrid) CommitAll() []PlacedTile {
	out := make([]PlacedTile, 0, len(g.pending))
	for _, p := range g.pending {
		out = append(out, PlacedTile{Pos: p, Tile: g.tiles[p.Row][p.Col]})
		g.editable[p.Row][p.Col] = false
		g.available[p.Row][p.Col] = false
		g.isJoker[p.Row][p.Col] = false
		g.tiles[p.Row][p.Col] = Tile{}
	}
	g.pending = g.pending[:0]
	g.recomputeValid()
	return out
}

// AssignJokerLetter resolves the letter a pending joker stands for.
func (g *PlacementGrid) AssignJokerLetter(pos Position, letter rune) error {
	if !inGrid(pos) {
		return ErrOutOfBounds
	}
	if !g.editable[pos.Row][pos.Col] {
		return ErrNotPending
	}
	if !g.isJoker[pos.Row][pos.Col] {
		return ErrNotJoker
	}
	l, ok := NormalizeLetter(letter)
	if !ok {
		return ErrInvalidLetter
	}
	g.tiles[pos.Row][pos.Col].Letter = l
	return nil
}

// recomputeValid applies the narrowing rule: with two or more pending tiles only
// available cells on the line of the first two are valid, otherwise every available cell.
func (g *PlacementGrid) recomputeValid() {
	restrict := len(g.pending) >= 2
	var first, second Position
	if restrict {
		first, second = g.pending[0], g.pending[1]
	}
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			ok := g.available[r][c]
			if ok && restrict {
				if first.Row == second.Row {
					ok = r == first.Row
				} else {
					ok = c == first.Col
				}
			}
			g.valid[r][c] = ok
		}
	}
}

// State returns the cell state at pos. Out of bounds positions report committed.
func (g *PlacementGrid) State(pos Position) CellState {
	if !inGrid(pos) {
		return CellCommitted
	}
	switch {
	case g.editable[pos.Row][pos.Col]:
		return CellPending
	case g.available[pos.Row][pos.Col]:
		return CellFree
	default:
		return CellCommitted
	}
}

// IsValid reports whether pos may receive the next placement.
func (g *PlacementGrid) IsValid(pos Position) bool {
	return inGrid(pos) && g.valid[pos.Row][pos.Col]
}

// PendingCount returns the number of tiles placed this turn.
func (g *PlacementGrid) PendingCount() int {
	return len(g.pending)
}

// Pending returns the pending placement set in placement order.
func (g *PlacementGrid) Pending() []PlacedTile {
	out := make([]PlacedTile, 0, len(g.pending))
	for _, p := range g.pending {
		out = append(out, PlacedTile{Pos: p, Tile: g.tiles[p.Row][p.Col]})
	}
	return out
}

// UnresolvedJokers returns the pending jokers that still lack a letter.
func (g *PlacementGrid) UnresolvedJokers() []Position {
	var out []Position
	for _, p := range g.pending {
		if g.isJoker[p.Row][p.Col] && g.tiles[p.Row][p.Col].Letter == 0 {
			out = append(out, p)
		}
	}
	return out
}

// JokerPositions returns the positions of every pending joker.
func (g *PlacementGrid) JokerPositions() []Position {
	var out []Position
	for _, p := range g.pending {
		if g.isJoker[p.Row][p.Col] {
			out = append(out, p)
		}
	}
	return out
}
