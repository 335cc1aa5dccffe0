package domain

import "strings"

// ExtractedWord is the word a set of pending tiles forms with the committed board.
type ExtractedWord struct {
	Orientation Orientation
	Anchor      Position
	Letters     string
}

// End returns the position of the last letter.
func (w ExtractedWord) End() Position {
	return w.Anchor.Step(w.Orientation, len([]rune(w.Letters))-1)
}

// ExtractWord derives orientation, anchor and letters of the word played by pending.
// ok is false when nothing is pending.
func ExtractWord(board *Board, pending []PlacedTile) (word ExtractedWord, ok bool) {
	if len(pending) == 0 {
		return ExtractedWord{}, false
	}

	placed := make(map[Position]Tile, len(pending))
	for _, pt := range pending {
		placed[pt.Pos] = pt.Tile
	}

	orientation := extractOrientation(board, pending)

	anchor := pending[0].Pos
	for _, pt := range pending[1:] {
		if orientation == Horizontal && pt.Pos.Col < anchor.Col {
			anchor = pt.Pos
		}
		if orientation == Vertical && pt.Pos.Row < anchor.Row {
			anchor = pt.Pos
		}
	}
	for {
		prev := anchor.Step(orientation, -1)
		if _, isPending := placed[prev]; isPending || !board.Occupied(prev) {
			break
		}
		anchor = prev
	}

	var sb strings.Builder
	for p := anchor; board.InBounds(p); p = p.Step(orientation, 1) {
		if t, isPending := placed[p]; isPending {
			sb.WriteRune(displayLetter(t))
			continue
		}
		t, committed := board.At(p)
		if !committed {
			break
		}
		sb.WriteRune(displayLetter(t))
	}

	return ExtractedWord{Orientation: orientation, Anchor: anchor, Letters: sb.String()}, true
}

func displayLetter(t Tile) rune {
	if t.Letter == 0 {
		return '?'
	}
	return t.Letter
}

func extractOrientation(board *Board, pending []PlacedTile) Orientation {
	if len(pending) == 1 {
		p := pending[0].Pos
		if board.Occupied(p.Step(Vertical, -1)) || board.Occupied(p.Step(Vertical, 1)) {
			return Vertical
		}
		if board.Occupied(p.Step(Horizontal, -1)) || board.Occupied(p.Step(Horizontal, 1)) {
			return Horizontal
		}
		// isolated tile, e.g. a single-tile opening move
		return Vertical
	}

	perRow := make(map[int]int, len(pending))
	for _, pt := range pending {
		perRow[pt.Pos.Row]++
		if perRow[pt.Pos.Row] >= 2 {
			return Horizontal
		}
	}
	return Vertical
}

// CheckContiguity verifies that every cell strictly between the first and last
// pending tile on their shared line is either pending or committed.
func CheckContiguity(board *Board, pending []PlacedTile) error {
	if len(pending) == 0 {
		return ErrNothingPlaced
	}

	placed := make(map[Position]bool, len(pending))
	minRow, maxRow := pending[0].Pos.Row, pending[0].Pos.Row
	minCol, maxCol := pending[0].Pos.Col, pending[0].Pos.Col
	for _, pt := range pending {
		placed[pt.Pos] = true
		minRow = min(minRow, pt.Pos.Row)
		maxRow = max(maxRow, pt.Pos.Row)
		minCol = min(minCol, pt.Pos.Col)
		maxCol = max(maxCol, pt.Pos.Col)
	}

	var start Position
	var orientation Orientation
	var span int
	switch {
	case minRow == maxRow:
		start, orientation, span = Position{Row: minRow, Col: minCol}, Horizontal, maxCol-minCol
	case minCol == maxCol:
		start, orientation, span = Position{Row: minRow, Col: minCol}, Vertical, maxRow-minRow
	default:
		return ErrNotInLine
	}

	for i := 1; i < span; i++ {
		p := start.Step(orientation, i)
		if !placed[p] && !board.Occupied(p) {
			return ErrNotContiguous
		}
	}
	return nil
}
