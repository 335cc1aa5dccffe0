package domain

import "fmt"

// GameState represents the lifecycle stage of a game as reported by the model.
type GameState string

const (
	// StateSetup is the state before the first snapshot has been dealt.
	StateSetup GameState = "setup"
	// StatePlay is the state while turns are being taken.
	StatePlay GameState = "play"
	// StateGameOver is the state after the game has been finished.
	StateGameOver GameState = "game_over"
)

// Orientation is the axis a word is read along.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Cross returns the perpendicular orientation.
func (o Orientation) Cross() Orientation {
	if o == Horizontal {
		return Vertical
	}
	return Horizontal
}

func (o Orientation) String() string {
	if o == Horizontal {
		return "HORIZONTAL"
	}
	return "VERTICAL"
}

// Position addresses a board cell. Row 0 is the top row, Col 0 the leftmost column.
type Position struct {
	Row int
	Col int
}

// Step moves n cells along the orientation axis. Negative n walks backwards.
func (p Position) Step(o Orientation, n int) Position {
	if o == Horizontal {
		return Position{Row: p.Row, Col: p.Col + n}
	}
	return Position{Row: p.Row + n, Col: p.Col}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Tile is a single letter tile. A joker carries Letter 0 until it has been resolved.
type Tile struct {
	Letter rune
	Points int
	Joker  bool
}

// Resolved reports whether the tile has a letter to play.
func (t Tile) Resolved() bool {
	return t.Letter != 0
}

// PlacedTile is a tile at a board position.
type PlacedTile struct {
	Pos  Position
	Tile Tile
}

// Player holds the per-participant state owned by the game model.
type Player struct {
	Name     string
	Computer bool
	Rack     []Tile
	Score    int
}

// MoveKind identifies what a move or history entry did.
type MoveKind string

const (
	MovePlay     MoveKind = "play"
	MovePass     MoveKind = "pass"
	MoveExchange MoveKind = "exchange"
	MoveFinish   MoveKind = "finish"
)

// WordPlay is the input of the model's play-word operation. Jokers lists the
// positions of newly placed tiles that must be taken from the rack's jokers.
type WordPlay struct {
	Word        string
	Anchor      Position
	Orientation Orientation
	Jokers      []Position
}

// Move is a complete turn decision, as produced by a move selector.
type Move struct {
	Kind     MoveKind
	Play     WordPlay
	Exchange []Tile
}

// MoveRecord is one entry of the game's move history.
type MoveRecord struct {
	Player int
	Kind   MoveKind
	Word   string
	Score  int
}
