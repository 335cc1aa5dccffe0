package domain

const (
	// BoardSize is the side length of the square board.
	BoardSize = 15
	// RackSize is the number of tiles a player holds after drawing.
	RackSize = 7
	// MinWordLength is the shortest word the model accepts.
	MinWordLength = 2
)

// Center is the cell the opening word must cover.
var Center = Position{Row: BoardSize / 2, Col: BoardSize / 2}
