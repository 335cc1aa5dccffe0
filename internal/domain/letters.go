package domain

import "unicode"

type letterSpec struct {
	count  int
	points int
}

var letterTable = map[rune]letterSpec{
	'A': {9, 1}, 'B': {2, 3}, 'C': {2, 3}, 'D': {4, 2}, 'E': {12, 1},
	'F': {2, 4}, 'G': {3, 2}, 'H': {2, 4}, 'I': {9, 1}, 'J': {1, 8},
	'K': {1, 5}, 'L': {4, 1}, 'M': {2, 3}, 'N': {6, 1}, 'O': {8, 1},
	'P': {2, 3}, 'Q': {1, 10}, 'R': {6, 1}, 'S': {4, 1}, 'T': {6, 1},
	'U': {4, 1}, 'V': {2, 4}, 'W': {2, 4}, 'X': {1, 8}, 'Y': {2, 4},
	'Z': {1, 10},
}

// JokerCount is the number of blank tiles in a full bag.
const JokerCount = 2

// LetterPoints returns the face value of a letter tile, 0 for unknown letters.
func LetterPoints(letter rune) int {
	return letterTable[unicode.ToUpper(letter)].points
}

// NewTile returns the standard tile for letter.
func NewTile(letter rune) Tile {
	l := unicode.ToUpper(letter)
	return Tile{Letter: l, Points: LetterPoints(l)}
}

// NewJoker returns an unresolved blank tile.
func NewJoker() Tile {
	return Tile{Joker: true}
}

// NormalizeLetter upper-cases letter and reports whether it is A-Z.
func NormalizeLetter(letter rune) (rune, bool) {
	l := unicode.ToUpper(letter)
	if l < 'A' || l > 'Z' {
		return 0, false
	}
	return l, true
}

// NewTileBag returns the full, unshuffled tile distribution.
func NewTileBag() []Tile {
	bag := make([]Tile, 0, 100)
	for l := 'A'; l <= 'Z'; l++ {
		for i := 0; i < letterTable[l].count; i++ {
			bag = append(bag, NewTile(l))
		}
	}
	for i := 0; i < JokerCount; i++ {
		bag = append(bag, NewJoker())
	}
	return bag
}
