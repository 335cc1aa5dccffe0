package internal

import "github.com/fuubian/Scrabble-sub000/internal/domain"

// RackProfile summarizes the tiles a player keeps for the next turn.
type RackProfile struct {
	Tiles      int
	Vowels     int
	Consonants int
	Jokers     int
	Esses      int
	// Duplicates counts every copy of a letter beyond the first.
	Duplicates int
	// Awkward counts hard to place tiles, Q without U and letters worth 8 or more.
	Awkward int
}

func isVowel(l rune) bool {
	switch l {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

// ProfileRack analyzes a rack or a leave.
func ProfileRack(tiles []domain.Tile) RackProfile {
	p := RackProfile{Tiles: len(tiles)}
	seen := make(map[rune]int, len(tiles))
	hasU := false
	for _, t := range tiles {
		if t.Joker {
			p.Jokers++
			continue
		}
		if t.Letter == 'U' {
			hasU = true
		}
		if isVowel(t.Letter) {
			p.Vowels++
		} else {
			p.Consonants++
		}
		if t.Letter == 'S' {
			p.Esses++
		}
		if seen[t.Letter] > 0 {
			p.Duplicates++
		}
		seen[t.Letter]++
	}
	for l, n := range seen {
		if l == 'Q' {
			if !hasU {
				p.Awkward += n
			}
			continue
		}
		if domain.LetterPoints(l) >= 8 {
			p.Awkward += n
		}
	}
	return p
}
