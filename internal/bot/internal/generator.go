package internal

import (
	"context"
	"strings"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

// Candidate is a legal word play together with what it leaves on the rack.
type Candidate struct {
	Play      domain.WordPlay
	Score     int
	TilesUsed int
	Leave     []domain.Tile
}

// Anchors returns the empty cells a new word has to cover: the centre on an
// empty board, otherwise every empty cell next to a committed tile.
func Anchors(board *domain.Board) []domain.Position {
	if board.Empty() {
		return []domain.Position{domain.Center}
	}
	var out []domain.Position
	for r := 0; r < board.Size(); r++ {
		for c := 0; c < board.Size(); c++ {
			p := domain.Position{Row: r, Col: c}
			if board.Occupied(p) {
				continue
			}
			if board.Occupied(domain.Position{Row: r - 1, Col: c}) || board.Occupied(domain.Position{Row: r + 1, Col: c}) ||
				board.Occupied(domain.Position{Row: r, Col: c - 1}) || board.Occupied(domain.Position{Row: r, Col: c + 1}) {
				out = append(out, p)
			}
		}
	}
	return out
}

// GetCandidates lists every play of a word from words through an anchor that
// the rack of seat can make and the model accepts. limit caps the result, 0 means no cap.
// Generation stops early when ctx is done.
func GetCandidates(ctx context.Context, view ports.GameView, seat int, words []string, limit int) []Candidate {
	board := view.Board()
	rack := view.Rack(seat)
	anchors := Anchors(board)

	type key struct {
		word string
		pos  domain.Position
		o    domain.Orientation
	}
	seen := make(map[key]bool)
	var out []Candidate

	for _, raw := range words {
		if ctx.Err() != nil {
			break
		}
		word := []rune(strings.ToUpper(raw))
		if len(word) < domain.MinWordLength || len(word) > board.Size() {
			continue
		}
		if !plausible(word, rack, board) {
			continue
		}
		for _, o := range []domain.Orientation{domain.Horizontal, domain.Vertical} {
			for _, anchor := range anchors {
				for i := range word {
					start := anchor.Step(o, -i)
					k := key{word: string(word), pos: start, o: o}
					if seen[k] {
						continue
					}
					seen[k] = true

					jokers, leave, used, ok := fit(board, rack, word, start, o)
					if !ok {
						continue
					}
					play := domain.WordPlay{Word: string(word), Anchor: start, Orientation: o, Jokers: jokers}
					score, err := view.Evaluate(domain.Move{Kind: domain.MovePlay, Play: play})
					if err != nil {
						continue
					}
					out = append(out, Candidate{Play: play, Score: score, TilesUsed: used, Leave: leave})
					if limit > 0 && len(out) >= limit {
						return out
					}
				}
			}
		}
	}
	return out
}

// plausible is a cheap filter: the rack plus the letters on the board must be
// able to supply the word.
func plausible(word []rune, rack []domain.Tile, board *domain.Board) bool {
	var have [26]int
	jokers := 0
	for _, t := range rack {
		if t.Joker {
			jokers++
			continue
		}
		if t.Letter >= 'A' && t.Letter <= 'Z' {
			have[t.Letter-'A']++
		}
	}
	for _, pt := range board.Tiles() {
		if pt.Tile.Letter >= 'A' && pt.Tile.Letter <= 'Z' {
			have[pt.Tile.Letter-'A']++
		}
	}
	missing := 0
	for _, l := range word {
		if l < 'A' || l > 'Z' {
			return false
		}
		if have[l-'A'] > 0 {
			have[l-'A']--
			continue
		}
		missing++
	}
	return missing <= jokers
}

// fit lays word from start along o, matching committed letters and taking the
// rest from rack. Jokers are used only when no plain tile has the letter.
func fit(board *domain.Board, rack []domain.Tile, word []rune, start domain.Position, o domain.Orientation) (jokers []domain.Position, leave []domain.Tile, used int, ok bool) {
	end := start.Step(o, len(word)-1)
	if !board.InBounds(start) || !board.InBounds(end) {
		return nil, nil, 0, false
	}
	if board.Occupied(start.Step(o, -1)) || board.Occupied(end.Step(o, 1)) {
		return nil, nil, 0, false
	}

	taken := make([]bool, len(rack))
	for i, l := range word {
		p := start.Step(o, i)
		if t, occupied := board.At(p); occupied {
			if t.Letter != l {
				return nil, nil, 0, false
			}
			continue
		}
		idx := -1
		for j, t := range rack {
			if !taken[j] && !t.Joker && t.Letter == l {
				idx = j
				break
			}
		}
		if idx < 0 {
			for j, t := range rack {
				if !taken[j] && t.Joker {
					idx = j
					jokers = append(jokers, p)
					break
				}
			}
		}
		if idx < 0 {
			return nil, nil, 0, false
		}
		taken[idx] = true
		used++
	}
	if used == 0 {
		return nil, nil, 0, false
	}
	for j, t := range rack {
		if !taken[j] {
			leave = append(leave, t)
		}
	}
	return jokers, leave, used, true
}
