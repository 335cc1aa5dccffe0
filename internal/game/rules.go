package game

import (
	"fmt"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
)

type newTile struct {
	pos       domain.Position
	tile      domain.Tile
	rackIndex int
}

// plan is a validated, scored word play that has not been applied yet.
type plan struct {
	word     string
	newTiles []newTile
	score    int
}

func (g *Game) plan(play domain.WordPlay) (plan, error) {
	letters := normalizeWord(play.Word)
	if len(letters) < domain.MinWordLength {
		return plan{}, ErrWordTooShort
	}
	o := play.Orientation
	start := play.Anchor
	end := start.Step(o, len(letters)-1)
	if !g.board.InBounds(start) || !g.board.InBounds(end) {
		return plan{}, ErrOffBoard
	}
	if g.board.Occupied(start.Step(o, -1)) || g.board.Occupied(end.Step(o, 1)) {
		return plan{}, ErrTouchesTiles
	}

	jokerAt := make(map[domain.Position]bool, len(play.Jokers))
	for _, p := range play.Jokers {
		jokerAt[p] = true
	}

	rack := g.players[g.current].Rack
	used := make([]bool, len(rack))
	var placed []newTile
	touchesBoard := false

	for i, l := range letters {
		pos := start.Step(o, i)
		if t, ok := g.board.At(pos); ok {
			if t.Letter != l {
				return plan{}, fmt.Errorf("%w: %c at %v", ErrLetterMismatch, t.Letter, pos)
			}
			touchesBoard = true
			continue
		}
		if _, ok := domain.NormalizeLetter(l); !ok {
			return plan{}, domain.ErrInvalidLetter
		}

		idx := findRackTile(rack, used, l, jokerAt[pos])
		if idx < 0 {
			return plan{}, fmt.Errorf("%w: %c", ErrMissingTile, l)
		}
		used[idx] = true
		tile := rack[idx]
		if tile.Joker {
			tile.Letter = l
			tile.Points = 0
		}
		placed = append(placed, newTile{pos: pos, tile: tile, rackIndex: idx})

		cross := o.Cross()
		if g.board.Occupied(pos.Step(cross, -1)) || g.board.Occupied(pos.Step(cross, 1)) {
			touchesBoard = true
		}
	}

	if len(placed) == 0 {
		return plan{}, ErrNoNewTiles
	}
	if g.board.Empty() {
		covers := false
		for _, nt := range placed {
			if nt.pos == domain.Center {
				covers = true
			}
		}
		if !covers {
			return plan{}, ErrMustCoverCenter
		}
	} else if !touchesBoard {
		return plan{}, ErrNotConnected
	}

	word := string(letters)
	if !g.dict.Contains(word) {
		return plan{}, fmt.Errorf("%w: %s", ErrUnknownWord, word)
	}

	newAt := make(map[domain.Position]domain.Tile, len(placed))
	for _, nt := range placed {
		newAt[nt.pos] = nt.tile
	}
	score := g.scoreWord(start, o, len(letters), newAt)

	cross := o.Cross()
	for _, nt := range placed {
		from, length := g.crossSpan(nt.pos, cross)
		if length < 2 {
			continue
		}
		crossWord := g.readWord(from, cross, length, newAt)
		if !g.dict.Contains(crossWord) {
			return plan{}, fmt.Errorf("%w: %s", ErrUnknownWord, crossWord)
		}
		score += g.scoreWord(from, cross, length, map[domain.Position]domain.Tile{nt.pos: nt.tile})
	}

	if len(placed) == g.opts.RackSize {
		score += g.opts.BingoBonus
	}
	return plan{word: word, newTiles: placed, score: score}, nil
}

// findRackTile returns the index of an unused rack tile for letter, -1 if none.
func findRackTile(rack []domain.Tile, used []bool, letter rune, joker bool) int {
	for i, t := range rack {
		if used[i] || t.Joker != joker {
			continue
		}
		if joker || t.Letter == letter {
			return i
		}
	}
	return -1
}

// crossSpan finds the run of tiles through pos along o, counting pos as occupied.
func (g *Game) crossSpan(pos domain.Position, o domain.Orientation) (domain.Position, int) {
	from := pos
	for g.board.Occupied(from.Step(o, -1)) {
		from = from.Step(o, -1)
	}
	length := 1
	for p := pos.Step(o, 1); g.board.Occupied(p); p = p.Step(o, 1) {
		length++
	}
	length += pos.Row - from.Row + pos.Col - from.Col
	return from, length
}

func (g *Game) readWord(from domain.Position, o domain.Orientation, length int, newAt map[domain.Position]domain.Tile) string {
	out := make([]rune, 0, length)
	for i := 0; i < length; i++ {
		p := from.Step(o, i)
		if t, ok := newAt[p]; ok {
			out = append(out, t.Letter)
			continue
		}
		t, _ := g.board.At(p)
		out = append(out, t.Letter)
	}
	return string(out)
}

// scoreWord sums tile values; premiums apply only under tiles in newAt.
func (g *Game) scoreWord(from domain.Position, o domain.Orientation, length int, newAt map[domain.Position]domain.Tile) int {
	sum, factor := 0, 1
	for i := 0; i < length; i++ {
		p := from.Step(o, i)
		if t, ok := newAt[p]; ok {
			bonus := g.board.BonusAt(p)
			sum += t.Points * bonus.LetterMultiplier()
			factor *= bonus.WordMultiplier()
			continue
		}
		if t, ok := g.board.At(p); ok {
			sum += t.Points
		}
	}
	return sum * factor
}

func (g *Game) commit(p plan) {
	player := &g.players[g.current]

	used := make(map[int]bool, len(p.newTiles))
	for _, nt := range p.newTiles {
		_ = g.board.Place(nt.pos, nt.tile)
		used[nt.rackIndex] = true
	}
	kept := player.Rack[:0:0]
	for i, t := range player.Rack {
		if !used[i] {
			kept = append(kept, t)
		}
	}
	player.Rack = g.draw(kept, len(p.newTiles))
	player.Score += p.score

	g.history = append(g.history, domain.MoveRecord{Player: g.current, Kind: domain.MovePlay, Word: p.word, Score: p.score})
	if p.score == 0 {
		g.scoreless++
	} else {
		g.scoreless = 0
	}

	if len(player.Rack) == 0 && len(g.bag) == 0 {
		g.settle(g.current)
		return
	}
	g.advance()
}
