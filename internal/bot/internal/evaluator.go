package internal

import (
	"sort"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
)

// LeaveWeights values the tiles left on the rack after a move.
type LeaveWeights struct {
	JokerBonus       float64
	EssBonus         float64
	DuplicatePenalty float64
	AwkwardPenalty   float64
	// ImbalancePenalty applies per tile beyond an even vowel and consonant split.
	ImbalancePenalty float64
}

// EvaluateLeave returns a heuristic value for keeping leave. Higher is better.
func EvaluateLeave(leave []domain.Tile, w LeaveWeights) float64 {
	p := ProfileRack(leave)
	score := float64(p.Jokers)*w.JokerBonus + float64(p.Esses)*w.EssBonus
	score -= float64(p.Duplicates) * w.DuplicatePenalty
	score -= float64(p.Awkward) * w.AwkwardPenalty

	diff := p.Vowels - p.Consonants
	if diff < 0 {
		diff = -diff
	}
	if diff > 1 {
		score -= float64(diff-1) * w.ImbalancePenalty
	}
	return score
}

// ExchangeChoice picks the tiles worth throwing back: every tile whose removal
// improves the leave, worst first. It never returns the whole rack unless every
// tile hurts.
func ExchangeChoice(rack []domain.Tile, w LeaveWeights) []domain.Tile {
	type scored struct {
		idx  int
		gain float64
	}
	base := EvaluateLeave(rack, w)
	var candidates []scored
	for i := range rack {
		rest := append(append([]domain.Tile(nil), rack[:i]...), rack[i+1:]...)
		if gain := EvaluateLeave(rest, w) - base; gain >= 0 {
			candidates = append(candidates, scored{idx: i, gain: gain})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].gain > candidates[j].gain })

	out := make([]domain.Tile, 0, len(candidates))
	for _, c := range candidates {
		if rack[c.idx].Joker || rack[c.idx].Letter == 'S' {
			continue
		}
		out = append(out, rack[c.idx])
	}
	return out
}
