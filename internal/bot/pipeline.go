package bot

import (
	"github.com/fuubian/Scrabble-sub000/internal/bot/internal"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
)

// ScoredCandidate is a generated play with the strategy's overall value for it.
type ScoredCandidate struct {
	internal.Candidate
	Value float64
}

// SelectionContext holds the state for the move selection pipeline.
type SelectionContext struct {
	Candidates    []ScoredCandidate
	CurrentBest   ScoredCandidate
	SelectedIndex int
}

// SelectionRule represents a logic unit that can influence which candidate is chosen.
type SelectionRule interface {
	Name() string
	Apply(ctx *SelectionContext)
}

// FavorBingoRule switches to a play that empties a full rack when one exists
// within Margin of the current best value.
type FavorBingoRule struct {
	Margin float64
}

func (r *FavorBingoRule) Name() string { return "FavorBingo" }

func (r *FavorBingoRule) Apply(ctx *SelectionContext) {
	for i, c := range ctx.Candidates {
		if c.TilesUsed < domain.RackSize || i == ctx.SelectedIndex {
			continue
		}
		if c.Value+r.Margin >= ctx.CurrentBest.Value {
			ctx.SelectedIndex = i
			ctx.CurrentBest = c
			return
		}
	}
}

// FavorMoreTilesRule breaks exact ties in favour of the play that turns over more tiles.
type FavorMoreTilesRule struct{}

func (r *FavorMoreTilesRule) Name() string { return "FavorMoreTiles" }

func (r *FavorMoreTilesRule) Apply(ctx *SelectionContext) {
	for i, c := range ctx.Candidates {
		if c.Value == ctx.CurrentBest.Value && c.TilesUsed > ctx.CurrentBest.TilesUsed {
			ctx.SelectedIndex = i
			ctx.CurrentBest = c
		}
	}
}

// DefaultRules is the pipeline the greedy strategy runs after ranking.
func DefaultRules() []SelectionRule {
	return []SelectionRule{&FavorMoreTilesRule{}, &FavorBingoRule{Margin: 10}}
}

func runPipeline(cands []ScoredCandidate, best int, rules []SelectionRule) ScoredCandidate {
	ctx := &SelectionContext{Candidates: cands, CurrentBest: cands[best], SelectedIndex: best}
	for _, r := range rules {
		r.Apply(ctx)
	}
	return ctx.CurrentBest
}
