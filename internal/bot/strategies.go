package bot

import (
	"context"

	"github.com/fuubian/Scrabble-sub000/internal/bot/internal"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

// GreedyBot ranks every legal play by points plus the value of the tiles it
// keeps, and exchanges when nothing worthwhile is found.
type GreedyBot struct {
	Words  []string
	Tuning Tuning
	// Rules run after ranking; nil selects DefaultRules.
	Rules []SelectionRule
}

func (b *GreedyBot) CalculateMove(ctx context.Context, view ports.GameView, seat int) (domain.Move, error) {
	rack := view.Rack(seat)
	if len(rack) == 0 {
		return passMove, nil
	}

	board := view.Board()
	phase := internal.DetectPhase(board, view.TilesRemaining())
	weights := b.Tuning.ForPhase(phase)

	cands := internal.GetCandidates(ctx, view, seat, b.Words, b.Tuning.MaxCandidates)
	if err := ctx.Err(); err != nil && len(cands) == 0 {
		return passMove, err
	}

	scored := make([]ScoredCandidate, len(cands))
	best := -1
	for i, c := range cands {
		value := float64(c.Score) +
			weights.LeaveWeight*internal.EvaluateLeave(c.Leave, weights.Leave) -
			weights.JokerSpendPenalty*float64(len(c.Play.Jokers))
		scored[i] = ScoredCandidate{Candidate: c, Value: value}
		if best < 0 || value > scored[best].Value {
			best = i
		}
	}

	canExchange := view.TilesRemaining() >= domain.RackSize
	var exchange []domain.Tile
	if canExchange {
		exchange = internal.ExchangeChoice(rack, weights.Leave)
	}

	if best >= 0 {
		rules := b.Rules
		if rules == nil {
			rules = DefaultRules()
		}
		choice := runPipeline(scored, best, rules)
		if choice.Value >= b.Tuning.ExchangeBelow || len(exchange) == 0 {
			return domain.Move{Kind: domain.MovePlay, Play: choice.Play}, nil
		}
	}

	if len(exchange) > 0 {
		return domain.Move{Kind: domain.MoveExchange, Exchange: exchange}, nil
	}
	return passMove, nil
}
