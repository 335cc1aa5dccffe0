package bot

import botinternal "github.com/fuubian/Scrabble-sub000/internal/bot/internal"

// PhaseWeights tunes move choice for one game phase.
type PhaseWeights struct {
	Leave botinternal.LeaveWeights
	// LeaveWeight scales the leave value against the points of a move.
	LeaveWeight float64
	// JokerSpendPenalty is subtracted per joker a move uses.
	JokerSpendPenalty float64
}

// Tuning holds the weights of every phase plus the exchange policy.
type Tuning struct {
	Opening PhaseWeights
	Mid     PhaseWeights
	End     PhaseWeights
	// ExchangeBelow makes the bot exchange instead of playing when the best
	// move values less than this and the bag still allows an exchange.
	ExchangeBelow float64
	// MaxCandidates caps move generation per turn.
	MaxCandidates int
}

// ForPhase returns the weights to use in phase.
func (t Tuning) ForPhase(phase botinternal.GamePhase) PhaseWeights {
	switch phase {
	case botinternal.PhaseOpening:
		return t.Opening
	case botinternal.PhaseEnd:
		return t.End
	default:
		return t.Mid
	}
}

var defaultLeave = botinternal.LeaveWeights{
	JokerBonus:       12,
	EssBonus:         4,
	DuplicatePenalty: 2.5,
	AwkwardPenalty:   3,
	ImbalancePenalty: 1.5,
}

// DefaultTuning keeps good tiles early and only chases points once the bag runs dry.
var DefaultTuning = Tuning{
	Opening:       PhaseWeights{Leave: defaultLeave, LeaveWeight: 1.0, JokerSpendPenalty: 8},
	Mid:           PhaseWeights{Leave: defaultLeave, LeaveWeight: 0.8, JokerSpendPenalty: 6},
	End:           PhaseWeights{Leave: defaultLeave, LeaveWeight: 0.1, JokerSpendPenalty: 0},
	ExchangeBelow: 6,
	MaxCandidates: 5000,
}
