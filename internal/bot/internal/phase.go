package internal

import "github.com/fuubian/Scrabble-sub000/internal/domain"

// GamePhase describes the current strategic stage of a game.
type GamePhase int

const (
	// PhaseOpening indicates nothing has been played yet.
	PhaseOpening GamePhase = iota
	// PhaseMid indicates the bag still refills racks comfortably.
	PhaseMid
	// PhaseEnd indicates the bag can no longer refill a full rack.
	PhaseEnd
)

func (p GamePhase) String() string {
	switch p {
	case PhaseOpening:
		return "opening"
	case PhaseEnd:
		return "end"
	default:
		return "mid"
	}
}

// DetectPhase infers the phase from the board and the number of tiles left in the bag.
func DetectPhase(board *domain.Board, tilesRemaining int) GamePhase {
	if board == nil || board.Empty() {
		return PhaseOpening
	}
	if tilesRemaining < domain.RackSize {
		return PhaseEnd
	}
	return PhaseMid
}
