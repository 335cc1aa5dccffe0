package app

import "github.com/fuubian/Scrabble-sub000/internal/domain"

// EventKind identifies what a coordinator action changed.
type EventKind string

const (
	EventWordPlayed     EventKind = "word_played"
	EventTurnPassed     EventKind = "turn_passed"
	EventTilesExchanged EventKind = "tiles_exchanged"
	EventGameFinished   EventKind = "game_finished"
)

// Event is emitted after the model accepted an action.
type Event struct {
	Kind    EventKind
	Payload any
}

type WordPlayedPayload struct {
	Player    string
	Word      string
	Anchor    domain.Position
	Direction domain.Orientation
	Score     int
	Automated bool
}

type TurnPassedPayload struct {
	Player    string
	Automated bool
}

type TilesExchangedPayload struct {
	Player string
	Count  int
}

type GameFinishedPayload struct {
	Forced  bool
	Players []domain.Player
}
