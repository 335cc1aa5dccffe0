package app

import "github.com/fuubian/Scrabble-sub000/internal/domain"

// Intent is a request from the local player, produced by the user interface
// and consumed by the session loop.
type Intent interface {
	intent()
}

// PlaceTile puts a rack tile on a free cell. Letter '?' takes a joker from the rack.
type PlaceTile struct {
	Pos    domain.Position
	Letter rune
}

// RemoveTile takes a tile placed this turn back to the rack.
type RemoveTile struct {
	Pos domain.Position
}

// AssignJoker sets the letter a placed joker stands for.
type AssignJoker struct {
	Pos    domain.Position
	Letter rune
}

type ConfirmMove struct{}

type PassTurn struct{}

type ExchangeTiles struct{}

// Leave ends the session for every participant.
type Leave struct {
	Reason string
}

func (PlaceTile) intent()     {}
func (RemoveTile) intent()    {}
func (AssignJoker) intent()   {}
func (ConfirmMove) intent()   {}
func (PassTurn) intent()      {}
func (ExchangeTiles) intent() {}
func (Leave) intent()         {}
