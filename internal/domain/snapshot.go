package domain

import "time"

// TurnSnapshot is a complete copy of the authoritative game state. A receiver
// replaces its own state with it wholesale; Seq orders snapshots of one session.
type TurnSnapshot struct {
	Seq            uint64
	State          GameState
	Board          []PlacedTile
	Players        []Player
	CurrentPlayer  int
	Bag            []Tile
	Elapsed        time.Duration
	ScorelessTurns int
	History        []MoveRecord
}

// TilesRemaining returns the number of tiles left in the bag.
func (s TurnSnapshot) TilesRemaining() int {
	return len(s.Bag)
}

// Clone returns a copy that shares no slices with s.
func (s TurnSnapshot) Clone() TurnSnapshot {
	out := s
	out.Board = append([]PlacedTile(nil), s.Board...)
	out.Bag = append([]Tile(nil), s.Bag...)
	out.History = append([]MoveRecord(nil), s.History...)
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Rack = append([]Tile(nil), p.Rack...)
		out.Players[i] = p
	}
	return out
}
