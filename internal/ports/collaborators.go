package ports

import (
	"context"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
)

// MoveSelector picks moves for computer-controlled players.
type MoveSelector interface {
	// ChooseMove is called off the session loop with a detached view.
	ChooseMove(ctx context.Context, view GameView) (domain.Move, error)
}

// View is everything a renderer needs to redraw the game.
type View struct {
	Snapshot    domain.TurnSnapshot
	Pending     []domain.PlacedTile
	LocalPlayer int
	// Rack is the local player's rack without the tiles currently placed on the board.
	Rack   []domain.Tile
	MyTurn bool
	// Targets are the empty cells that may take the next tile once the placed
	// tiles fix a row or column. Nil while any free cell may.
	Targets []domain.Position
}

// Renderer draws the game. Calls arrive on the session loop.
type Renderer interface {
	RefreshAll(view View)
	ShowError(err error)
	ShowNotice(message string)
}

// Prompter asks the local player for decisions. Calls block the session loop until answered.
type Prompter interface {
	Confirm(question string) bool
	// ChooseTiles lets the player pick at most max tiles from rack.
	ChooseTiles(rack []domain.Tile, max int) []domain.Tile
}

// Network carries encoded replication messages to and from every other participant.
type Network interface {
	// Broadcast sends data to every other participant.
	Broadcast(ctx context.Context, data []byte) error
	// Inbound delivers messages from other participants. It is closed when the network shuts down.
	Inbound() <-chan []byte
	Close() error
}

// Lobby is where participants go when a session ends.
type Lobby interface {
	ReturnToLobby(ctx context.Context, reason string) error
}
