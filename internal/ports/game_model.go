package ports

import "github.com/fuubian/Scrabble-sub000/internal/domain"

// GameModel is the authoritative game state and rules.
// Implementations are not safe for concurrent use; the session loop owns them.
type GameModel interface {
	// PlayWord validates and applies a word play for the current player.
	// Returns the points scored, or an error describing why the play was rejected.
	PlayWord(play domain.WordPlay) (int, error)

	// Pass ends the current player's turn without a play.
	Pass() error

	// ChangeTiles returns tiles from the current player's rack to the bag and draws replacements.
	ChangeTiles(tiles []domain.Tile) error

	// ExecuteMove applies a complete move as produced by a MoveSelector.
	ExecuteMove(move domain.Move) error

	// FinishGame ends the game and settles final scores.
	FinishGame() error

	GameState() domain.GameState
	CurrentPlayer() domain.Player
	CurrentPlayerIndex() int

	// ScorelessTurns counts consecutive moves that scored nothing.
	ScorelessTurns() int

	// Board returns a copy of the committed board.
	Board() *domain.Board

	// Rack returns a copy of the given player's rack.
	Rack(player int) []domain.Tile

	// TurnSnapshot returns a complete copy of the state. Seq is left for the caller to stamp.
	TurnSnapshot() domain.TurnSnapshot

	// ApplyTurnSnapshot replaces the whole state with snapshot.
	ApplyTurnSnapshot(snapshot domain.TurnSnapshot) error

	// View returns a detached read-only copy that may be used from another goroutine.
	View() GameView
}

// GameView is what move selection gets to see.
type GameView interface {
	Board() *domain.Board
	Rack(player int) []domain.Tile
	CurrentPlayerIndex() int
	TilesRemaining() int

	// Evaluate returns the score move would earn without applying it.
	Evaluate(move domain.Move) (int, error)
}

// Dictionary decides which words are playable.
type Dictionary interface {
	Contains(word string) bool
	// Words lists every playable word; it may be empty for permissive dictionaries.
	Words() []string
}
