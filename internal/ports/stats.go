package ports

import (
	"context"
	"errors"
	"time"
)

// ErrStatsNotFound is returned when no games were recorded for a player.
var ErrStatsNotFound = errors.New("no statistics for player")

// PlayerResult is one player's line of a finished game.
type PlayerResult struct {
	Name     string
	Score    int
	Won      bool
	Computer bool
}

// GameResult is recorded once per finished game.
type GameResult struct {
	SessionID  string
	Players    []PlayerResult
	Moves      int
	FinishedAt time.Time
}

// PlayerStats aggregates every recorded game of one player.
type PlayerStats struct {
	Name       string
	Games      int
	Wins       int
	TotalScore int
	BestScore  int
}

// StatsStore persists post-game statistics.
type StatsStore interface {
	// RecordGame stores result and updates every human player's aggregate.
	// Recording the same session twice is a no-op.
	RecordGame(ctx context.Context, result GameResult) error

	// PlayerStats returns the aggregate for name or ErrStatsNotFound.
	PlayerStats(ctx context.Context, name string) (PlayerStats, error)
}
