package game

import (
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

// Result turns a finished game's snapshot into a statistics record.
// Every player with the top score is marked as a winner.
func Result(sessionID string, s domain.TurnSnapshot, finishedAt time.Time) ports.GameResult {
	best := 0
	for i, p := range s.Players {
		if i == 0 || p.Score > best {
			best = p.Score
		}
	}

	result := ports.GameResult{
		SessionID:  sessionID,
		Moves:      len(s.History),
		FinishedAt: finishedAt,
	}
	for _, p := range s.Players {
		result.Players = append(result.Players, ports.PlayerResult{
			Name:     p.Name,
			Score:    p.Score,
			Won:      p.Score == best,
			Computer: p.Computer,
		})
	}
	return result
}
