package bot

import (
	"context"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	CalculateMove(ctx context.Context, view ports.GameView, seat int) (domain.Move, error)
}

// passMove is what every strategy falls back to.
var passMove = domain.Move{Kind: domain.MovePass}
