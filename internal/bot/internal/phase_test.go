package internal

import (
	"testing"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
)

func TestDetectPhase(t *testing.T) {
	played := domain.NewBoard()
	if err := played.Place(domain.Center, domain.NewTile('A')); err != nil {
		t.Fatalf("Place: %v", err)
	}

	tests := []struct {
		name      string
		board     *domain.Board
		remaining int
		want      GamePhase
	}{
		{"NilBoard", nil, 80, PhaseOpening},
		{"EmptyBoard", domain.NewBoard(), 86, PhaseOpening},
		{"FullBag", played, 50, PhaseMid},
		{"ExactlyOneRack", played, domain.RackSize, PhaseMid},
		{"AlmostEmptyBag", played, domain.RackSize - 1, PhaseEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectPhase(tt.board, tt.remaining); got != tt.want {
				t.Fatalf("DetectPhase = %v, want %v", got, tt.want)
			}
		})
	}
}
