package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

func result(session string, ann, bot int) ports.GameResult {
	return ports.GameResult{
		SessionID: session,
		Players: []ports.PlayerResult{
			{Name: "ann", Score: ann, Won: ann >= bot},
			{Name: "quill", Score: bot, Won: bot >= ann, Computer: true},
		},
		Moves:      12,
		FinishedAt: time.Unix(1700000000, 0),
	}
}

func TestStoreAggregates(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, r := range []ports.GameResult{result("s1", 120, 80), result("s2", 60, 90), result("s1", 120, 80)} {
		if err := s.RecordGame(ctx, r); err != nil {
			t.Fatalf("RecordGame(%s): %v", r.SessionID, err)
		}
	}

	got, err := s.PlayerStats(ctx, "ann")
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	want := ports.PlayerStats{Name: "ann", Games: 2, Wins: 1, TotalScore: 180, BestScore: 120}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}

	if _, err := s.PlayerStats(ctx, "quill"); !errors.Is(err, ports.ErrStatsNotFound) {
		t.Fatalf("computer stats error = %v, want %v", err, ports.ErrStatsNotFound)
	}
}
