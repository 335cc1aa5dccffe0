package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/google/uuid"
)

func TestStoreAggregates(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	// Unique names keep reruns against the same database independent.
	human := "ann-" + uuid.NewString()
	session := uuid.NewString()
	r := ports.GameResult{
		SessionID: session,
		Players: []ports.PlayerResult{
			{Name: human, Score: 120, Won: true},
			{Name: "quill", Score: 80, Computer: true},
		},
		Moves:      9,
		FinishedAt: time.Now(),
	}
	for i := 0; i < 2; i++ {
		if err := s.RecordGame(ctx, r); err != nil {
			t.Fatalf("RecordGame #%d: %v", i+1, err)
		}
	}

	got, err := s.PlayerStats(ctx, human)
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	want := ports.PlayerStats{Name: human, Games: 1, Wins: 1, TotalScore: 120, BestScore: 120}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
	if _, err := s.PlayerStats(ctx, "nobody-"+uuid.NewString()); !errors.Is(err, ports.ErrStatsNotFound) {
		t.Fatalf("missing player error = %v", err)
	}
}
