package sqlite

import (
	"context"
	"errors"
	"path/filepath"
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
	path := filepath.Join(t.TempDir(), "data", "stats.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

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

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i+1, err)
		}
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if n != 2 {
			t.Fatalf("migrations recorded = %d, want 2", n)
		}
		s.Close()
	}
}
