package lobby

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/fuubian/Scrabble-sub000/internal/game"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

type fakeStatsStore struct {
	stats map[string]ports.PlayerStats
	err   error
	calls int
}

func (f *fakeStatsStore) RecordGame(context.Context, ports.GameResult) error { return nil }

func (f *fakeStatsStore) PlayerStats(_ context.Context, name string) (ports.PlayerStats, error) {
	f.calls++
	if f.err != nil {
		return ports.PlayerStats{}, f.err
	}
	st, ok := f.stats[name]
	if !ok {
		return ports.PlayerStats{}, ports.ErrStatsNotFound
	}
	return st, nil
}

func newLobby(t *testing.T, stats ports.StatsStore, names ...string) *Service {
	t.Helper()
	s := NewService(stats, rand.New(rand.NewSource(1)))
	for _, n := range names {
		if _, err := s.Join(n, false); err != nil {
			t.Fatalf("Join(%s) returned error: %v", n, err)
		}
	}
	return s
}

func TestJoin_GeneratesNameAndRejectsDuplicates(t *testing.T) {
	s := newLobby(t, nil, "ann")

	name, err := s.Join("", false)
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if name == "" || name == "ann" {
		t.Fatalf("Expected a generated name, got %q", name)
	}
	if _, err := s.Join("ann", false); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("Expected ErrDuplicateName, got %v", err)
	}
}

func TestSeats_RequiresEveryoneReady(t *testing.T) {
	s := newLobby(t, nil, "ann")
	if _, err := s.Seats(); !errors.Is(err, game.ErrTooFewPlayers) {
		t.Fatalf("Expected ErrTooFewPlayers, got %v", err)
	}

	if _, err := s.Join("bot", true); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if _, err := s.Seats(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Expected ErrNotReady, got %v", err)
	}

	if err := s.SetReady("ann", true); err != nil {
		t.Fatalf("SetReady returned error: %v", err)
	}
	seats, err := s.Seats()
	if err != nil {
		t.Fatalf("Seats returned error: %v", err)
	}
	if len(seats) != 2 || seats[0].Name != "ann" || !seats[1].Computer {
		t.Fatalf("Unexpected seats %+v", seats)
	}
	if err := s.SetReady("nobody", true); !errors.Is(err, ErrUnknownMember) {
		t.Fatalf("Expected ErrUnknownMember, got %v", err)
	}
}

func TestReturnToLobby_ResetsReadyAndLoadsStats(t *testing.T) {
	stats := &fakeStatsStore{stats: map[string]ports.PlayerStats{
		"ann": {Name: "ann", Games: 3, Wins: 2, TotalScore: 600, BestScore: 310},
	}}
	s := newLobby(t, stats, "ann", "bob")
	s.Join("bot", true)
	s.SetReady("ann", true)
	s.SetReady("bob", true)

	if err := s.ReturnToLobby(context.Background(), "bob left"); err != nil {
		t.Fatalf("ReturnToLobby returned error: %v", err)
	}

	members := s.Members()
	if members[0].Ready || members[1].Ready {
		t.Fatal("Expected human members to need to ready up again")
	}
	if !members[2].Ready {
		t.Fatal("Expected computer member to stay ready")
	}
	if members[0].Stats == nil || members[0].Stats.Wins != 2 {
		t.Fatalf("Expected stats for ann, got %+v", members[0].Stats)
	}
	if members[1].Stats != nil {
		t.Fatalf("Expected no stats for bob, got %+v", members[1].Stats)
	}
	if got := s.LastResult(); got.Reason != "bob left" || len(got.StatsErrs) != 0 {
		t.Fatalf("Unexpected result %+v", got)
	}
}

func TestRefresh_StoreFailureIsNotFatal(t *testing.T) {
	s := newLobby(t, &fakeStatsStore{err: errors.New("db down")}, "ann", "bob")

	result, err := s.Refresh(context.Background(), "game over")
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(result.StatsErrs) != 2 {
		t.Fatalf("Expected 2 stats errors, got %v", result.StatsErrs)
	}
}
