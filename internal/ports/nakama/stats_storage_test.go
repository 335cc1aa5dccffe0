package nakama

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// mockStorage keeps storage objects in memory, keyed by collection and key.
type mockStorage struct {
	objects map[[2]string]string
	writes  int
}

func (m *mockStorage) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	var out []*api.StorageObject
	for _, r := range reads {
		if v, ok := m.objects[[2]string{r.Collection, r.Key}]; ok {
			out = append(out, &api.StorageObject{Collection: r.Collection, Key: r.Key, Value: v})
		}
	}
	return out, nil
}

func (m *mockStorage) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if m.objects == nil {
		m.objects = make(map[[2]string]string)
	}
	m.writes++
	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, w := range writes {
		m.objects[[2]string{w.Collection, w.Key}] = w.Value
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key})
	}
	return acks, nil
}

func TestStorageStats(t *testing.T) {
	ctx := context.Background()
	storage := &mockStorage{}
	s := NewStorageStats(storage)

	game := func(session string, ann int) ports.GameResult {
		return ports.GameResult{
			SessionID: session,
			Players: []ports.PlayerResult{
				{Name: "ann", Score: ann, Won: ann > 50},
				{Name: "quill", Score: 50, Won: ann <= 50, Computer: true},
			},
			FinishedAt: time.Unix(1700000000, 0),
		}
	}
	for _, r := range []ports.GameResult{game("m1", 70), game("m2", 30), game("m1", 70)} {
		if err := s.RecordGame(ctx, r); err != nil {
			t.Fatalf("RecordGame(%s): %v", r.SessionID, err)
		}
	}
	if storage.writes != 2 {
		t.Fatalf("storage writes = %d, want 2", storage.writes)
	}

	got, err := s.PlayerStats(ctx, "ann")
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	want := ports.PlayerStats{Name: "ann", Games: 2, Wins: 1, TotalScore: 100, BestScore: 70}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
	if _, err := s.PlayerStats(ctx, "quill"); !errors.Is(err, ports.ErrStatsNotFound) {
		t.Fatalf("computer stats error = %v", err)
	}
}
