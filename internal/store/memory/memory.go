// Package memory keeps player statistics in process memory. State is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

type Store struct {
	mu       sync.RWMutex
	recorded map[string]bool
	players  map[string]ports.PlayerStats
}

var _ ports.StatsStore = (*Store)(nil)

func New() *Store {
	return &Store{
		recorded: make(map[string]bool),
		players:  make(map[string]ports.PlayerStats),
	}
}

func (s *Store) RecordGame(_ context.Context, result ports.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorded[result.SessionID] {
		return nil
	}
	s.recorded[result.SessionID] = true

	for _, p := range result.Players {
		if p.Computer {
			continue
		}
		st := s.players[p.Name]
		st.Name = p.Name
		st.Games++
		if p.Won {
			st.Wins++
		}
		st.TotalScore += p.Score
		if st.Games == 1 || p.Score > st.BestScore {
			st.BestScore = p.Score
		}
		s.players[p.Name] = st
	}
	return nil
}

func (s *Store) PlayerStats(_ context.Context, name string) (ports.PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.players[name]
	if !ok {
		return ports.PlayerStats{}, ports.ErrStatsNotFound
	}
	return st, nil
}
