package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	statsCollection = "scrabble_stats"
	gamesCollection = "scrabble_games"
)

// StorageAPI is the part of runtime.NakamaModule the stats adapter needs.
type StorageAPI interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// StorageStats implements ports.StatsStore on Nakama storage objects owned by
// the system user: one object per player plus a marker per recorded match.
type StorageStats struct {
	nk StorageAPI
}

func NewStorageStats(nk StorageAPI) *StorageStats {
	return &StorageStats{nk: nk}
}

var _ ports.StatsStore = (*StorageStats)(nil)

type storedStats struct {
	Games      int `json:"games"`
	Wins       int `json:"wins"`
	TotalScore int `json:"total_score"`
	BestScore  int `json:"best_score"`
}

func (s *StorageStats) RecordGame(ctx context.Context, result ports.GameResult) error {
	reads := []*runtime.StorageRead{{Collection: gamesCollection, Key: result.SessionID}}
	for _, p := range result.Players {
		if !p.Computer {
			reads = append(reads, &runtime.StorageRead{Collection: statsCollection, Key: p.Name})
		}
	}
	objects, err := s.nk.StorageRead(ctx, reads)
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}

	current := make(map[string]storedStats)
	for _, obj := range objects {
		if obj.GetCollection() == gamesCollection {
			return nil
		}
		var st storedStats
		if err := json.Unmarshal([]byte(obj.GetValue()), &st); err != nil {
			return fmt.Errorf("decode stats of %s: %w", obj.GetKey(), err)
		}
		current[obj.GetKey()] = st
	}

	marker, err := json.Marshal(map[string]interface{}{"moves": result.Moves, "finished_at": result.FinishedAt.Unix()})
	if err != nil {
		return err
	}
	writes := []*runtime.StorageWrite{{
		Collection:      gamesCollection,
		Key:             result.SessionID,
		Value:           string(marker),
		PermissionRead:  0,
		PermissionWrite: 0,
	}}
	for _, p := range result.Players {
		if p.Computer {
			continue
		}
		st := current[p.Name]
		st.Games++
		if p.Won {
			st.Wins++
		}
		st.TotalScore += p.Score
		if st.Games == 1 || p.Score > st.BestScore {
			st.BestScore = p.Score
		}
		current[p.Name] = st

		value, err := json.Marshal(st)
		if err != nil {
			return err
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      statsCollection,
			Key:             p.Name,
			Value:           string(value),
			PermissionRead:  2,
			PermissionWrite: 0,
		})
	}

	if _, err := s.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

func (s *StorageStats) PlayerStats(ctx context.Context, name string) (ports.PlayerStats, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{Collection: statsCollection, Key: name}})
	if err != nil {
		return ports.PlayerStats{}, fmt.Errorf("read stats: %w", err)
	}
	if len(objects) == 0 {
		return ports.PlayerStats{}, ports.ErrStatsNotFound
	}
	var st storedStats
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &st); err != nil {
		return ports.PlayerStats{}, fmt.Errorf("decode stats of %s: %w", name, err)
	}
	return ports.PlayerStats{
		Name:       name,
		Games:      st.Games,
		Wins:       st.Wins,
		TotalScore: st.TotalScore,
		BestScore:  st.BestScore,
	}, nil
}
