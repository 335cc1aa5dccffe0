package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires the quick_match RPC and the relay match for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	stats := NewStorageStats(nk)
	if err := initializer.RegisterMatch(MatchNameScrabble, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(stats), nil
	}); err != nil {
		return err
	}

	logger.Info("Scrabble relay module loaded.")
	return nil
}
