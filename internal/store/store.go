// Package store selects the statistics backend named in the settings.
package store

import (
	"context"
	"fmt"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/fuubian/Scrabble-sub000/internal/store/memory"
	"github.com/fuubian/Scrabble-sub000/internal/store/postgres"
	"github.com/fuubian/Scrabble-sub000/internal/store/sqlite"
)

// Open returns the StatsStore for driver ("memory", "sqlite" or "postgres")
// and a function releasing it.
func Open(ctx context.Context, driver, dsn string) (ports.StatsStore, func() error, error) {
	switch driver {
	case "", "memory":
		return memory.New(), func() error { return nil }, nil
	case "sqlite", "sqlite3":
		s, err := sqlite.Open(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite stats: %w", err)
		}
		return s, s.Close, nil
	case "postgres", "pgx":
		s, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres stats: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown stats driver %q", driver)
	}
}
