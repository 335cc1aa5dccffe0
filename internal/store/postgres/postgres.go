// Package postgres stores player statistics in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *pgxpool.Pool
}

var _ ports.StatsStore = (*Store)(nil)

// Open connects to dsn and applies the schema. Every migration is idempotent.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) RecordGame(ctx context.Context, result ports.GameResult) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO games (session_id, moves, finished_at) VALUES ($1, $2, $3)
		 ON CONFLICT (session_id) DO NOTHING`,
		result.SessionID, result.Moves, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	for _, p := range result.Players {
		if _, err := tx.Exec(ctx,
			`INSERT INTO game_players (session_id, name, score, won, computer) VALUES ($1, $2, $3, $4, $5)`,
			result.SessionID, p.Name, p.Score, p.Won, p.Computer); err != nil {
			return fmt.Errorf("insert player %s: %w", p.Name, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) PlayerStats(ctx context.Context, name string) (ports.PlayerStats, error) {
	st := ports.PlayerStats{Name: name}
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)::int,
		       COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0)::int,
		       COALESCE(SUM(score), 0)::int,
		       COALESCE(MAX(score), 0)::int
		FROM game_players
		WHERE name = $1 AND NOT computer`, name,
	).Scan(&st.Games, &st.Wins, &st.TotalScore, &st.BestScore)
	if err != nil {
		return ports.PlayerStats{}, fmt.Errorf("query stats: %w", err)
	}
	if st.Games == 0 {
		return ports.PlayerStats{}, ports.ErrStatsNotFound
	}
	return st, nil
}
