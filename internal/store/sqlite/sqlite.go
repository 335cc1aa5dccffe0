// Package sqlite stores player statistics in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

var _ ports.StatsStore = (*Store)(nil)

// Open opens (and creates if missing) the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// migrate applies every embedded migration in lexical order, once.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, name).Scan(&done)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		log.Info().Str("migration", strings.TrimPrefix(name, "migrations/")).Msg("applied")
	}
	return nil
}

func (s *Store) RecordGame(ctx context.Context, result ports.GameResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO games (session_id, moves, finished_at) VALUES (?, ?, ?)`,
		result.SessionID, result.Moves, result.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return err
	}

	for _, p := range result.Players {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_players (session_id, name, score, won, computer) VALUES (?, ?, ?, ?, ?)`,
			result.SessionID, p.Name, p.Score, p.Won, p.Computer); err != nil {
			return fmt.Errorf("insert player %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

func (s *Store) PlayerStats(ctx context.Context, name string) (ports.PlayerStats, error) {
	st := ports.PlayerStats{Name: name}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(won), 0), COALESCE(SUM(score), 0), COALESCE(MAX(score), 0)
		FROM game_players
		WHERE name = ? AND computer = 0`, name,
	).Scan(&st.Games, &st.Wins, &st.TotalScore, &st.BestScore)
	if err != nil {
		return ports.PlayerStats{}, fmt.Errorf("query stats: %w", err)
	}
	if st.Games == 0 {
		return ports.PlayerStats{}, ports.ErrStatsNotFound
	}
	return st, nil
}
