package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fuubian/Scrabble-sub000/internal/store/memory"
	"github.com/fuubian/Scrabble-sub000/internal/store/sqlite"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := Open(ctx, "", "")
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("default driver gave %T", s)
	}
	_ = closeFn()

	s, closeFn, err = Open(ctx, "sqlite", filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := s.(*sqlite.Store); !ok {
		t.Fatalf("sqlite driver gave %T", s)
	}
	_ = closeFn()

	if _, _, err := Open(ctx, "oracle", ""); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
