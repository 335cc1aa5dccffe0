package nakama

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
)

type mockFinder struct {
	matches []*api.Match
	query   string
	created int
}

func (m *mockFinder) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	m.query = query
	return m.matches, nil
}

func (m *mockFinder) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	m.created++
	return "new-" + module, nil
}

func TestQuickMatch(t *testing.T) {
	tests := []struct {
		name    string
		matches []*api.Match
		want    QuickMatchResponse
	}{
		{"joins open lobby", []*api.Match{{MatchId: "m7"}}, QuickMatchResponse{MatchID: "m7"}},
		{"creates when none", nil, QuickMatchResponse{MatchID: "new-" + MatchNameScrabble, IsNew: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockFinder{matches: tt.matches}
			out, err := quickMatch(context.Background(), noopLogger{}, finder)
			if err != nil {
				t.Fatalf("quickMatch: %v", err)
			}
			var got QuickMatchResponse
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("response = %+v, want %+v", got, tt.want)
			}
			if !strings.Contains(finder.query, "+label.game:scrabble") || !strings.Contains(finder.query, "+label.phase:lobby") {
				t.Fatalf("query = %q", finder.query)
			}
		})
	}
}
