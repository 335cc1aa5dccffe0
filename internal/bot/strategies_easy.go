package bot

import (
	"context"
	"sort"

	"github.com/fuubian/Scrabble-sub000/internal/bot/internal"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

// easyCandidateLimit keeps the easy bot quick on large dictionaries.
const easyCandidateLimit = 200

type EasyBot struct {
	Words []string
}

// CalculateMove plays the lowest scoring word among the first candidates found, or passes.
func (b *EasyBot) CalculateMove(ctx context.Context, view ports.GameView, seat int) (domain.Move, error) {
	cands := internal.GetCandidates(ctx, view, seat, b.Words, easyCandidateLimit)
	if len(cands) == 0 {
		return passMove, nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score < cands[j].Score
		}
		return len(cands[i].Play.Word) < len(cands[j].Play.Word)
	})
	return domain.Move{Kind: domain.MovePlay, Play: cands[0].Play}, nil
}
