package bot

import (
	"fmt"
	"strings"

	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	// BotLevelEasy plays the weakest word it finds.
	BotLevelEasy BotLevel = iota + 1
	// BotLevelGreedy maximizes points plus the value of the tiles it keeps.
	BotLevelGreedy
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelEasy:
		return "easy"
	case BotLevelGreedy:
		return "greedy"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a configured difficulty name to a level.
func ParseLevel(s string) (BotLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return BotLevelEasy, nil
	case "greedy", "medium", "hard":
		return BotLevelGreedy, nil
	default:
		return 0, fmt.Errorf("unknown bot level: %q", s)
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel, dict ports.Dictionary) (Brain, error) {
	switch level {
	case BotLevelEasy:
		return &EasyBot{Words: dict.Words()}, nil
	case BotLevelGreedy:
		return &GreedyBot{Words: dict.Words(), Tuning: DefaultTuning}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
