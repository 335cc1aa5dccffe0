package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/game"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

var (
	ErrUnknownMember = errors.New("no such lobby member")
	ErrDuplicateName = errors.New("name already taken")
	ErrNotReady      = errors.New("not every player is ready")
)

// Member is one seat in the pre-game lobby.
type Member struct {
	Name     string
	Computer bool
	Ready    bool
	// Stats is nil until statistics were loaded or when the player has none yet.
	Stats *ports.PlayerStats
}

// Result captures non-fatal lobby refresh outcomes.
type Result struct {
	Reason string
	// StatsErrs holds the members whose statistics could not be loaded.
	StatsErrs map[string]error
}

// Service is the pre-game lobby participants return to when a session ends.
// It is safe for concurrent use.
type Service struct {
	stats ports.StatsStore
	rng   *rand.Rand

	mu      sync.Mutex
	members []Member
	last    Result
}

// NewService constructs a lobby. stats may be nil when no statistics are kept;
// rng may be nil to use a time-seeded default.
func NewService(stats ports.StatsStore, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{stats: stats, rng: rng}
}

// Join adds a member. An empty name is replaced by a generated one, which is returned.
func (s *Service) Join(name string, computer bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		name = s.generateFriendlyName()
	}
	if s.indexLocked(name) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	// computer players never hold up a start
	s.members = append(s.members, Member{Name: name, Computer: computer, Ready: computer})
	return name, nil
}

// SetReady marks a member ready or not.
func (s *Service) SetReady(name string, ready bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownMember, name)
	}
	s.members[i].Ready = ready
	return nil
}

// Members returns a copy of the lobby in seat order.
func (s *Service) Members() []Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Member(nil), s.members...)
}

// Seats returns the players for a new game once everybody is ready.
func (s *Service) Seats() ([]game.PlayerSpec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.members) < game.MinPlayers {
		return nil, game.ErrTooFewPlayers
	}
	specs := make([]game.PlayerSpec, 0, len(s.members))
	for _, m := range s.members {
		if !m.Ready {
			return nil, fmt.Errorf("%w: %s", ErrNotReady, m.Name)
		}
		specs = append(specs, game.PlayerSpec{Name: m.Name, Computer: m.Computer})
	}
	return specs, nil
}

// ReturnToLobby implements ports.Lobby. Human members have to ready up again
// and every member's statistics are reloaded.
func (s *Service) ReturnToLobby(ctx context.Context, reason string) error {
	_, err := s.Refresh(ctx, reason)
	return err
}

// Refresh resets ready state and reloads statistics.
// Returns a Result with any non-fatal issues.
func (s *Service) Refresh(ctx context.Context, reason string) (Result, error) {
	s.mu.Lock()
	members := append([]Member(nil), s.members...)
	s.mu.Unlock()

	result := Result{Reason: reason}
	for i := range members {
		members[i].Ready = members[i].Computer
		if s.stats == nil {
			continue
		}
		st, err := s.stats.PlayerStats(ctx, members[i].Name)
		switch {
		case err == nil:
			members[i].Stats = &st
		case errors.Is(err, ports.ErrStatsNotFound):
			members[i].Stats = nil
		default:
			// A broken store must not keep players out of the lobby.
			if result.StatsErrs == nil {
				result.StatsErrs = map[string]error{}
			}
			result.StatsErrs[members[i].Name] = err
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		if i := s.indexLocked(m.Name); i >= 0 {
			s.members[i].Ready = m.Ready
			s.members[i].Stats = m.Stats
		}
	}
	s.last = result
	return result, nil
}

// LastResult returns the outcome of the most recent refresh.
func (s *Service) LastResult() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Service) indexLocked(name string) int {
	for i, m := range s.members {
		if m.Name == name {
			return i
		}
	}
	return -1
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Happy", "Shiny", "Brave", "Clever", "Swift", "Calm", "Mighty", "Witty", "Sly", "Wild"}
	nouns := []string{"Panda", "Tiger", "Eagle", "Dolphin", "Wolf", "Otter", "Falcon", "Bear", "Fox", "Lion"}

	for {
		name := fmt.Sprintf("%s%s%d", adjectives[s.rng.Intn(len(adjectives))], nouns[s.rng.Intn(len(nouns))], s.rng.Intn(9000)+1000)
		if s.indexLocked(name) < 0 {
			return name
		}
	}
}
