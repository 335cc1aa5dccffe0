package bot

import (
	"context"
	"fmt"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

// Agent represents an autonomous computer player. It implements ports.MoveSelector.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

var _ ports.MoveSelector = (*Agent)(nil)

// NewAgent builds an agent from a loaded identity, falling back to level when
// the identity names no known difficulty.
func NewAgent(identity BotIdentity, dict ports.Dictionary, level BotLevel) (*Agent, error) {
	if l, err := ParseLevel(identity.Difficulty); err == nil {
		level = l
	}
	brain, err := NewBrain(level, dict)
	if err != nil {
		return nil, err
	}
	name := identity.DisplayName
	if name == "" {
		name = identity.Username
	}
	return &Agent{ID: identity.DeviceID, Name: name, Strategy: brain}, nil
}

// ChooseMove asks the agent to calculate a move for the player to act in view.
// A strategy failure still yields a pass so callers always have a move to apply.
func (a *Agent) ChooseMove(ctx context.Context, view ports.GameView) (domain.Move, error) {
	if a.Strategy == nil {
		return passMove, fmt.Errorf("agent %s has no strategy", a.Name)
	}
	move, err := a.Strategy.CalculateMove(ctx, view, view.CurrentPlayerIndex())
	if err != nil {
		return passMove, err
	}
	return move, nil
}

// Roster routes move selection to the agent seated at the player to act.
type Roster map[int]*Agent

var _ ports.MoveSelector = Roster(nil)

func (r Roster) ChooseMove(ctx context.Context, view ports.GameView) (domain.Move, error) {
	seat := view.CurrentPlayerIndex()
	agent, ok := r[seat]
	if !ok {
		return passMove, fmt.Errorf("no agent at seat %d", seat)
	}
	return agent.ChooseMove(ctx, view)
}
