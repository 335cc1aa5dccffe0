package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/app/replication"
	"github.com/fuubian/Scrabble-sub000/internal/config"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/game"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/heroiclabs/nakama-common/runtime"
)

var ErrSessionClosed = errors.New("session closed")

// SessionConfig identifies one participant of one game.
type SessionConfig struct {
	ID          string
	Participant string
	// LocalSeat is the player index this participant controls, AnySeat for hot-seat play.
	LocalSeat int
	// Authoritative is set for the participant that dealt the game and drives computer players.
	Authoritative bool
	Rules         config.GameConfig
}

// Deps are the collaborators of a session. Network, Selector, Lobby and Stats may be nil.
type Deps struct {
	Model    ports.GameModel
	Network  ports.Network
	Selector ports.MoveSelector
	Renderer ports.Renderer
	Prompter ports.Prompter
	Lobby    ports.Lobby
	Stats    ports.StatsStore
	Logger   runtime.Logger
}

type automatedResult struct {
	seat int
	move domain.Move
	err  error
}

// Session owns one running game for one participant. Run is its only
// goroutine touching the model and the placement grid; everything else hands
// work to it through channels.
type Session struct {
	cfg  SessionConfig
	deps Deps

	coord *Coordinator
	repl  *replication.Replicator

	intents   chan Intent
	inbound   chan []byte
	automated chan automatedResult

	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	rng           *rand.Rand
	computing     bool
	recorded      bool
	resendLeft    int
	resendBackoff time.Duration
	resendTimer   *time.Timer
}

// NewSession wires a session. The model must already be dealt on the authoritative participant.
func NewSession(cfg SessionConfig, deps Deps) *Session {
	cfg.Rules = cfg.Rules.WithDefaults()
	s := &Session{
		cfg:       cfg,
		deps:      deps,
		intents:   make(chan Intent),
		inbound:   make(chan []byte, 16),
		automated: make(chan automatedResult, 1),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	var publisher Publisher
	if deps.Network != nil {
		s.repl = replication.New(cfg.ID, cfg.Participant, deps.Network, deps.Model, deps.Logger)
		publisher = s.repl
	}
	s.coord = NewCoordinator(CoordinatorConfig{
		LocalSeat:          cfg.LocalSeat,
		Authoritative:      cfg.Authoritative,
		StalemateThreshold: cfg.Rules.StalemateThreshold,
	}, deps.Model, deps.Renderer, deps.Prompter, publisher, deps.Logger)
	return s
}

// Ready is closed once Run has finished wiring and accepts intents.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// Submit hands a player intent to the session loop.
func (s *Session) Submit(ctx context.Context, in Intent) error {
	select {
	case s.intents <- in:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliver hands a message received from another participant to the session loop.
// Transports call it from their reader goroutines.
func (s *Session) Deliver(data []byte) error {
	select {
	case s.inbound <- data:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Run processes intents and inbound messages until the session ends or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer s.closeOnce.Do(func() { close(s.done) })
	defer s.stopResend()

	log := s.deps.Logger.WithField("session", s.cfg.ID)

	if s.cfg.Authoritative && s.repl != nil {
		if seq, err := s.repl.Broadcast(ctx); err != nil {
			log.Warn("Session.Run: initial snapshot %d not sent: %v", seq, err)
			s.scheduleResend()
		}
	}
	s.coord.Synced()
	close(s.ready)
	log.Info("Session.Run: %s ready (seat %d, authoritative=%v)", s.cfg.Participant, s.cfg.LocalSeat, s.cfg.Authoritative)

	var netIn <-chan []byte
	if s.deps.Network != nil {
		netIn = s.deps.Network.Inbound()
	}

	for {
		s.startAutomated(ctx)

		var resend <-chan time.Time
		if s.resendTimer != nil {
			resend = s.resendTimer.C
		}

		select {
		case <-ctx.Done():
			s.announceShutdown()
			return ctx.Err()

		case in := <-s.intents:
			if stop, err := s.handleIntent(ctx, in); stop {
				return err
			}

		case data, ok := <-netIn:
			if !ok {
				netIn = nil
				if s.deps.Model.GameState() != domain.StatePlay {
					s.deps.Renderer.ShowNotice(genericConnectionNotice)
					continue
				}
				log.Warn("Session.Run: network closed during play")
				s.deps.Renderer.ShowNotice("The connection to the other players was lost, the game is stopped")
				return s.returnToLobby(ctx, "connection lost")
			}
			if stop, err := s.handleInbound(ctx, data); stop {
				return err
			}

		case data := <-s.inbound:
			if stop, err := s.handleInbound(ctx, data); stop {
				return err
			}

		case res := <-s.automated:
			s.computing = false
			events, err := s.coord.ApplyAutomated(ctx, res.seat, res.move, res.err)
			s.afterAction(ctx, events, err)

		case <-resend:
			s.resendTimer = nil
			s.resend(ctx)
		}
	}
}

func (s *Session) handleIntent(ctx context.Context, in Intent) (bool, error) {
	var (
		events []Event
		err    error
	)
	switch in := in.(type) {
	case PlaceTile:
		err = s.coord.Place(in.Pos, in.Letter)
	case RemoveTile:
		err = s.coord.Remove(in.Pos)
	case AssignJoker:
		err = s.coord.AssignJoker(in.Pos, in.Letter)
	case ConfirmMove:
		events, err = s.coord.Confirm(ctx)
	case PassTurn:
		events, err = s.coord.Pass(ctx)
	case ExchangeTiles:
		events, err = s.coord.Exchange(ctx)
	case Leave:
		return true, s.leave(ctx, in.Reason)
	default:
		err = fmt.Errorf("unsupported intent %T", in)
	}
	s.afterAction(ctx, events, err)
	return false, nil
}

// afterAction reports the outcome of a coordinator call to the player.
func (s *Session) afterAction(ctx context.Context, events []Event, err error) {
	for _, e := range events {
		s.announce(e)
	}

	var conn *domain.ConnectivityError
	switch {
	case err == nil:
	case errors.As(err, &conn):
		s.deps.Logger.Warn("Session.afterAction: %v", err)
		s.deps.Renderer.ShowNotice(genericConnectionNotice)
		s.scheduleResend()
	default:
		s.deps.Renderer.ShowError(err)
	}
	s.recordResult(ctx)
}

func (s *Session) announce(e Event) {
	switch p := e.Payload.(type) {
	case WordPlayedPayload:
		s.deps.Renderer.ShowNotice(fmt.Sprintf("%s played %s for %d points", p.Player, p.Word, p.Score))
	case TurnPassedPayload:
		s.deps.Renderer.ShowNotice(fmt.Sprintf("%s passed", p.Player))
	case TilesExchangedPayload:
		s.deps.Renderer.ShowNotice(fmt.Sprintf("%s exchanged %d tiles", p.Player, p.Count))
	case GameFinishedPayload:
		s.deps.Renderer.ShowNotice("The game is over")
	}
}

func (s *Session) handleInbound(ctx context.Context, data []byte) (bool, error) {
	if s.repl == nil {
		return false, nil
	}
	msg, err := s.repl.Receive(data)
	if err != nil {
		s.deps.Logger.Warn("Session.handleInbound: from %q: %v", msg.From, err)
		s.deps.Renderer.ShowNotice(genericConnectionNotice)
		return false, nil
	}

	switch msg.Outcome {
	case replication.Applied:
		s.coord.Synced()
		s.recordResult(ctx)
	case replication.Left:
		who := msg.From
		if msg.Leave != nil && msg.Leave.Participant != "" {
			who = msg.Leave.Participant
		}
		if s.deps.Model.GameState() != domain.StatePlay {
			s.deps.Renderer.ShowNotice(fmt.Sprintf("%s left the session", who))
			return false, nil
		}
		s.deps.Renderer.ShowNotice(fmt.Sprintf("%s left, the game is stopped", who))
		return true, s.returnToLobby(ctx, fmt.Sprintf("%s left", who))
	}
	return false, nil
}

// leave announces the departure of the local participant and closes the session.
func (s *Session) leave(ctx context.Context, reason string) error {
	if s.repl != nil {
		if err := s.repl.AnnounceLeave(ctx, reason); err != nil {
			s.deps.Logger.Warn("Session.leave: %v", err)
		}
	}
	return s.returnToLobby(ctx, reason)
}

// announceShutdown tells the others that a game in play ends because this
// participant stopped. ctx is already done, so the notice gets its own deadline.
func (s *Session) announceShutdown() {
	if s.repl == nil || s.deps.Model.GameState() != domain.StatePlay {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownNoticeTimeout)
	defer cancel()
	if err := s.repl.AnnounceLeave(ctx, "stopped"); err != nil {
		s.deps.Logger.Warn("Session.announceShutdown: %v", err)
	}
}

func (s *Session) returnToLobby(ctx context.Context, reason string) error {
	if s.deps.Lobby == nil {
		return nil
	}
	if err := s.deps.Lobby.ReturnToLobby(ctx, reason); err != nil {
		return fmt.Errorf("return to lobby: %w", err)
	}
	return nil
}

// startAutomated launches move selection for a computer player. The result
// comes back through s.automated; a closed session drops it.
func (s *Session) startAutomated(ctx context.Context) {
	if s.computing || s.deps.Selector == nil || !s.coord.NeedsAutomatedMove() {
		return
	}
	s.computing = true
	seat := s.deps.Model.CurrentPlayerIndex()
	view := s.deps.Model.View()
	delay := s.thinkingDelay()
	selector := s.deps.Selector

	go func() {
		select {
		case <-time.After(delay):
		case <-s.done:
			return
		}
		move, err := selector.ChooseMove(ctx, view)
		select {
		case s.automated <- automatedResult{seat: seat, move: move, err: err}:
		case <-s.done:
		}
	}()
}

func (s *Session) thinkingDelay() time.Duration {
	lo, hi := s.cfg.Rules.BotDelay()
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.rng.Int63n(int64(hi-lo)))
}

func (s *Session) scheduleResend() {
	if s.repl == nil || s.cfg.Rules.ResendAttempts <= 0 {
		return
	}
	s.stopResend()
	s.resendLeft = s.cfg.Rules.ResendAttempts
	s.resendBackoff = s.cfg.Rules.ResendBackoff()
	s.resendTimer = time.NewTimer(s.resendBackoff)
}

func (s *Session) stopResend() {
	if s.resendTimer != nil {
		s.resendTimer.Stop()
		s.resendTimer = nil
	}
}

func (s *Session) resend(ctx context.Context) {
	if !s.repl.Unsent() {
		return
	}
	s.resendLeft--
	err := s.repl.Resend(ctx)
	if err == nil {
		s.deps.Logger.Info("Session.resend: snapshot %d delivered", s.repl.Last())
		return
	}
	if errors.Is(err, replication.ErrNothingToResend) {
		return
	}
	if s.resendLeft <= 0 {
		s.deps.Logger.Error("Session.resend: giving up on snapshot %d: %v", s.repl.Last(), err)
		s.deps.Renderer.ShowNotice(genericConnectionNotice)
		return
	}
	s.resendBackoff *= 2
	s.resendTimer = time.NewTimer(s.resendBackoff)
}

// recordResult stores the statistics of a finished game once, on the authoritative participant.
func (s *Session) recordResult(ctx context.Context) {
	if s.recorded || !s.cfg.Authoritative || s.deps.Stats == nil {
		return
	}
	if s.deps.Model.GameState() != domain.StateGameOver {
		return
	}
	s.recorded = true
	result := game.Result(s.cfg.ID, s.deps.Model.TurnSnapshot(), time.Now())
	if err := s.deps.Stats.RecordGame(ctx, result); err != nil {
		s.deps.Logger.Error("Session.recordResult: %v", err)
	}
}
