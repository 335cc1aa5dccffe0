package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/metrics"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/heroiclabs/nakama-common/runtime"
)

// Publisher sends the model's current state to the other participants.
type Publisher interface {
	Broadcast(ctx context.Context) (uint64, error)
}

// Coordinator runs one player's turn: it turns placement intents into grid
// changes, validates and submits moves to the model, and drives the shared
// refresh and broadcast path after every accepted action.
//
// All methods must be called from the session loop.
type Coordinator struct {
	model     ports.GameModel
	grid      *domain.PlacementGrid
	renderer  ports.Renderer
	prompter  ports.Prompter
	publisher Publisher
	logger    runtime.Logger

	localSeat          int
	authoritative      bool
	stalemateThreshold int
}

// CoordinatorConfig describes the seat a coordinator acts for.
type CoordinatorConfig struct {
	// LocalSeat is the player index controlled from this session, or AnySeat.
	LocalSeat int
	// Authoritative sessions drive computer players.
	Authoritative      bool
	StalemateThreshold int
}

// NewCoordinator returns a coordinator over model. publisher may be nil for games without peers.
func NewCoordinator(cfg CoordinatorConfig, model ports.GameModel, renderer ports.Renderer, prompter ports.Prompter, publisher Publisher, logger runtime.Logger) *Coordinator {
	c := &Coordinator{
		model:              model,
		grid:               domain.NewPlacementGrid(),
		renderer:           renderer,
		prompter:           prompter,
		publisher:          publisher,
		logger:             logger,
		localSeat:          cfg.LocalSeat,
		authoritative:      cfg.Authoritative,
		stalemateThreshold: cfg.StalemateThreshold,
	}
	c.grid.Reset(model.Board())
	return c
}

// Grid exposes the placement grid for inspection.
func (c *Coordinator) Grid() *domain.PlacementGrid { return c.grid }

// MyTurn reports whether the player to move is a human controlled from this session.
func (c *Coordinator) MyTurn() bool {
	if c.model.GameState() != domain.StatePlay {
		return false
	}
	if c.model.CurrentPlayer().Computer {
		return false
	}
	return c.localSeat == AnySeat || c.localSeat == c.model.CurrentPlayerIndex()
}

// NeedsAutomatedMove reports whether this session has to compute a move for a computer player.
func (c *Coordinator) NeedsAutomatedMove() bool {
	return c.authoritative &&
		c.model.GameState() == domain.StatePlay &&
		c.model.CurrentPlayer().Computer
}

func (c *Coordinator) requireTurn() error {
	if c.model.GameState() != domain.StatePlay {
		return domain.Invalid("the game is not running", domain.ErrNotPlaying)
	}
	if !c.MyTurn() {
		return domain.Invalid("wait for your turn", domain.ErrNotYourTurn)
	}
	return nil
}

// Place puts a tile of the current rack on pos. Letter '?' selects a joker.
func (c *Coordinator) Place(pos domain.Position, letter rune) error {
	if err := c.requireTurn(); err != nil {
		return err
	}
	tile, err := c.takeFromRack(letter)
	if err != nil {
		return err
	}
	if err := c.grid.MarkPlaced(pos, tile); err != nil {
		return domain.Invalid(fmt.Sprintf("cannot place at %v", pos), err)
	}
	c.Refresh()
	return nil
}

// takeFromRack picks the tile for letter among rack tiles not already placed.
func (c *Coordinator) takeFromRack(letter rune) (domain.Tile, error) {
	joker := letter == '?' || letter == '*'
	if !joker {
		l, ok := domain.NormalizeLetter(letter)
		if !ok {
			return domain.Tile{}, domain.Invalid("unknown letter", domain.ErrInvalidLetter)
		}
		letter = l
	}
	for _, t := range c.freeRack() {
		if t.Joker == joker && (joker || t.Letter == letter) {
			return t, nil
		}
	}
	return domain.Tile{}, domain.Invalid(fmt.Sprintf("no %c on your rack", letter), domain.ErrNoSuchTile)
}

// freeRack is the local player's rack without the tiles placed this turn.
func (c *Coordinator) freeRack() []domain.Tile {
	rack := c.model.Rack(c.seat())
	for _, pt := range c.grid.Pending() {
		for i, t := range rack {
			if t.Joker == pt.Tile.Joker && (t.Joker || t.Letter == pt.Tile.Letter) {
				rack = append(rack[:i], rack[i+1:]...)
				break
			}
		}
	}
	return rack
}

// Remove returns the tile placed this turn at pos to the rack.
func (c *Coordinator) Remove(pos domain.Position) error {
	if _, err := c.grid.MarkRemoved(pos); err != nil {
		return domain.Invalid(fmt.Sprintf("nothing to take back at %v", pos), err)
	}
	c.Refresh()
	return nil
}

// AssignJoker resolves the letter of the joker placed at pos.
func (c *Coordinator) AssignJoker(pos domain.Position, letter rune) error {
	if err := c.grid.AssignJokerLetter(pos, letter); err != nil {
		return domain.Invalid("cannot set joker letter", err)
	}
	c.Refresh()
	return nil
}

// Confirm submits the tiles placed this turn as a word.
//
// Tiles that leave a gap are all returned to the rack. A word the model refuses
// stays on the board so the player can edit it.
func (c *Coordinator) Confirm(ctx context.Context) ([]Event, error) {
	if err := c.requireTurn(); err != nil {
		return nil, err
	}
	board := c.model.Board()
	pending := c.grid.Pending()

	if err := domain.CheckContiguity(board, pending); err != nil {
		if errors.Is(err, domain.ErrNothingPlaced) {
			return nil, domain.Invalid("place some tiles first", err)
		}
		c.grid.RevertAll()
		c.Refresh()
		metrics.Turn("confirm", err)
		return nil, domain.Invalid("tiles must form one unbroken line", err)
	}
	if unresolved := c.grid.UnresolvedJokers(); len(unresolved) > 0 {
		return nil, domain.Invalid(fmt.Sprintf("choose a letter for the joker at %v", unresolved[0]), domain.ErrUnresolvedJoker)
	}

	word, _ := domain.ExtractWord(board, pending)
	play := domain.WordPlay{
		Word:        word.Letters,
		Anchor:      word.Anchor,
		Orientation: word.Orientation,
		Jokers:      c.grid.JokerPositions(),
	}
	player := c.model.CurrentPlayer()
	score, err := c.model.PlayWord(play)
	metrics.Turn("confirm", err)
	if err != nil {
		c.logger.Debug("Coordinator.Confirm: %s rejected: %v", word.Letters, err)
		return nil, domain.Invalid(word.Letters, fmt.Errorf("%w: %w", domain.ErrWordRejected, err))
	}
	c.grid.CommitAll()

	events := []Event{{
		Kind: EventWordPlayed,
		Payload: WordPlayedPayload{
			Player:    player.Name,
			Word:      word.Letters,
			Anchor:    word.Anchor,
			Direction: word.Orientation,
			Score:     score,
		},
	}}
	return c.afterApply(ctx, player, events)
}

// Pass gives up the turn after the player confirms. Tiles placed this turn return to the rack.
func (c *Coordinator) Pass(ctx context.Context) ([]Event, error) {
	if err := c.requireTurn(); err != nil {
		return nil, err
	}
	if !c.prompter.Confirm("Pass this turn?") {
		return nil, nil
	}
	player := c.model.CurrentPlayer()
	err := c.model.Pass()
	metrics.Turn("pass", err)
	if err != nil {
		return nil, domain.Invalid("cannot pass", err)
	}
	c.grid.RevertAll()

	events := []Event{{Kind: EventTurnPassed, Payload: TurnPassedPayload{Player: player.Name}}}
	return c.afterApply(ctx, player, events)
}

// Exchange swaps tiles chosen by the player with tiles from the bag.
func (c *Coordinator) Exchange(ctx context.Context) ([]Event, error) {
	if err := c.requireTurn(); err != nil {
		return nil, err
	}
	if c.grid.PendingCount() > 0 {
		return nil, domain.Invalid("", domain.ErrPendingTiles)
	}
	player := c.model.CurrentPlayer()
	rack := c.model.Rack(c.model.CurrentPlayerIndex())
	chosen := c.prompter.ChooseTiles(rack, len(rack))
	if len(chosen) == 0 {
		return nil, nil
	}
	err := c.model.ChangeTiles(chosen)
	metrics.Turn("exchange", err)
	if err != nil {
		return nil, domain.Invalid("cannot exchange", err)
	}

	events := []Event{{Kind: EventTilesExchanged, Payload: TilesExchangedPayload{Player: player.Name, Count: len(chosen)}}}
	return c.afterApply(ctx, player, events)
}

// ApplyAutomated applies a move computed for the computer player at seat.
// A failed selection or a move the model refuses turns into a pass so the game keeps going.
func (c *Coordinator) ApplyAutomated(ctx context.Context, seat int, move domain.Move, selectErr error) ([]Event, error) {
	if !c.NeedsAutomatedMove() || c.model.CurrentPlayerIndex() != seat {
		c.logger.Debug("Coordinator.ApplyAutomated: dropping stale move for seat %d", seat)
		return nil, nil
	}
	player := c.model.CurrentPlayer()

	var reported error
	if selectErr != nil {
		reported = fmt.Errorf("%s could not choose a move: %w", player.Name, selectErr)
		move = domain.Move{Kind: domain.MovePass}
	}
	var score int
	if move.Kind == domain.MovePlay {
		var err error
		if score, err = c.model.View().Evaluate(move); err != nil {
			c.logger.Debug("Coordinator.ApplyAutomated: %s play %s not scored: %v", player.Name, move.Play.Word, err)
		}
	}
	if err := c.model.ExecuteMove(move); err != nil {
		c.logger.Warn("Coordinator.ApplyAutomated: %s move %s refused: %v", player.Name, move.Kind, err)
		reported = fmt.Errorf("%s made an invalid move: %w", player.Name, err)
		move = domain.Move{Kind: domain.MovePass}
		if err := c.model.Pass(); err != nil {
			metrics.Turn("automated", err)
			return nil, err
		}
	}
	metrics.Turn("automated", reported)
	if reported != nil {
		c.renderer.ShowError(reported)
	}

	var ev Event
	switch move.Kind {
	case domain.MovePlay:
		ev = Event{Kind: EventWordPlayed, Payload: WordPlayedPayload{
			Player:    player.Name,
			Word:      move.Play.Word,
			Anchor:    move.Play.Anchor,
			Direction: move.Play.Orientation,
			Score:     score,
			Automated: true,
		}}
	case domain.MoveExchange:
		ev = Event{Kind: EventTilesExchanged, Payload: TilesExchangedPayload{Player: player.Name, Count: len(move.Exchange)}}
	case domain.MoveFinish:
		ev = Event{Kind: EventGameFinished, Payload: GameFinishedPayload{Forced: true}}
	default:
		ev = Event{Kind: EventTurnPassed, Payload: TurnPassedPayload{Player: player.Name, Automated: true}}
	}
	return c.afterApply(ctx, player, []Event{ev})
}

// afterApply is the path shared by every accepted action: reset the grid for
// the next turn, redraw, broadcast, then offer to end a stalled game.
func (c *Coordinator) afterApply(ctx context.Context, actor domain.Player, events []Event) ([]Event, error) {
	c.grid.Reset(c.model.Board())
	c.Refresh()

	var sendErr error
	if c.publisher != nil {
		if _, err := c.publisher.Broadcast(ctx); err != nil {
			sendErr = err
		}
	}

	if c.offerFinish(actor) {
		forced := c.model.FinishGame()
		metrics.Turn("finish", forced)
		if forced != nil {
			return events, errors.Join(sendErr, domain.Invalid("cannot finish the game", forced))
		}
		c.grid.Reset(c.model.Board())
		c.Refresh()
		if c.publisher != nil {
			if _, err := c.publisher.Broadcast(ctx); err != nil {
				sendErr = err
			}
		}
		events = append(events, Event{Kind: EventGameFinished, Payload: GameFinishedPayload{Forced: true, Players: c.model.TurnSnapshot().Players}})
	} else if c.model.GameState() == domain.StateGameOver && !finished(events) {
		events = append(events, Event{Kind: EventGameFinished, Payload: GameFinishedPayload{Players: c.model.TurnSnapshot().Players}})
	}
	return events, sendErr
}

func (c *Coordinator) offerFinish(actor domain.Player) bool {
	if actor.Computer || c.stalemateThreshold <= 0 {
		return false
	}
	if c.model.GameState() != domain.StatePlay || c.model.ScorelessTurns() < c.stalemateThreshold {
		return false
	}
	return c.prompter.Confirm(fmt.Sprintf("%d moves in a row scored nothing. Finish the game now?", c.model.ScorelessTurns()))
}

func finished(events []Event) bool {
	for _, e := range events {
		if e.Kind == EventGameFinished {
			return true
		}
	}
	return false
}

// Synced is called after a remote snapshot replaced the model state.
func (c *Coordinator) Synced() {
	c.grid.Reset(c.model.Board())
	c.Refresh()
}

// seat is the player index whose rack this session shows.
func (c *Coordinator) seat() int {
	if c.localSeat == AnySeat {
		return c.model.CurrentPlayerIndex()
	}
	return c.localSeat
}

// Refresh redraws everything from the model and the grid.
func (c *Coordinator) Refresh() {
	c.renderer.RefreshAll(ports.View{
		Snapshot:    c.model.TurnSnapshot(),
		Pending:     c.grid.Pending(),
		LocalPlayer: c.seat(),
		Rack:        c.freeRack(),
		MyTurn:      c.MyTurn(),
		Targets:     c.targets(),
	})
}

func (c *Coordinator) targets() []domain.Position {
	if !c.MyTurn() || c.grid.PendingCount() < 2 {
		return nil
	}
	var out []domain.Position
	for r := 0; r < domain.BoardSize; r++ {
		for col := 0; col < domain.BoardSize; col++ {
			if p := (domain.Position{Row: r, Col: col}); c.grid.IsValid(p) {
				out = append(out, p)
			}
		}
	}
	return out
}
