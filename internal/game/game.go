// Package game is the authoritative word game model: board, bag, racks, rules and scoring.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

// MinPlayers is the smallest table a game can start with.
const MinPlayers = 2

// DefaultBingoBonus is awarded for playing a full rack in one move.
const DefaultBingoBonus = 50

var (
	ErrTooFewPlayers   = errors.New("not enough players to start")
	ErrAlreadyStarted  = errors.New("game already started")
	ErrWordTooShort    = errors.New("word too short")
	ErrOffBoard        = errors.New("word does not fit on the board")
	ErrTouchesTiles    = errors.New("word runs into tiles at one of its ends")
	ErrLetterMismatch  = errors.New("word does not match the tiles on the board")
	ErrNoNewTiles      = errors.New("word uses no new tiles")
	ErrMissingTile     = errors.New("rack does not hold the tiles for this word")
	ErrMustCoverCenter = errors.New("first word must cover the centre square")
	ErrNotConnected    = errors.New("word must connect to the tiles on the board")
	ErrUnknownWord     = errors.New("word not in dictionary")
	ErrNoTilesChosen   = errors.New("no tiles chosen")
	ErrBagTooSmall     = errors.New("not enough tiles left in the bag")
	ErrTileNotInRack   = errors.New("tile not in rack")
	ErrUnknownMove     = errors.New("unknown move kind")
	ErrBadSnapshot     = errors.New("invalid snapshot")
)

// PlayerSpec describes a seat at game creation.
type PlayerSpec struct {
	Name     string
	Computer bool
}

// Options tunes the rules. Zero values select the defaults.
type Options struct {
	RackSize   int
	BingoBonus int
	Rng        *rand.Rand
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.RackSize <= 0 {
		o.RackSize = domain.RackSize
	}
	if o.BingoBonus == 0 {
		o.BingoBonus = DefaultBingoBonus
	}
	if o.Rng == nil {
		o.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Game implements ports.GameModel. It is not safe for concurrent use.
type Game struct {
	opts Options
	dict ports.Dictionary

	board     *domain.Board
	players   []domain.Player
	current   int
	bag       []domain.Tile
	state     domain.GameState
	scoreless int
	history   []domain.MoveRecord

	// elapsed is the play time accumulated before startedAt.
	elapsed   time.Duration
	startedAt time.Time
}

var _ ports.GameModel = (*Game)(nil)
var _ ports.GameView = (*Game)(nil)

// New creates a game in the setup state. players may be empty for a session that
// receives its state from the authoritative participant.
func New(players []PlayerSpec, dict ports.Dictionary, opts Options) *Game {
	g := &Game{
		opts:  opts.withDefaults(),
		dict:  dict,
		board: domain.NewBoard(),
		state: domain.StateSetup,
	}
	for _, p := range players {
		g.players = append(g.players, domain.Player{Name: p.Name, Computer: p.Computer})
	}
	return g
}

// Start fills and shuffles the bag, deals every rack and moves the game into play.
func (g *Game) Start() error {
	if g.state != domain.StateSetup {
		return ErrAlreadyStarted
	}
	if len(g.players) < MinPlayers {
		return ErrTooFewPlayers
	}

	g.bag = domain.NewTileBag()
	g.opts.Rng.Shuffle(len(g.bag), func(i, j int) { g.bag[i], g.bag[j] = g.bag[j], g.bag[i] })
	for i := range g.players {
		g.players[i].Rack = g.draw(nil, g.opts.RackSize)
	}
	g.current = 0
	g.state = domain.StatePlay
	g.startedAt = g.opts.Now()
	return nil
}

// draw moves up to n tiles from the bag onto rack.
func (g *Game) draw(rack []domain.Tile, n int) []domain.Tile {
	for i := 0; i < n && len(g.bag) > 0; i++ {
		last := len(g.bag) - 1
		rack = append(rack, g.bag[last])
		g.bag = g.bag[:last]
	}
	return rack
}

func (g *Game) requirePlay() error {
	if g.state != domain.StatePlay {
		return domain.ErrNotPlaying
	}
	return nil
}

// PlayWord validates and applies a word for the current player.
func (g *Game) PlayWord(play domain.WordPlay) (int, error) {
	if err := g.requirePlay(); err != nil {
		return 0, err
	}
	p, err := g.plan(play)
	if err != nil {
		return 0, err
	}
	g.commit(p)
	return p.score, nil
}

// Pass ends the current turn without a play.
func (g *Game) Pass() error {
	if err := g.requirePlay(); err != nil {
		return err
	}
	g.history = append(g.history, domain.MoveRecord{Player: g.current, Kind: domain.MovePass})
	g.scoreless++
	g.advance()
	return nil
}

// ChangeTiles swaps tiles of the current player's rack for new ones from the bag.
func (g *Game) ChangeTiles(tiles []domain.Tile) error {
	if err := g.requirePlay(); err != nil {
		return err
	}
	if len(tiles) == 0 {
		return ErrNoTilesChosen
	}
	if len(g.bag) < g.opts.RackSize {
		return ErrBagTooSmall
	}

	player := &g.players[g.current]
	rack, returned, err := removeTiles(player.Rack, tiles)
	if err != nil {
		return err
	}
	rack = g.draw(rack, len(returned))
	g.bag = append(g.bag, returned...)
	g.opts.Rng.Shuffle(len(g.bag), func(i, j int) { g.bag[i], g.bag[j] = g.bag[j], g.bag[i] })
	player.Rack = rack

	g.history = append(g.history, domain.MoveRecord{Player: g.current, Kind: domain.MoveExchange})
	g.scoreless++
	g.advance()
	return nil
}

// removeTiles takes tiles out of rack, matching jokers by flag and letters by value.
func removeTiles(rack, tiles []domain.Tile) (kept, removed []domain.Tile, err error) {
	used := make([]bool, len(rack))
	for _, want := range tiles {
		idx := -1
		for i, t := range rack {
			if used[i] || t.Joker != want.Joker {
				continue
			}
			if t.Joker || t.Letter == want.Letter {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %c", ErrTileNotInRack, want.Letter)
		}
		used[idx] = true
	}
	for i, t := range rack {
		if used[i] {
			if t.Joker {
				t.Letter = 0
			}
			removed = append(removed, t)
		} else {
			kept = append(kept, t)
		}
	}
	return kept, removed, nil
}

// ExecuteMove applies a move chosen by a move selector.
func (g *Game) ExecuteMove(move domain.Move) error {
	switch move.Kind {
	case domain.MovePlay:
		_, err := g.PlayWord(move.Play)
		return err
	case domain.MovePass:
		return g.Pass()
	case domain.MoveExchange:
		return g.ChangeTiles(move.Exchange)
	case domain.MoveFinish:
		return g.FinishGame()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMove, move.Kind)
	}
}

// FinishGame ends the game: every player loses the value of the tiles left on the rack.
func (g *Game) FinishGame() error {
	if err := g.requirePlay(); err != nil {
		return err
	}
	g.history = append(g.history, domain.MoveRecord{Player: g.current, Kind: domain.MoveFinish})
	g.settle(-1)
	return nil
}

// settle applies end-of-game rack penalties. A finisher who emptied the rack collects them.
func (g *Game) settle(finisher int) {
	collected := 0
	for i := range g.players {
		left := rackValue(g.players[i].Rack)
		g.players[i].Score -= left
		collected += left
	}
	if finisher >= 0 {
		g.players[finisher].Score += collected
	}
	g.elapsed = g.Elapsed()
	g.state = domain.StateGameOver
}

func rackValue(rack []domain.Tile) int {
	total := 0
	for _, t := range rack {
		total += t.Points
	}
	return total
}

func (g *Game) advance() {
	if len(g.players) == 0 {
		return
	}
	g.current = (g.current + 1) % len(g.players)
}

func (g *Game) GameState() domain.GameState { return g.state }

func (g *Game) CurrentPlayerIndex() int { return g.current }

func (g *Game) CurrentPlayer() domain.Player {
	if g.current < 0 || g.current >= len(g.players) {
		return domain.Player{}
	}
	p := g.players[g.current]
	p.Rack = append([]domain.Tile(nil), p.Rack...)
	return p
}

func (g *Game) ScorelessTurns() int { return g.scoreless }

func (g *Game) Board() *domain.Board { return g.board.Clone() }

func (g *Game) Rack(player int) []domain.Tile {
	if player < 0 || player >= len(g.players) {
		return nil
	}
	return append([]domain.Tile(nil), g.players[player].Rack...)
}

func (g *Game) TilesRemaining() int { return len(g.bag) }

// Elapsed returns the accumulated play time.
func (g *Game) Elapsed() time.Duration {
	if g.state != domain.StatePlay || g.startedAt.IsZero() {
		return g.elapsed
	}
	return g.elapsed + g.opts.Now().Sub(g.startedAt)
}

// TurnSnapshot returns a complete copy of the state with Seq unset.
func (g *Game) TurnSnapshot() domain.TurnSnapshot {
	s := domain.TurnSnapshot{
		State:          g.state,
		Board:          g.board.Tiles(),
		Players:        g.players,
		CurrentPlayer:  g.current,
		Bag:            g.bag,
		Elapsed:        g.Elapsed(),
		ScorelessTurns: g.scoreless,
		History:        g.history,
	}
	return s.Clone()
}

// ApplyTurnSnapshot replaces the whole state with snapshot.
func (g *Game) ApplyTurnSnapshot(snapshot domain.TurnSnapshot) error {
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	s := snapshot.Clone()

	board := domain.NewBoard()
	for _, pt := range s.Board {
		if err := board.Place(pt.Pos, pt.Tile); err != nil {
			return fmt.Errorf("%w: tile at %v: %v", ErrBadSnapshot, pt.Pos, err)
		}
	}

	g.board = board
	g.players = s.Players
	g.current = s.CurrentPlayer
	g.bag = s.Bag
	g.state = s.State
	g.scoreless = s.ScorelessTurns
	g.history = s.History
	g.elapsed = s.Elapsed
	g.startedAt = g.opts.Now()
	return nil
}

func validateSnapshot(s domain.TurnSnapshot) error {
	switch s.State {
	case domain.StateSetup, domain.StatePlay, domain.StateGameOver:
	default:
		return fmt.Errorf("%w: state %q", ErrBadSnapshot, s.State)
	}
	if s.State == domain.StatePlay && len(s.Players) == 0 {
		return fmt.Errorf("%w: no players", ErrBadSnapshot)
	}
	if len(s.Players) > 0 && (s.CurrentPlayer < 0 || s.CurrentPlayer >= len(s.Players)) {
		return fmt.Errorf("%w: current player %d", ErrBadSnapshot, s.CurrentPlayer)
	}
	return nil
}

// View returns a detached copy for move selection.
func (g *Game) View() ports.GameView {
	c := &Game{
		opts:      g.opts,
		dict:      g.dict,
		board:     g.board.Clone(),
		current:   g.current,
		state:     g.state,
		scoreless: g.scoreless,
		elapsed:   g.elapsed,
		startedAt: g.startedAt,
	}
	s := g.TurnSnapshot()
	c.players, c.bag, c.history = s.Players, s.Bag, s.History
	// the copy never draws, so it must not share the rng
	c.opts.Rng = rand.New(rand.NewSource(1))
	return c
}

// Evaluate returns the score move would earn without applying it.
func (g *Game) Evaluate(move domain.Move) (int, error) {
	if err := g.requirePlay(); err != nil {
		return 0, err
	}
	switch move.Kind {
	case domain.MovePlay:
		p, err := g.plan(move.Play)
		if err != nil {
			return 0, err
		}
		return p.score, nil
	case domain.MovePass, domain.MoveFinish:
		return 0, nil
	case domain.MoveExchange:
		if len(g.bag) < g.opts.RackSize {
			return 0, ErrBagTooSmall
		}
		if _, _, err := removeTiles(g.players[g.current].Rack, move.Exchange); err != nil {
			return 0, err
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMove, move.Kind)
	}
}

// Players returns a copy of every player.
func (g *Game) Players() []domain.Player {
	return g.TurnSnapshot().Players
}

func normalizeWord(word string) []rune {
	return []rune(strings.ToUpper(strings.TrimSpace(word)))
}
