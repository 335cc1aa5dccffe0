package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/fuubian/Scrabble-sub000/internal/app"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

const helpText = `commands (rows and columns count from 1):
  place ROW COL LETTER   put a rack tile on the board, LETTER ? takes a joker
  remove ROW COL         take a tile placed this turn back
  joker ROW COL LETTER   choose the letter a placed joker stands for
  confirm                play the placed tiles
  pass                   end the turn without playing
  exchange               swap tiles with the bag
  help                   show this text
  quit                   leave the game`

var errQuit = errors.New("quit")

// Console is a line-based ports.Renderer and ports.Prompter. One goroutine
// reads input; while a question is open its answer goes to the prompter,
// otherwise lines are commands.
type Console struct {
	out io.Writer

	mu       sync.Mutex
	waiting  bool
	answers  chan string
	commands chan string
	closed   chan struct{}
}

var (
	_ ports.Renderer = (*Console)(nil)
	_ ports.Prompter = (*Console)(nil)
)

func NewConsole(in io.Reader, out io.Writer) *Console {
	c := &Console{
		out:      out,
		answers:  make(chan string),
		commands: make(chan string),
		closed:   make(chan struct{}),
	}
	go c.read(in)
	return c
}

func (c *Console) read(in io.Reader) {
	defer close(c.closed)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		c.mu.Lock()
		waiting := c.waiting
		c.mu.Unlock()
		if waiting {
			c.answers <- line
			continue
		}
		if line != "" {
			c.commands <- line
		}
	}
}

// Commands delivers command lines; it is never closed, watch Closed for end of input.
func (c *Console) Commands() <-chan string { return c.commands }

// Closed is closed at end of input.
func (c *Console) Closed() <-chan struct{} { return c.closed }

func (c *Console) ask(question string) (string, bool) {
	c.mu.Lock()
	c.waiting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.waiting = false
		c.mu.Unlock()
	}()

	fmt.Fprintf(c.out, "%s ", question)
	select {
	case answer := <-c.answers:
		return answer, true
	case <-c.closed:
		return "", false
	}
}

func (c *Console) Confirm(question string) bool {
	answer, ok := c.ask(question + " [y/N]")
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (c *Console) ChooseTiles(rack []domain.Tile, max int) []domain.Tile {
	answer, ok := c.ask(fmt.Sprintf("Rack %s. Letters to exchange (up to %d, ? for a joker):", formatRack(rack), max))
	if !ok {
		return nil
	}
	return pickTiles(rack, answer, max)
}

// pickTiles returns the rack tiles named by letters, each rack tile at most once.
func pickTiles(rack []domain.Tile, letters string, max int) []domain.Tile {
	used := make([]bool, len(rack))
	var out []domain.Tile
	for _, r := range strings.ToUpper(letters) {
		if len(out) >= max || unicode.IsSpace(r) {
			continue
		}
		for i, t := range rack {
			if used[i] {
				continue
			}
			if (r == '?' && t.Joker) || (!t.Joker && t.Letter == r) {
				used[i] = true
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func (c *Console) RefreshAll(v ports.View) {
	fmt.Fprint(c.out, renderView(v))
}

func (c *Console) ShowError(err error) {
	fmt.Fprintf(c.out, "! %v\n", err)
}

func (c *Console) ShowNotice(message string) {
	fmt.Fprintf(c.out, "* %s\n", message)
}

func renderView(v ports.View) string {
	var b strings.Builder

	cells := make(map[domain.Position]rune)
	for _, pt := range v.Snapshot.Board {
		cells[pt.Pos] = pt.Tile.Letter
	}
	pending := make(map[domain.Position]rune)
	for _, pt := range v.Pending {
		l := pt.Tile.Letter
		if l == 0 {
			l = '?'
		}
		pending[pt.Pos] = unicode.ToLower(l)
	}
	var targets map[domain.Position]bool
	if len(v.Targets) > 0 {
		targets = make(map[domain.Position]bool, len(v.Targets))
		for _, p := range v.Targets {
			targets[p] = true
		}
	}
	layout := domain.NewBoard()

	b.WriteString("\n    ")
	for col := 1; col <= domain.BoardSize; col++ {
		fmt.Fprintf(&b, "%2d", col%100)
	}
	b.WriteByte('\n')
	for row := 0; row < domain.BoardSize; row++ {
		fmt.Fprintf(&b, "%3d ", row+1)
		for col := 0; col < domain.BoardSize; col++ {
			p := domain.Position{Row: row, Col: col}
			b.WriteByte(' ')
			switch {
			case cells[p] != 0:
				b.WriteRune(cells[p])
			case pending[p] != 0:
				b.WriteRune(pending[p])
			case targets != nil && !targets[p]:
				b.WriteByte(' ')
			default:
				b.WriteRune(bonusMark(layout.BonusAt(p)))
			}
		}
		b.WriteByte('\n')
	}

	for i, p := range v.Snapshot.Players {
		marker := "  "
		if i == v.Snapshot.CurrentPlayer && v.Snapshot.State == domain.StatePlay {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%-16s %4d\n", marker, p.Name, p.Score)
	}
	fmt.Fprintf(&b, "bag: %d  state: %s\n", v.Snapshot.TilesRemaining(), v.Snapshot.State)
	if v.LocalPlayer >= 0 || v.MyTurn {
		fmt.Fprintf(&b, "rack: %s\n", formatRack(v.Rack))
	}
	if v.MyTurn {
		b.WriteString("your turn\n")
	}
	return b.String()
}

func bonusMark(bonus domain.Bonus) rune {
	switch bonus {
	case domain.TripleWord:
		return '#'
	case domain.DoubleWord:
		return '+'
	case domain.TripleLetter:
		return '*'
	case domain.DoubleLetter:
		return ':'
	default:
		return '.'
	}
}

func formatRack(rack []domain.Tile) string {
	parts := make([]string, 0, len(rack))
	for _, t := range rack {
		if t.Joker {
			parts = append(parts, "?")
			continue
		}
		parts = append(parts, string(t.Letter))
	}
	return strings.Join(parts, " ")
}

// parseCommand turns a command line into an intent. errQuit marks the quit command.
func parseCommand(line string) (app.Intent, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "place", "p":
		pos, letter, err := positionAndLetter(args)
		if err != nil {
			return nil, err
		}
		return app.PlaceTile{Pos: pos, Letter: letter}, nil
	case "remove", "r":
		if len(args) != 2 {
			return nil, fmt.Errorf("usage: remove ROW COL")
		}
		pos, err := parsePosition(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return app.RemoveTile{Pos: pos}, nil
	case "joker", "j":
		pos, letter, err := positionAndLetter(args)
		if err != nil {
			return nil, err
		}
		return app.AssignJoker{Pos: pos, Letter: letter}, nil
	case "confirm", "c":
		return app.ConfirmMove{}, nil
	case "pass":
		return app.PassTurn{}, nil
	case "exchange", "x":
		return app.ExchangeTiles{}, nil
	case "quit", "q":
		return app.Leave{Reason: "quit"}, errQuit
	default:
		return nil, fmt.Errorf("unknown command %q, try help", fields[0])
	}
}

func positionAndLetter(args []string) (domain.Position, rune, error) {
	if len(args) != 3 {
		return domain.Position{}, 0, fmt.Errorf("usage: ROW COL LETTER")
	}
	pos, err := parsePosition(args[0], args[1])
	if err != nil {
		return domain.Position{}, 0, err
	}
	letters := []rune(strings.ToUpper(args[2]))
	if len(letters) != 1 {
		return domain.Position{}, 0, fmt.Errorf("one letter expected, got %q", args[2])
	}
	return pos, letters[0], nil
}

func parsePosition(row, col string) (domain.Position, error) {
	r, err := strconv.Atoi(row)
	if err != nil {
		return domain.Position{}, fmt.Errorf("bad row %q", row)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return domain.Position{}, fmt.Errorf("bad column %q", col)
	}
	return domain.Position{Row: r - 1, Col: c - 1}, nil
}
