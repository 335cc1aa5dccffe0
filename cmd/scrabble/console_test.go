package main

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/app"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    app.Intent
		wantErr bool
	}{
		{"place", "place 8 8 a", app.PlaceTile{Pos: domain.Position{Row: 7, Col: 7}, Letter: 'A'}, false},
		{"place joker", "p 1 15 ?", app.PlaceTile{Pos: domain.Position{Row: 0, Col: 14}, Letter: '?'}, false},
		{"remove", "remove 8 9", app.RemoveTile{Pos: domain.Position{Row: 7, Col: 8}}, false},
		{"joker", "joker 8 8 q", app.AssignJoker{Pos: domain.Position{Row: 7, Col: 7}, Letter: 'Q'}, false},
		{"confirm", "confirm", app.ConfirmMove{}, false},
		{"pass", "PASS", app.PassTurn{}, false},
		{"exchange", "x", app.ExchangeTiles{}, false},
		{"missing letter", "place 8 8", nil, true},
		{"bad row", "remove x 8", nil, true},
		{"two letters", "place 8 8 ab", nil, true},
		{"unknown", "shuffle", nil, true},
		{"empty", "   ", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCommand(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseCommand(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseQuit(t *testing.T) {
	got, err := parseCommand("quit")
	if !errors.Is(err, errQuit) {
		t.Fatalf("err = %v, want errQuit", err)
	}
	if leave, ok := got.(app.Leave); !ok || leave.Reason != "quit" {
		t.Fatalf("intent = %#v", got)
	}
}

func TestPickTiles(t *testing.T) {
	rack := []domain.Tile{domain.NewTile('A'), domain.NewTile('B'), domain.NewJoker(), domain.NewTile('A')}

	got := pickTiles(rack, "a?a a", 7)
	want := []domain.Tile{domain.NewTile('A'), domain.NewJoker(), domain.NewTile('A')}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pickTiles = %v, want %v", got, want)
	}
	if got := pickTiles(rack, "ab", 1); len(got) != 1 {
		t.Fatalf("max ignored: %v", got)
	}
	if got := pickTiles(rack, "z", 7); len(got) != 0 {
		t.Fatalf("letters not on the rack were picked: %v", got)
	}
}

func TestRenderView(t *testing.T) {
	view := ports.View{
		Snapshot: domain.TurnSnapshot{
			State:   domain.StatePlay,
			Board:   []domain.PlacedTile{{Pos: domain.Center, Tile: domain.NewTile('C')}},
			Players: []domain.Player{{Name: "ann", Score: 12}, {Name: "bob", Score: 3}},
			Bag:     []domain.Tile{domain.NewTile('E')},
		},
		Pending:     []domain.PlacedTile{{Pos: domain.Position{Row: 7, Col: 8}, Tile: domain.NewTile('A')}},
		LocalPlayer: 0,
		Rack:        []domain.Tile{domain.NewTile('T'), domain.NewJoker()},
		MyTurn:      true,
	}
	out := renderView(view)

	lines := strings.Split(out, "\n")
	var row8, row1 string
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "  8 "):
			row8 = l
		case strings.HasPrefix(l, "  1 "):
			row1 = l
		}
	}
	if !strings.Contains(row8, "C a") {
		t.Fatalf("row 8 = %q, want committed C then pending a", row8)
	}
	if !strings.HasPrefix(row1, "  1  #") {
		t.Fatalf("row 1 = %q, want a triple word corner", row1)
	}
	for _, want := range []string{"> ann", "bag: 1", "rack: T ?", "your turn"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}

func TestRenderViewBlanksCellsOffTheLine(t *testing.T) {
	view := ports.View{
		Snapshot: domain.TurnSnapshot{State: domain.StatePlay, Players: []domain.Player{{Name: "ann"}, {Name: "bob"}}},
		Pending: []domain.PlacedTile{
			{Pos: domain.Position{Row: 7, Col: 7}, Tile: domain.NewTile('C')},
			{Pos: domain.Position{Row: 7, Col: 8}, Tile: domain.NewTile('A')},
		},
		Targets: []domain.Position{{Row: 7, Col: 0}, {Row: 7, Col: 9}},
		MyTurn:  true,
	}
	out := renderView(view)

	var row1, row8 string
	for _, l := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(l, "  1 "):
			row1 = l
		case strings.HasPrefix(l, "  8 "):
			row8 = l
		}
	}
	if strings.TrimSpace(strings.TrimPrefix(row1, "  1 ")) != "" {
		t.Fatalf("row 1 = %q, want only blanks", row1)
	}
	if !strings.HasPrefix(row8, "  8  #") || !strings.Contains(row8, "c a .") {
		t.Fatalf("row 8 = %q, want the open cells of the line", row8)
	}
}

func TestConsoleRoutesAnswersToOpenQuestion(t *testing.T) {
	inR, inW := io.Pipe()
	var out bytes.Buffer
	c := NewConsole(inR, &out)

	go func() {
		_, _ = io.WriteString(inW, "pass\n")
	}()
	select {
	case line := <-c.Commands():
		if line != "pass" {
			t.Fatalf("command = %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a command")
	}

	answered := make(chan bool, 1)
	go func() { answered <- c.Confirm("finish?") }()
	// wait until the question is open before answering
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		waiting := c.waiting
		c.mu.Unlock()
		if waiting {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("question never opened")
		}
		time.Sleep(5 * time.Millisecond)
	}
	go func() {
		_, _ = io.WriteString(inW, "y\n")
	}()
	select {
	case ok := <-answered:
		if !ok {
			t.Fatal("Confirm = false, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the answer")
	}

	_ = inW.Close()
	select {
	case <-c.Closed():
	case <-time.After(2 * time.Second):
		t.Fatal("console did not close at end of input")
	}
	if c.Confirm("again?") {
		t.Fatal("Confirm after end of input = true")
	}
}

func TestPrintStandings(t *testing.T) {
	var out bytes.Buffer
	c := &Console{out: &out}
	printStandings(c, []domain.Player{{Name: "ann", Score: 12}, {Name: "bob", Score: 40}})

	got := out.String()
	if strings.Index(got, "1. bob") < 0 || strings.Index(got, "2. ann") < strings.Index(got, "1. bob") {
		t.Fatalf("standings not ordered by score:\n%s", got)
	}
}
