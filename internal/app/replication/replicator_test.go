package replication

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/dictionary"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/game"
	"github.com/fuubian/Scrabble-sub000/internal/wire"
	"github.com/heroiclabs/nakama-common/runtime"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// recordingNetwork keeps every broadcast frame and fails while fail is set.
type recordingNetwork struct {
	sent [][]byte
	fail error
}

func (n *recordingNetwork) Broadcast(_ context.Context, data []byte) error {
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, append([]byte(nil), data...))
	return nil
}

func (n *recordingNetwork) Inbound() <-chan []byte { return nil }
func (n *recordingNetwork) Close() error           { return nil }

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newModel(t *testing.T, players ...string) *game.Game {
	t.Helper()
	var specs []game.PlayerSpec
	for _, p := range players {
		specs = append(specs, game.PlayerSpec{Name: p})
	}
	g := game.New(specs, dictionary.Permissive{}, game.Options{
		Rng: rand.New(rand.NewSource(7)),
		Now: func() time.Time { return fixedNow },
	})
	if len(players) > 0 {
		if err := g.Start(); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	return g
}

func TestBroadcastStampsIncreasingSequence(t *testing.T) {
	net := &recordingNetwork{}
	r := New("s1", "host", net, newModel(t, "ann", "bob"), noopLogger{})

	for want := uint64(1); want <= 3; want++ {
		seq, err := r.Broadcast(context.Background())
		if err != nil {
			t.Fatalf("broadcast: %v", err)
		}
		if seq != want {
			t.Fatalf("seq = %d, want %d", seq, want)
		}
	}

	env, err := wire.Unmarshal(net.sent[2])
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Snapshot.Seq != 3 || env.Sender != "host" || env.SessionID != "s1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

// A guest receiving snapshot #5 twice ends up as if it had received it once.
func TestReceiveDuplicateSnapshotIsIdempotent(t *testing.T) {
	host := newModel(t, "ann", "bob")
	hostNet := &recordingNetwork{}
	hr := New("s1", "host", hostNet, host, noopLogger{})
	for i := 0; i < 4; i++ {
		if _, err := hr.Broadcast(context.Background()); err != nil {
			t.Fatalf("broadcast: %v", err)
		}
	}
	if err := host.Pass(); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if _, err := hr.Broadcast(context.Background()); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	frame := hostNet.sent[4]

	guest := newModel(t)
	gr := New("s1", "guest", &recordingNetwork{}, guest, noopLogger{})

	msg, err := gr.Receive(frame)
	if err != nil || msg.Outcome != Applied || msg.Seq != 5 {
		t.Fatalf("first delivery: %+v, %v", msg, err)
	}
	once := guest.TurnSnapshot()

	msg, err = gr.Receive(frame)
	if err != nil || msg.Outcome != Discarded {
		t.Fatalf("second delivery: %+v, %v", msg, err)
	}
	twice := guest.TurnSnapshot()

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("state changed on duplicate delivery")
	}
	if len(twice.History) != 1 {
		t.Fatalf("history has %d entries, want 1", len(twice.History))
	}
	want := host.TurnSnapshot()
	if !reflect.DeepEqual(want, twice) {
		t.Fatalf("guest state differs from host:\n got %+v\nwant %+v", twice, want)
	}
}

func TestReceiveDropsOlderSnapshot(t *testing.T) {
	host := newModel(t, "ann", "bob")
	hostNet := &recordingNetwork{}
	hr := New("s1", "host", hostNet, host, noopLogger{})
	hr.Broadcast(context.Background())
	hr.Broadcast(context.Background())

	gr := New("s1", "guest", &recordingNetwork{}, newModel(t), noopLogger{})
	if msg, _ := gr.Receive(hostNet.sent[1]); msg.Outcome != Applied {
		t.Fatalf("newer snapshot not applied: %v", msg.Outcome)
	}
	if msg, _ := gr.Receive(hostNet.sent[0]); msg.Outcome != Discarded {
		t.Fatalf("older snapshot not discarded: %v", msg.Outcome)
	}
	if gr.Last() != 2 {
		t.Fatalf("last = %d, want 2", gr.Last())
	}
}

func TestSequenceContinuesAfterApply(t *testing.T) {
	host := newModel(t, "ann", "bob")
	hostNet := &recordingNetwork{}
	hr := New("s1", "host", hostNet, host, noopLogger{})
	hr.Broadcast(context.Background())
	hr.Broadcast(context.Background())

	guestNet := &recordingNetwork{}
	gr := New("s1", "guest", guestNet, newModel(t), noopLogger{})
	gr.Receive(hostNet.sent[1])

	seq, err := gr.Broadcast(context.Background())
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if seq != 3 {
		t.Fatalf("guest continued at %d, want 3", seq)
	}
	if msg, _ := hr.Receive(guestNet.sent[0]); msg.Outcome != Applied {
		t.Fatalf("host did not apply guest snapshot: %v", msg.Outcome)
	}
}

func TestReceiveIgnoresOwnAndForeignMessages(t *testing.T) {
	net := &recordingNetwork{}
	r := New("s1", "host", net, newModel(t, "ann", "bob"), noopLogger{})
	r.Broadcast(context.Background())

	if msg, err := r.Receive(net.sent[0]); err != nil || msg.Outcome != Ignored {
		t.Fatalf("own echo: %+v, %v", msg, err)
	}

	other := New("s2", "host", &recordingNetwork{}, newModel(t, "cy", "di"), noopLogger{})
	otherNet := other.net.(*recordingNetwork)
	other.Broadcast(context.Background())
	gr := New("s1", "guest", &recordingNetwork{}, newModel(t), noopLogger{})
	if msg, err := gr.Receive(otherNet.sent[0]); err != nil || msg.Outcome != Discarded {
		t.Fatalf("foreign session: %+v, %v", msg, err)
	}
}

func TestReceiveMalformedIsProtocolError(t *testing.T) {
	model := newModel(t)
	r := New("s1", "guest", &recordingNetwork{}, model, noopLogger{})
	before := model.TurnSnapshot()

	msg, err := r.Receive([]byte{0xff, 0xff, 0xff})
	var perr *domain.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if msg.Outcome != Ignored {
		t.Fatalf("outcome = %v", msg.Outcome)
	}
	if !reflect.DeepEqual(before, model.TurnSnapshot()) {
		t.Fatalf("model changed on malformed input")
	}
}

func TestLeaveNotice(t *testing.T) {
	net := &recordingNetwork{}
	r := New("s1", "guest", net, newModel(t), noopLogger{})
	if err := r.AnnounceLeave(context.Background(), "quit"); err != nil {
		t.Fatalf("announce: %v", err)
	}

	hr := New("s1", "host", &recordingNetwork{}, newModel(t, "ann", "bob"), noopLogger{})
	msg, err := hr.Receive(net.sent[0])
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if msg.Outcome != Left || msg.Leave == nil || msg.Leave.Participant != "guest" || msg.Leave.Reason != "quit" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestFailedBroadcastKeepsSnapshotForResend(t *testing.T) {
	net := &recordingNetwork{fail: errors.New("link down")}
	model := newModel(t, "ann", "bob")
	r := New("s1", "host", net, model, noopLogger{})

	_, err := r.Broadcast(context.Background())
	var cerr *domain.ConnectivityError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
	if !r.Unsent() {
		t.Fatalf("failed snapshot not marked unsent")
	}
	if model.GameState() != domain.StatePlay {
		t.Fatalf("local state rolled back")
	}

	net.fail = nil
	if err := r.Resend(context.Background()); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if r.Unsent() || len(net.sent) != 1 {
		t.Fatalf("resend did not deliver: unsent=%v sent=%d", r.Unsent(), len(net.sent))
	}
	env, _ := wire.Unmarshal(net.sent[0])
	if env.Snapshot.Seq != 1 {
		t.Fatalf("resent seq %d, want 1", env.Snapshot.Seq)
	}
}

func TestResendWithoutBroadcast(t *testing.T) {
	r := New("s1", "host", &recordingNetwork{}, newModel(t, "ann", "bob"), noopLogger{})
	if err := r.Resend(context.Background()); !errors.Is(err, ErrNothingToResend) {
		t.Fatalf("expected ErrNothingToResend, got %v", err)
	}
}
