package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/fuubian/Scrabble-sub000/internal/store/memory"
	"github.com/fuubian/Scrabble-sub000/internal/wire"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
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

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []string
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent      []sentMessage
	lastLabel string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	msg := sentMessage{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		msg.recipients = append(msg.recipients, p.GetUserId())
	}
	md.sent = append(md.sent, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.lastLabel = label
	return nil
}

// to returns the messages with opCode that reached userID.
func (md *mockDispatcher) to(userID string, opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.sent {
		if m.opCode != opCode {
			continue
		}
		for _, r := range m.recipients {
			if r == userID {
				out = append(out, m)
			}
		}
	}
	return out
}

type mockPresence struct {
	userID string
}

func (p mockPresence) GetHidden() bool                   { return false }
func (p mockPresence) GetPersistence() bool              { return false }
func (p mockPresence) GetUsername() string               { return p.userID }
func (p mockPresence) GetStatus() string                 { return "" }
func (p mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonUnknown }
func (p mockPresence) GetUserId() string                 { return p.userID }
func (p mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p mockPresence) GetNodeId() string                 { return "node" }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (m mockMatchData) GetOpCode() int64      { return m.opCode }
func (m mockMatchData) GetData() []byte       { return m.data }
func (m mockMatchData) GetReliable() bool     { return true }
func (m mockMatchData) GetReceiveTime() int64 { return 0 }

type relayFixture struct {
	mh    *matchHandler
	rs    *RelayState
	disp  *mockDispatcher
	stats *memory.Store
}

func newRelay(t *testing.T, users ...string) *relayFixture {
	t.Helper()
	stats := memory.New()
	mh := newMatchHandler(stats)
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_MATCH_ID, "m1")
	state, rate, label := mh.MatchInit(ctx, noopLogger{}, nil, nil, nil)
	if rate != tickRate || label == "" {
		t.Fatalf("MatchInit rate=%d label=%q", rate, label)
	}
	f := &relayFixture{mh: mh, rs: state.(*RelayState), disp: &mockDispatcher{}, stats: stats}
	for _, u := range users {
		f.join(t, u)
	}
	return f
}

func (f *relayFixture) join(t *testing.T, userID string) bool {
	t.Helper()
	p := mockPresence{userID: userID}
	_, ok, _ := f.mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, f.disp, 0, f.rs, p, nil)
	if ok {
		f.mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, f.disp, 0, f.rs, []runtime.Presence{p})
	}
	return ok
}

func (f *relayFixture) send(opCode int64, from string, frame []byte) {
	msg := mockMatchData{mockPresence: mockPresence{userID: from}, opCode: opCode, data: frame}
	f.mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, f.disp, 1, f.rs, []runtime.MatchData{msg})
}

func snapshot(t *testing.T, session, sender string, seq uint64, state domain.GameState) []byte {
	t.Helper()
	snap := domain.TurnSnapshot{
		Seq:   seq,
		State: state,
		Players: []domain.Player{
			{Name: "ann", Score: 40},
			{Name: "bob", Score: 25},
		},
	}
	frame, err := wire.Marshal(wire.NewSnapshotEnvelope(session, sender, snap))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return frame
}

func TestMatchJoinAssignsSeatsAndHost(t *testing.T) {
	f := newRelay(t, "u1", "u2")

	if f.rs.Seats[0] != "u1" || f.rs.Seats[1] != "u2" || f.rs.HostSeat != 0 {
		t.Fatalf("seats=%v host=%d", f.rs.Seats, f.rs.HostSeat)
	}
	msgs := f.disp.to("u2", OpSeatAssigned)
	if len(msgs) != 1 {
		t.Fatalf("seat messages to u2 = %d", len(msgs))
	}
	var seat struct {
		SessionID string  `json:"session_id"`
		Seat      float64 `json:"seat"`
		Host      bool    `json:"host"`
	}
	if err := json.Unmarshal(msgs[0].data, &seat); err != nil {
		t.Fatalf("decode seat: %v", err)
	}
	if seat.SessionID != "m1" || seat.Seat != 1 || seat.Host {
		t.Fatalf("seat message = %+v", seat)
	}

	var label map[string]interface{}
	if err := json.Unmarshal([]byte(f.disp.lastLabel), &label); err != nil {
		t.Fatalf("decode label: %v", err)
	}
	if label[labelKeyGame] != labelGame || label[labelKeyPhase] != labelPhaseLobby || label[labelKeyOpen] != float64(MaxSeats-2) {
		t.Fatalf("label = %v", label)
	}
}

func TestMatchLoopRelaysSnapshotsInOrder(t *testing.T) {
	f := newRelay(t, "u1", "u2", "u3")

	f.send(OpSnapshot, "u1", snapshot(t, "m1", "u1", 1, domain.StatePlay))
	for _, u := range []string{"u2", "u3"} {
		if got := f.disp.to(u, OpSnapshot); len(got) != 1 {
			t.Fatalf("%s received %d snapshots, want 1", u, len(got))
		}
	}
	if got := f.disp.to("u1", OpSnapshot); len(got) != 0 {
		t.Fatalf("sender received its own snapshot")
	}

	// A duplicate and a frame for another session are refused.
	f.send(OpSnapshot, "u2", snapshot(t, "m1", "u2", 1, domain.StatePlay))
	f.send(OpSnapshot, "u2", snapshot(t, "other", "u2", 5, domain.StatePlay))
	if got := f.disp.to("u3", OpSnapshot); len(got) != 1 {
		t.Fatalf("refused snapshots were relayed: %d", len(got))
	}
	if got := f.disp.to("u2", OpRelayError); len(got) != 2 {
		t.Fatalf("relay errors to u2 = %d, want 2", len(got))
	}

	f.send(OpSnapshot, "u2", snapshot(t, "m1", "u2", 2, domain.StatePlay))
	if f.rs.LastSeq != 2 || len(f.disp.to("u1", OpSnapshot)) != 1 {
		t.Fatalf("snapshot 2 not relayed: last=%d", f.rs.LastSeq)
	}
	if f.rs.Phase != domain.StatePlay {
		t.Fatalf("phase = %s", f.rs.Phase)
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	f := newRelay(t, "u1", "u2")
	f.send(OpSnapshot, "u1", snapshot(t, "m1", "u1", 1, domain.StatePlay))

	if f.join(t, "u9") {
		t.Fatal("new participant admitted to a running game")
	}

	// A seated participant reconnects and catches up.
	f.mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, f.disp, 2, f.rs, []runtime.Presence{mockPresence{userID: "u2"}})
	if !f.join(t, "u2") {
		t.Fatal("seated participant refused")
	}
	got := f.disp.to("u2", OpSnapshot)
	if len(got) != 2 {
		t.Fatalf("u2 snapshots = %d, want relay plus catch-up", len(got))
	}
}

func TestMatchLeaveAnnouncesDeparture(t *testing.T) {
	f := newRelay(t, "u1", "u2", "u3")

	// u2 says goodbye itself; u1 just drops.
	leave, _ := wire.Marshal(wire.NewLeaveEnvelope("m1", "u2", wire.LeaveNotice{Participant: "u2", Reason: "quit"}))
	f.send(OpLeave, "u2", leave)
	f.mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, f.disp, 2, f.rs, []runtime.Presence{mockPresence{userID: "u2"}})
	f.mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, f.disp, 3, f.rs, []runtime.Presence{mockPresence{userID: "u1"}})

	got := f.disp.to("u3", OpLeave)
	if len(got) != 2 {
		t.Fatalf("u3 leave notices = %d, want 2", len(got))
	}
	env, err := wire.Unmarshal(got[1].data)
	if err != nil || env.Leave.Participant != "u1" || env.Leave.Reason != "disconnected" {
		t.Fatalf("synthesized notice = %+v, %v", env, err)
	}
	if f.rs.HostSeat != 2 {
		t.Fatalf("host seat = %d, want 2", f.rs.HostSeat)
	}

	if next := f.mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, f.disp, 4, f.rs, []runtime.Presence{mockPresence{userID: "u3"}}); next != nil {
		t.Fatal("empty match should terminate")
	}
}

func TestMatchRecordsFinishedGameOnce(t *testing.T) {
	f := newRelay(t, "u1", "u2")
	f.send(OpSnapshot, "u1", snapshot(t, "m1", "u1", 1, domain.StatePlay))
	f.send(OpSnapshot, "u1", snapshot(t, "m1", "u1", 2, domain.StateGameOver))
	f.send(OpSnapshot, "u2", snapshot(t, "m1", "u2", 3, domain.StateGameOver))

	st, err := f.stats.PlayerStats(context.Background(), "ann")
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	want := ports.PlayerStats{Name: "ann", Games: 1, Wins: 1, TotalScore: 40, BestScore: 40}
	if st != want {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}
}
