package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/app"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/wire"
	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
)

type noopLogger struct{}

func (noopLogger) Debug(format string, v ...interface{})                   {}
func (noopLogger) Info(format string, v ...interface{})                    {}
func (noopLogger) Warn(format string, v ...interface{})                    {}
func (noopLogger) Error(format string, v ...interface{})                   {}
func (noopLogger) WithField(key string, v interface{}) runtime.Logger      { return noopLogger{} }
func (noopLogger) WithFields(fields map[string]interface{}) runtime.Logger { return noopLogger{} }
func (noopLogger) Fields() map[string]interface{}                          { return nil }

type fixture struct {
	host   *Host
	tokens *app.TokenService
	wsURL  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens := app.NewTokenService("test-secret", "scrabble")
	host := NewHost("s1", tokens, noopLogger{})
	srv := httptest.NewServer(host.Handler())
	t.Cleanup(func() {
		host.Close()
		srv.Close()
	})
	return &fixture{host: host, tokens: tokens, wsURL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}
}

func (f *fixture) join(t *testing.T, participant string, seat int) *Client {
	t.Helper()
	token, err := f.tokens.Issue(app.Admission{SessionID: "s1", Participant: participant, Seat: seat})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c, err := Dial(context.Background(), f.wsURL, token, noopLogger{})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	select {
	case a := <-f.host.Joined():
		if a.Participant != participant {
			t.Fatalf("joined %q, want %q", a.Participant, participant)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("%s never joined", participant)
	}
	return c
}

func snapshotFrame(t *testing.T, sender string, seq uint64) []byte {
	t.Helper()
	frame, err := wire.Marshal(wire.NewSnapshotEnvelope("s1", sender, domain.TurnSnapshot{Seq: seq, State: domain.StatePlay}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return frame
}

func receive(t *testing.T, ch <-chan []byte) wire.Envelope {
	t.Helper()
	select {
	case frame, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		env, err := wire.Unmarshal(frame)
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return wire.Envelope{}
}

func TestHostRejectsBadToken(t *testing.T) {
	f := newFixture(t)
	other := app.NewTokenService("test-secret", "scrabble")
	foreign, _ := other.Issue(app.Admission{SessionID: "s2", Participant: "g1", Seat: 1})

	for name, token := range map[string]string{"garbage": "nope", "other session": foreign} {
		t.Run(name, func(t *testing.T) {
			target, _ := JoinURL(f.wsURL, token)
			_, resp, err := websocket.DefaultDialer.Dial(target, nil)
			if err == nil {
				t.Fatal("expected the dial to fail")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("response = %v, want 401", resp)
			}
		})
	}
}

func TestHostSendsLatestSnapshotOnJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.host.Broadcast(ctx, snapshotFrame(t, "host", 1)); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if err := f.host.Broadcast(ctx, snapshotFrame(t, "host", 2)); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	g := f.join(t, "g1", 1)
	env := receive(t, g.Inbound())
	if env.Kind != wire.KindSnapshot || env.Snapshot.Seq != 2 {
		t.Fatalf("catch-up frame = %+v, want snapshot 2", env)
	}
}

func TestHostRelaysGuestFrames(t *testing.T) {
	f := newFixture(t)
	g1 := f.join(t, "g1", 1)
	g2 := f.join(t, "g2", 2)

	if err := g1.Broadcast(context.Background(), snapshotFrame(t, "g1", 3)); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if env := receive(t, f.host.Inbound()); env.Sender != "g1" || env.Snapshot.Seq != 3 {
		t.Fatalf("host got %+v", env)
	}
	if env := receive(t, g2.Inbound()); env.Sender != "g1" || env.Snapshot.Seq != 3 {
		t.Fatalf("g2 got %+v", env)
	}
	select {
	case frame := <-g1.Inbound():
		t.Fatalf("sender received its own frame back (%d bytes)", len(frame))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHostAnnouncesDisconnectedGuest(t *testing.T) {
	f := newFixture(t)
	g := f.join(t, "g1", 1)
	g.Close()

	env := receive(t, f.host.Inbound())
	if env.Kind != wire.KindLeave || env.Leave.Participant != "g1" {
		t.Fatalf("host got %+v, want a leave notice for g1", env)
	}
}

func TestHostHealth(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.host.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
}
