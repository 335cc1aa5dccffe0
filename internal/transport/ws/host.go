// Package ws carries replication frames over websockets: one participant
// hosts, the others dial in with an admission token.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/fuubian/Scrabble-sub000/internal/app"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/fuubian/Scrabble-sub000/internal/wire"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verifier checks admission tokens. app.TokenService implements it.
type Verifier interface {
	Verify(token string) (app.Admission, error)
}

type guest struct {
	admission app.Admission
	conn      *conn
	// announced is set once the guest sent its own leave notice.
	announced bool
}

// Host accepts guests for one session and relays every frame between all
// participants. It implements ports.Network for the hosting participant.
type Host struct {
	sessionID string
	verifier  Verifier
	logger    runtime.Logger
	upgrader  websocket.Upgrader

	mu        sync.Mutex
	guests    map[string]*guest
	latest    []byte
	latestSeq uint64

	inbound   chan []byte
	joined    chan app.Admission
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ ports.Network = (*Host)(nil)

func NewHost(sessionID string, verifier Verifier, logger runtime.Logger) *Host {
	return &Host{
		sessionID: sessionID,
		verifier:  verifier,
		logger:    logger,
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		guests:    make(map[string]*guest),
		inbound:   make(chan []byte, 64),
		joined:    make(chan app.Admission, 8),
		closed:    make(chan struct{}),
	}
}

// Handler serves /ws for guests plus /health and /metrics.
func (h *Host) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.handleWS)
	return r
}

// Joined reports every admitted guest. Arrivals are dropped when nobody reads.
func (h *Host) Joined() <-chan app.Admission { return h.joined }

// Guests returns the number of connected guests.
func (h *Host) Guests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.guests)
}

func (h *Host) Inbound() <-chan []byte { return h.inbound }

// Broadcast sends data to every guest. A guest that cannot keep up is
// disconnected, which later surfaces as its leave notice.
func (h *Host) Broadcast(_ context.Context, data []byte) error {
	select {
	case <-h.closed:
		return ErrClosed
	default:
	}
	h.remember(data)
	return h.relay("", data)
}

func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		close(h.closed)
		h.mu.Lock()
		for _, g := range h.guests {
			g.conn.close()
		}
		h.mu.Unlock()
		h.wg.Wait()
		close(h.inbound)
	})
	return nil
}

func (h *Host) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, `{"error":"token required"}`, http.StatusUnauthorized)
		return
	}
	admission, err := h.verifier.Verify(token)
	if err != nil || admission.SessionID != h.sessionID {
		h.logger.Warn("Host.handleWS: rejected join from %s: %v", r.RemoteAddr, err)
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	h.mu.Lock()
	select {
	case <-h.closed:
		h.mu.Unlock()
		http.Error(w, `{"error":"session closed"}`, http.StatusGone)
		return
	default:
	}
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Host.handleWS: upgrade failed: %v", err)
		return
	}

	g := &guest{admission: admission, conn: newConn(ws)}
	go g.conn.writePump()
	h.register(g)
	h.logger.Info("Host.handleWS: %s joined seat %d", admission.Participant, admission.Seat)

	select {
	case h.joined <- admission:
	default:
	}

	err = g.conn.readPump(func(frame []byte) { h.fromGuest(g, frame) })
	h.unregister(g, err)
}

func (h *Host) register(g *guest) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.guests[g.admission.Participant]; ok {
		// Reconnect: the new socket replaces the old one without a leave notice.
		delete(h.guests, g.admission.Participant)
		old.conn.close()
	}
	h.guests[g.admission.Participant] = g
	if h.latest != nil {
		if err := g.conn.enqueue(h.latest); err != nil {
			h.logger.Warn("Host.register: catch-up for %s not queued: %v", g.admission.Participant, err)
		}
	}
}

func (h *Host) unregister(g *guest, cause error) {
	h.mu.Lock()
	current := h.guests[g.admission.Participant] == g
	if current {
		delete(h.guests, g.admission.Participant)
	}
	h.mu.Unlock()

	if !current || g.announced {
		return
	}
	select {
	case <-h.closed:
		return
	default:
	}

	h.logger.Info("Host.unregister: %s disconnected: %v", g.admission.Participant, cause)
	notice := wire.LeaveNotice{Participant: g.admission.Participant, Reason: "disconnected"}
	frame, err := wire.Marshal(wire.NewLeaveEnvelope(h.sessionID, g.admission.Participant, notice))
	if err != nil {
		h.logger.Error("Host.unregister: %v", err)
		return
	}
	h.deliver(frame)
	if err := h.relay("", frame); err != nil {
		h.logger.Warn("Host.unregister: %v", err)
	}
}

// fromGuest hands a guest frame to the local session and to every other guest.
func (h *Host) fromGuest(g *guest, frame []byte) {
	if env, err := wire.Unmarshal(frame); err == nil && env.Kind == wire.KindLeave {
		g.announced = true
	}
	h.remember(frame)
	if err := h.relay(g.admission.Participant, frame); err != nil {
		h.logger.Warn("Host.fromGuest: %v", err)
	}
	h.deliver(frame)
}

func (h *Host) deliver(frame []byte) {
	select {
	case h.inbound <- frame:
	case <-h.closed:
	}
}

// remember keeps the newest snapshot frame for guests that join later.
func (h *Host) remember(frame []byte) {
	env, err := wire.Unmarshal(frame)
	if err != nil || env.Kind != wire.KindSnapshot {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if env.Snapshot.Seq > h.latestSeq {
		h.latestSeq = env.Snapshot.Seq
		h.latest = frame
	}
}

func (h *Host) relay(except string, frame []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for id, g := range h.guests {
		if id == except {
			continue
		}
		if err := g.conn.enqueue(frame); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", id, err))
			g.conn.close()
		}
	}
	return errors.Join(errs...)
}
