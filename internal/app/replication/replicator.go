// Package replication keeps the participants of one game on the same state by
// exchanging full turn snapshots.
//
// Every snapshot carries a sequence number one above the highest number the
// sender has seen. A receiver applies a snapshot only when its number is above
// everything it has applied or sent, so duplicated and reordered deliveries are
// dropped instead of rolling the game back.
package replication

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/metrics"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/fuubian/Scrabble-sub000/internal/wire"
	"github.com/heroiclabs/nakama-common/runtime"
)

// Outcome tells the caller what an inbound message did.
type Outcome int

const (
	// Ignored messages changed nothing: own echoes and undecodable input.
	Ignored Outcome = iota
	// Applied means the local model now holds the received snapshot.
	Applied
	// Discarded snapshots were stale or addressed to another session.
	Discarded
	// Left means another participant announced that it left the session.
	Left
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Discarded:
		return "discarded"
	case Left:
		return "left"
	default:
		return "ignored"
	}
}

// Message is the decoded result of Receive.
type Message struct {
	Outcome Outcome
	Seq     uint64
	From    string
	Leave   *wire.LeaveNotice
}

var ErrNothingToResend = errors.New("no snapshot to resend")

// Replicator sends local snapshots and applies remote ones for one participant.
// Like the model it is owned by the session loop and not safe for concurrent use.
type Replicator struct {
	sessionID   string
	participant string
	net         ports.Network
	model       ports.GameModel
	logger      runtime.Logger

	last    uint64
	latest  []byte
	unsent  bool
	sentSeq uint64
}

// New returns a Replicator for participant in session.
func New(sessionID, participant string, net ports.Network, model ports.GameModel, logger runtime.Logger) *Replicator {
	return &Replicator{
		sessionID:   sessionID,
		participant: participant,
		net:         net,
		model:       model,
		logger:      logger,
	}
}

// Last returns the highest sequence number sent or applied so far.
func (r *Replicator) Last() uint64 { return r.last }

// Unsent reports whether the latest snapshot failed to go out.
func (r *Replicator) Unsent() bool { return r.unsent }

// Broadcast stamps the model's current state with the next sequence number and
// sends it to every other participant. A send failure is returned as a
// *domain.ConnectivityError; the snapshot is kept for Resend.
func (r *Replicator) Broadcast(ctx context.Context) (uint64, error) {
	snap := r.model.TurnSnapshot()
	snap.Seq = r.last + 1

	data, err := wire.Marshal(wire.NewSnapshotEnvelope(r.sessionID, r.participant, snap))
	if err != nil {
		return 0, fmt.Errorf("encode snapshot %d: %w", snap.Seq, err)
	}
	r.last = snap.Seq
	r.latest = data
	r.sentSeq = snap.Seq

	if err := r.send(ctx, data); err != nil {
		return snap.Seq, err
	}
	return snap.Seq, nil
}

// Resend sends the latest broadcast snapshot again. Receivers that already hold it drop it.
func (r *Replicator) Resend(ctx context.Context) error {
	if r.sentSeq == 0 || r.latest == nil {
		return ErrNothingToResend
	}
	if r.sentSeq != r.last {
		// A newer snapshot arrived meanwhile and supersedes ours.
		r.unsent = false
		return nil
	}
	return r.send(ctx, r.latest)
}

func (r *Replicator) send(ctx context.Context, data []byte) error {
	if err := r.net.Broadcast(ctx, data); err != nil {
		r.unsent = true
		metrics.SendFailures.Inc()
		r.logger.Warn("Replicator.send: seq %d failed: %v", r.sentSeq, err)
		return &domain.ConnectivityError{Op: "broadcast snapshot", Err: err}
	}
	r.unsent = false
	metrics.SnapshotsSent.Inc()
	return nil
}

// AnnounceLeave tells every other participant that this one is leaving.
func (r *Replicator) AnnounceLeave(ctx context.Context, reason string) error {
	data, err := wire.Marshal(wire.NewLeaveEnvelope(r.sessionID, r.participant, wire.LeaveNotice{
		Participant: r.participant,
		Reason:      reason,
	}))
	if err != nil {
		return err
	}
	if err := r.net.Broadcast(ctx, data); err != nil {
		return &domain.ConnectivityError{Op: "broadcast leave", Err: err}
	}
	return nil
}

// Receive decodes one inbound message and applies it when it is a fresh snapshot.
// Malformed messages and snapshots the model refuses are reported as
// *domain.ProtocolError and leave the local state untouched.
func (r *Replicator) Receive(data []byte) (Message, error) {
	env, err := wire.Unmarshal(data)
	if err != nil {
		metrics.ProtocolErrors.Inc()
		return Message{Outcome: Ignored}, &domain.ProtocolError{Err: err}
	}
	msg := Message{From: env.Sender}
	if env.Sender == r.participant {
		msg.Outcome = Ignored
		return msg, nil
	}
	if env.SessionID != r.sessionID {
		metrics.SnapshotsDiscarded.WithLabelValues(metrics.ReasonSession).Inc()
		msg.Outcome = Discarded
		return msg, nil
	}

	switch env.Kind {
	case wire.KindLeave:
		msg.Outcome = Left
		msg.Leave = env.Leave
		return msg, nil
	case wire.KindSnapshot:
		msg.Seq = env.Snapshot.Seq
		if msg.Seq <= r.last {
			metrics.SnapshotsDiscarded.WithLabelValues(metrics.ReasonStale).Inc()
			r.logger.Debug("Replicator.Receive: dropping seq %d, already at %d", msg.Seq, r.last)
			msg.Outcome = Discarded
			return msg, nil
		}
		if err := r.model.ApplyTurnSnapshot(*env.Snapshot); err != nil {
			metrics.SnapshotsDiscarded.WithLabelValues(metrics.ReasonRejected).Inc()
			metrics.ProtocolErrors.Inc()
			msg.Outcome = Ignored
			return msg, &domain.ProtocolError{Err: fmt.Errorf("apply snapshot %d: %w", msg.Seq, err)}
		}
		r.last = msg.Seq
		r.latest = data
		r.unsent = false
		metrics.SnapshotsApplied.Inc()
		msg.Outcome = Applied
		return msg, nil
	}

	metrics.ProtocolErrors.Inc()
	return Message{Outcome: Ignored}, &domain.ProtocolError{Err: fmt.Errorf("%w: %v", wire.ErrUnknownKind, env.Kind)}
}
