package nakama

import (
	"context"
	"database/sql"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/game"
	"github.com/fuubian/Scrabble-sub000/internal/metrics"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/fuubian/Scrabble-sub000/internal/wire"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Relay error codes sent with OpRelayError.
const (
	ErrCodeMalformed = 1
	ErrCodeStale     = 2
	ErrCodeSession   = 3
)

// RelayState holds the runtime state of one relay match. The match never
// interprets the game; it orders snapshots and forwards them.
type RelayState struct {
	SessionID string                      `json:"session_id"`
	Seats     [MaxSeats]string            `json:"seats"`     // user IDs, empty string means seat is empty
	HostSeat  int                         `json:"host_seat"` // seat of the participant that deals and drives computer players
	LastSeq   uint64                      `json:"last_seq"`  // highest snapshot sequence relayed
	Phase     domain.GameState            `json:"phase"`
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"`
	Latest    []byte                      `json:"-"` // newest snapshot frame, sent to late joiners
	Announced map[string]bool             `json:"-"` // users that sent their own leave notice
	Recorded  bool                        `json:"recorded"`
}

func (rs *RelayState) OpenSeats() int {
	count := 0
	for _, seat := range rs.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (rs *RelayState) seatOf(userID string) int {
	for i, seat := range rs.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

func firstOccupiedSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" {
			return i
		}
	}
	return -1
}

type matchHandler struct {
	stats ports.StatsStore
	now   func() time.Time
}

func newMatchHandler(stats ports.StatsStore) *matchHandler {
	return &matchHandler{stats: stats, now: time.Now}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	state := &RelayState{
		SessionID: matchID,
		HostSeat:  -1,
		Phase:     domain.StateSetup,
		Tick:      time.Now().Unix(),
		Presences: make(map[string]runtime.Presence),
		Announced: make(map[string]bool),
	}

	label, err := buildLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	logger.Debug("MatchInit: relay match %s created.", matchID)
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	rs, ok := state.(*RelayState)
	if !ok {
		return state, false, "state not found"
	}
	// A seated participant may always reconnect.
	if rs.seatOf(presence.GetUserId()) >= 0 {
		return rs, true, ""
	}
	if rs.Phase != domain.StateSetup {
		return rs, false, "Game in progress"
	}
	if rs.OpenSeats() <= 0 {
		return rs, false, "Match full"
	}
	return rs, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	rs, ok := state.(*RelayState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		rs.Presences[userID] = p
		delete(rs.Announced, userID)

		seat := rs.seatOf(userID)
		if seat < 0 {
			for i, seatUserID := range rs.Seats {
				if seatUserID == "" {
					rs.Seats[i] = userID
					seat = i
					break
				}
			}
		}
		if seat < 0 {
			logger.Warn("MatchJoin: User %s joined but no seat was available.", userID)
			continue
		}
		if rs.HostSeat < 0 {
			rs.HostSeat = seat
			logger.Debug("MatchJoin: Host set to seat %d.", seat)
		}

		mh.sendSeat(rs, dispatcher, logger, p, seat)
		if rs.Latest != nil {
			if err := dispatcher.BroadcastMessage(OpSnapshot, rs.Latest, []runtime.Presence{p}, nil, true); err != nil {
				logger.Warn("MatchJoin: catch-up for %s failed: %v", userID, err)
			}
		}
	}

	mh.updateLabel(rs, dispatcher, logger)
	return rs
}

// MatchLeave tells everyone else about leaving presences, unless the
// participant already announced its departure.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	rs, ok := state.(*RelayState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(rs.Presences, userID)
		// Seats stay reserved once the game runs so the participant can reconnect.
		if seat := rs.seatOf(userID); seat >= 0 && rs.Phase == domain.StateSetup {
			rs.Seats[seat] = ""
			logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
		}

		if rs.Announced[userID] {
			delete(rs.Announced, userID)
			continue
		}
		notice := wire.LeaveNotice{Participant: userID, Reason: "disconnected"}
		frame, err := wire.Marshal(wire.NewLeaveEnvelope(rs.SessionID, userID, notice))
		if err != nil {
			logger.Error("MatchLeave: Failed to marshal leave notice: %v", err)
			continue
		}
		mh.relay(rs, dispatcher, logger, OpLeave, frame, userID)
	}

	if rs.seatUser(rs.HostSeat) == "" {
		rs.HostSeat = firstOccupiedSeat(rs.Seats[:])
	}
	if len(rs.Presences) == 0 {
		logger.Info("MatchLeave: Terminating match with no participants.")
		return nil
	}

	mh.updateLabel(rs, dispatcher, logger)
	return rs
}

func (rs *RelayState) seatUser(seat int) string {
	if seat < 0 || seat >= len(rs.Seats) {
		return ""
	}
	return rs.Seats[seat]
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	rs, ok := state.(*RelayState)
	if !ok {
		return state
	}
	rs.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpSnapshot:
			mh.handleSnapshot(ctx, rs, dispatcher, logger, msg)
		case OpLeave:
			mh.handleLeave(rs, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}
	return rs
}

// handleSnapshot forwards a snapshot newer than every one relayed so far.
func (mh *matchHandler) handleSnapshot(ctx context.Context, rs *RelayState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	env, err := wire.Unmarshal(msg.GetData())
	if err != nil || env.Kind != wire.KindSnapshot {
		metrics.ProtocolErrors.Inc()
		logger.Warn("handleSnapshot: malformed frame from %s: %v", userID, err)
		mh.sendError(rs, dispatcher, logger, userID, ErrCodeMalformed, "malformed snapshot")
		return
	}
	if env.SessionID != rs.SessionID {
		metrics.SnapshotsDiscarded.WithLabelValues(metrics.ReasonSession).Inc()
		mh.sendError(rs, dispatcher, logger, userID, ErrCodeSession, "snapshot for another session")
		return
	}
	if env.Snapshot.Seq <= rs.LastSeq {
		metrics.SnapshotsDiscarded.WithLabelValues(metrics.ReasonStale).Inc()
		logger.Debug("handleSnapshot: dropping snapshot %d from %s, already at %d", env.Snapshot.Seq, userID, rs.LastSeq)
		mh.sendError(rs, dispatcher, logger, userID, ErrCodeStale, "stale snapshot")
		return
	}

	rs.LastSeq = env.Snapshot.Seq
	rs.Latest = append([]byte(nil), msg.GetData()...)
	phaseChanged := rs.Phase != env.Snapshot.State
	rs.Phase = env.Snapshot.State

	mh.relay(rs, dispatcher, logger, OpSnapshot, rs.Latest, userID)
	if phaseChanged {
		mh.updateLabel(rs, dispatcher, logger)
	}
	if rs.Phase == domain.StateGameOver {
		mh.recordResult(ctx, rs, logger, *env.Snapshot)
	}
}

func (mh *matchHandler) handleLeave(rs *RelayState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	env, err := wire.Unmarshal(msg.GetData())
	if err != nil || env.Kind != wire.KindLeave {
		metrics.ProtocolErrors.Inc()
		mh.sendError(rs, dispatcher, logger, userID, ErrCodeMalformed, "malformed leave notice")
		return
	}
	rs.Announced[userID] = true
	mh.relay(rs, dispatcher, logger, OpLeave, msg.GetData(), userID)
}

// relay sends data to every presence except the one of except.
func (mh *matchHandler) relay(rs *RelayState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, data []byte, except string) {
	recipients := make([]runtime.Presence, 0, len(rs.Presences))
	for userID, p := range rs.Presences {
		if userID != except {
			recipients = append(recipients, p)
		}
	}
	if len(recipients) == 0 {
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		metrics.SendFailures.Inc()
		logger.Error("relay: op %d failed: %v", opCode, err)
	}
}

func (mh *matchHandler) recordResult(ctx context.Context, rs *RelayState, logger runtime.Logger, snapshot domain.TurnSnapshot) {
	if rs.Recorded || mh.stats == nil {
		return
	}
	rs.Recorded = true
	if err := mh.stats.RecordGame(ctx, game.Result(rs.SessionID, snapshot, mh.now())); err != nil {
		logger.Error("recordResult: match %s: %v", rs.SessionID, err)
	}
}

// sendSeat tells a presence which seat it holds and whether it hosts.
func (mh *matchHandler) sendSeat(rs *RelayState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, p runtime.Presence, seat int) {
	data, err := marshalStruct(map[string]interface{}{
		"session_id": rs.SessionID,
		"seat":       seat,
		"host":       seat == rs.HostSeat,
	})
	if err != nil {
		logger.Error("sendSeat: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpSeatAssigned, data, []runtime.Presence{p}, nil, true); err != nil {
		logger.Warn("sendSeat: %v", err)
	}
}

// sendError sends a relay error to a specific user.
func (mh *matchHandler) sendError(rs *RelayState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := rs.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	data, err := marshalStruct(map[string]interface{}{"code": code, "message": message})
	if err != nil {
		logger.Error("Failed to marshal relay error: %v", err)
		return
	}
	_ = dispatcher.BroadcastMessage(OpRelayError, data, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(rs *RelayState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := buildLabel(rs)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func buildLabel(rs *RelayState) (string, error) {
	phase := labelPhaseLobby
	if rs.Phase != domain.StateSetup {
		phase = labelPhasePlay
	}
	data, err := marshalStruct(map[string]interface{}{
		labelKeyOpen:  rs.OpenSeats(),
		labelKeyGame:  labelGame,
		labelKeyPhase: phase,
	})
	return string(data), err
}

func marshalStruct(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated, grace %d seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
