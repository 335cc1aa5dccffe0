package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Discard reasons for SnapshotsDiscarded.
const (
	ReasonStale    = "stale"
	ReasonSession  = "foreign_session"
	ReasonRejected = "rejected"
)

var (
	Turns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrabble_turns_total",
			Help: "Turn actions handled by the coordinator",
		},
		[]string{"action", "result"},
	)
	SnapshotsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scrabble_snapshots_sent_total",
			Help: "Turn snapshots broadcast successfully",
		},
	)
	SnapshotsApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scrabble_snapshots_applied_total",
			Help: "Inbound turn snapshots applied to the local game",
		},
	)
	SnapshotsDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrabble_snapshots_discarded_total",
			Help: "Inbound turn snapshots dropped without being applied",
		},
		[]string{"reason"},
	)
	SendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scrabble_send_failures_total",
			Help: "Broadcasts that failed after a local commit",
		},
	)
	ProtocolErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scrabble_protocol_errors_total",
			Help: "Inbound messages that could not be decoded or were unexpected",
		},
	)
)

func init() {
	prometheus.MustRegister(Turns)
	prometheus.MustRegister(SnapshotsSent)
	prometheus.MustRegister(SnapshotsApplied)
	prometheus.MustRegister(SnapshotsDiscarded)
	prometheus.MustRegister(SendFailures)
	prometheus.MustRegister(ProtocolErrors)
}

// Turn counts one coordinator action with its outcome.
func Turn(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Turns.WithLabelValues(action, result).Inc()
}
