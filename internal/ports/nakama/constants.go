package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a relay match.
	RpcQuickMatch = "quick_match"

	// MatchNameScrabble is the relay match handler name registered with Nakama.
	MatchNameScrabble = "scrabble_relay"

	// MaxSeats is the number of participants one relay match accepts.
	MaxSeats = 4

	tickRate = 5
)

// Op codes. Client frames carry wire envelopes unchanged.
const (
	// Client <-> Client (relayed)
	OpSnapshot int64 = 1
	OpLeave    int64 = 2

	// Server -> Client events
	OpSeatAssigned int64 = 101 // send privately
	OpRelayError   int64 = 102 // send privately
)

// Match label keys, queried by quick_match.
const (
	labelKeyOpen  = "open"
	labelKeyGame  = "game"
	labelKeyPhase = "phase"

	labelGame       = "scrabble"
	labelPhaseLobby = "lobby"
	labelPhasePlay  = "playing"
)
