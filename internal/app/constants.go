package app

import "time"

// AnySeat as a session's local seat lets whoever is to move act from this session (hot-seat play).
const AnySeat = -1

// genericConnectionNotice is what players see for transport and protocol trouble.
const genericConnectionNotice = "Connection problem: the game may be out of sync with the other players."

const shutdownNoticeTimeout = 2 * time.Second
