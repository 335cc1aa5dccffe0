package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds     = errors.New("position out of bounds")
	ErrCellUnavailable = errors.New("cell is not available")
	ErrNotInLine       = errors.New("placed tiles must share one row or one column")
	ErrNotPending      = errors.New("cell holds no tile placed this turn")
	ErrNotJoker        = errors.New("tile is not a joker")
	ErrInvalidLetter   = errors.New("letter must be A-Z")
	ErrNotContiguous   = errors.New("placed tiles leave a gap")
	ErrNothingPlaced   = errors.New("no tiles placed")
	ErrUnresolvedJoker = errors.New("joker has no letter assigned")
	ErrPendingTiles    = errors.New("remove placed tiles first")
	ErrWordRejected    = errors.New("word rejected")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrNotPlaying      = errors.New("game is not in play")
	ErrNoSuchTile      = errors.New("rack holds no such tile")
)

// ValidationError is a locally recoverable rejection of a player's action.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError.
func Invalid(reason string, err error) error {
	return &ValidationError{Reason: reason, Err: err}
}

// ConnectivityError reports a failed send after local state already changed.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity: %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or unexpected inbound message.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return "protocol: " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error { return e.Err }
