// Package wire encodes replication messages exchanged between game sessions.
//
// Messages use the protobuf wire format, written and read field by field with
// protowire so no generated code is needed. Unknown fields are skipped on read,
// which lets newer peers add fields without breaking older ones. Incompatible
// changes bump Version.
package wire

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/fuubian/Scrabble-sub000/internal/domain"

	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the envelope version this build writes and accepts.
const Version = 1

// Kind identifies the payload of an envelope.
type Kind uint32

const (
	KindSnapshot Kind = 1
	KindLeave    Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindLeave:
		return "leave"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

var (
	ErrUnsupportedVersion = errors.New("unsupported message version")
	ErrUnknownKind        = errors.New("unknown message kind")
	ErrMissingPayload     = errors.New("message payload missing")
	ErrWireType           = errors.New("unexpected wire type")
)

// LeaveNotice announces that a participant left the session.
type LeaveNotice struct {
	Participant string
	Reason      string
}

// Envelope is the unit sent over every transport.
type Envelope struct {
	Version   uint32
	Kind      Kind
	SessionID string
	Sender    string
	Snapshot  *domain.TurnSnapshot
	Leave     *LeaveNotice
}

// NewSnapshotEnvelope wraps snapshot for sending.
func NewSnapshotEnvelope(sessionID, sender string, snapshot domain.TurnSnapshot) Envelope {
	return Envelope{Version: Version, Kind: KindSnapshot, SessionID: sessionID, Sender: sender, Snapshot: &snapshot}
}

// NewLeaveEnvelope wraps a leave notice for sending.
func NewLeaveEnvelope(sessionID, sender string, notice LeaveNotice) Envelope {
	return Envelope{Version: Version, Kind: KindLeave, SessionID: sessionID, Sender: sender, Leave: &notice}
}

const (
	envVersion    protowire.Number = 1
	envKind       protowire.Number = 2
	envSession    protowire.Number = 3
	envSender     protowire.Number = 4
	envSnapshot   protowire.Number = 5
	envLeave      protowire.Number = 6
	snapSeq       protowire.Number = 1
	snapState     protowire.Number = 2
	snapBoard     protowire.Number = 3
	snapPlayer    protowire.Number = 4
	snapCurrent   protowire.Number = 5
	snapBag       protowire.Number = 6
	snapElapsed   protowire.Number = 7
	snapScoreless protowire.Number = 8
	snapHistory   protowire.Number = 9
)

// Marshal encodes env.
func Marshal(env Envelope) ([]byte, error) {
	var b []byte
	b = appendVarint(b, envVersion, uint64(env.Version))
	b = appendVarint(b, envKind, uint64(env.Kind))
	b = appendString(b, envSession, env.SessionID)
	b = appendString(b, envSender, env.Sender)

	switch env.Kind {
	case KindSnapshot:
		if env.Snapshot == nil {
			return nil, ErrMissingPayload
		}
		b = protowire.AppendTag(b, envSnapshot, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalSnapshot(*env.Snapshot))
	case KindLeave:
		if env.Leave == nil {
			return nil, ErrMissingPayload
		}
		var lb []byte
		lb = appendString(lb, 1, env.Leave.Participant)
		lb = appendString(lb, 2, env.Leave.Reason)
		b = protowire.AppendTag(b, envLeave, protowire.BytesType)
		b = protowire.AppendBytes(b, lb)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, env.Kind)
	}
	return b, nil
}

// Unmarshal decodes data and checks that the envelope is complete and of a supported version.
func Unmarshal(data []byte) (Envelope, error) {
	var env Envelope
	var snapshotBytes, leaveBytes []byte

	err := fields(data, func(f field) error {
		var err error
		switch f.num {
		case envVersion:
			var v uint64
			v, err = f.uint()
			env.Version = uint32(v)
		case envKind:
			var v uint64
			v, err = f.uint()
			env.Kind = Kind(v)
		case envSession:
			env.SessionID, err = f.string()
		case envSender:
			env.Sender, err = f.string()
		case envSnapshot:
			snapshotBytes, err = f.bytes()
		case envLeave:
			leaveBytes, err = f.bytes()
		}
		return err
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	if env.Version != Version {
		return Envelope{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}

	switch env.Kind {
	case KindSnapshot:
		if snapshotBytes == nil {
			return Envelope{}, ErrMissingPayload
		}
		snapshot, err := unmarshalSnapshot(snapshotBytes)
		if err != nil {
			return Envelope{}, fmt.Errorf("decode snapshot: %w", err)
		}
		env.Snapshot = &snapshot
	case KindLeave:
		if leaveBytes == nil {
			return Envelope{}, ErrMissingPayload
		}
		var notice LeaveNotice
		err := fields(leaveBytes, func(f field) error {
			var err error
			switch f.num {
			case 1:
				notice.Participant, err = f.string()
			case 2:
				notice.Reason, err = f.string()
			}
			return err
		})
		if err != nil {
			return Envelope{}, fmt.Errorf("decode leave notice: %w", err)
		}
		env.Leave = &notice
	default:
		return Envelope{}, fmt.Errorf("%w: %d", ErrUnknownKind, env.Kind)
	}
	return env, nil
}

func marshalSnapshot(s domain.TurnSnapshot) []byte {
	var b []byte
	b = appendVarint(b, snapSeq, s.Seq)
	b = appendString(b, snapState, string(s.State))
	for _, pt := range s.Board {
		var pb []byte
		pb = appendVarint(pb, 1, uint64(pt.Pos.Row))
		pb = appendVarint(pb, 2, uint64(pt.Pos.Col))
		pb = appendMessage(pb, 3, marshalTile(pt.Tile))
		b = appendMessage(b, snapBoard, pb)
	}
	for _, p := range s.Players {
		var pb []byte
		pb = appendString(pb, 1, p.Name)
		pb = appendVarint(pb, 2, protowire.EncodeBool(p.Computer))
		for _, t := range p.Rack {
			pb = appendMessage(pb, 3, marshalTile(t))
		}
		pb = appendVarint(pb, 4, protowire.EncodeZigZag(int64(p.Score)))
		b = appendMessage(b, snapPlayer, pb)
	}
	b = appendVarint(b, snapCurrent, uint64(s.CurrentPlayer))
	for _, t := range s.Bag {
		b = appendMessage(b, snapBag, marshalTile(t))
	}
	b = appendVarint(b, snapElapsed, uint64(s.Elapsed.Milliseconds()))
	b = appendVarint(b, snapScoreless, uint64(s.ScorelessTurns))
	for _, m := range s.History {
		var mb []byte
		mb = appendVarint(mb, 1, uint64(m.Player))
		mb = appendString(mb, 2, string(m.Kind))
		mb = appendString(mb, 3, m.Word)
		mb = appendVarint(mb, 4, protowire.EncodeZigZag(int64(m.Score)))
		b = appendMessage(b, snapHistory, mb)
	}
	return b
}

func unmarshalSnapshot(data []byte) (domain.TurnSnapshot, error) {
	var s domain.TurnSnapshot
	err := fields(data, func(f field) error {
		switch f.num {
		case snapSeq:
			v, err := f.uint()
			s.Seq = v
			return err
		case snapState:
			v, err := f.string()
			s.State = domain.GameState(v)
			return err
		case snapBoard:
			b, err := f.bytes()
			if err != nil {
				return err
			}
			pt, err := unmarshalPlacedTile(b)
			if err != nil {
				return err
			}
			s.Board = append(s.Board, pt)
		case snapPlayer:
			b, err := f.bytes()
			if err != nil {
				return err
			}
			p, err := unmarshalPlayer(b)
			if err != nil {
				return err
			}
			s.Players = append(s.Players, p)
		case snapCurrent:
			v, err := f.uint()
			s.CurrentPlayer = int(v)
			return err
		case snapBag:
			b, err := f.bytes()
			if err != nil {
				return err
			}
			t, err := unmarshalTile(b)
			if err != nil {
				return err
			}
			s.Bag = append(s.Bag, t)
		case snapElapsed:
			v, err := f.uint()
			s.Elapsed = time.Duration(v) * time.Millisecond
			return err
		case snapScoreless:
			v, err := f.uint()
			s.ScorelessTurns = int(v)
			return err
		case snapHistory:
			b, err := f.bytes()
			if err != nil {
				return err
			}
			m, err := unmarshalMoveRecord(b)
			if err != nil {
				return err
			}
			s.History = append(s.History, m)
		}
		return nil
	})
	if err != nil {
		return domain.TurnSnapshot{}, err
	}
	if s.Seq == 0 {
		return domain.TurnSnapshot{}, errors.New("snapshot without sequence number")
	}
	if len(s.Players) > 0 && (s.CurrentPlayer < 0 || s.CurrentPlayer >= len(s.Players)) {
		return domain.TurnSnapshot{}, fmt.Errorf("current player %d out of range", s.CurrentPlayer)
	}
	return s, nil
}

func marshalTile(t domain.Tile) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(t.Letter))
	b = appendVarint(b, 2, uint64(t.Points))
	b = appendVarint(b, 3, protowire.EncodeBool(t.Joker))
	return b
}

func unmarshalTile(data []byte) (domain.Tile, error) {
	var t domain.Tile
	err := fields(data, func(f field) error {
		switch f.num {
		case 1, 2, 3:
		default:
			return nil
		}
		v, err := f.uint()
		if err != nil {
			return err
		}
		switch f.num {
		case 1:
			if v > utf8.MaxRune {
				return fmt.Errorf("tile letter %d out of range", v)
			}
			t.Letter = rune(v)
		case 2:
			t.Points = int(v)
		case 3:
			t.Joker = protowire.DecodeBool(v)
		}
		return nil
	})
	return t, err
}

func unmarshalPlacedTile(data []byte) (domain.PlacedTile, error) {
	var pt domain.PlacedTile
	err := fields(data, func(f field) error {
		switch f.num {
		case 1, 2:
			v, err := f.uint()
			if err != nil {
				return err
			}
			if v >= domain.BoardSize {
				return fmt.Errorf("board coordinate %d out of range", v)
			}
			if f.num == 1 {
				pt.Pos.Row = int(v)
			} else {
				pt.Pos.Col = int(v)
			}
		case 3:
			b, err := f.bytes()
			if err != nil {
				return err
			}
			pt.Tile, err = unmarshalTile(b)
			return err
		}
		return nil
	})
	return pt, err
}

func unmarshalPlayer(data []byte) (domain.Player, error) {
	var p domain.Player
	err := fields(data, func(f field) error {
		var err error
		switch f.num {
		case 1:
			p.Name, err = f.string()
		case 2:
			var v uint64
			v, err = f.uint()
			p.Computer = protowire.DecodeBool(v)
		case 3:
			var b []byte
			if b, err = f.bytes(); err != nil {
				return err
			}
			var t domain.Tile
			if t, err = unmarshalTile(b); err != nil {
				return err
			}
			p.Rack = append(p.Rack, t)
		case 4:
			var v uint64
			v, err = f.uint()
			p.Score = int(protowire.DecodeZigZag(v))
		}
		return err
	})
	return p, err
}

func unmarshalMoveRecord(data []byte) (domain.MoveRecord, error) {
	var m domain.MoveRecord
	err := fields(data, func(f field) error {
		var err error
		switch f.num {
		case 1:
			var v uint64
			v, err = f.uint()
			m.Player = int(v)
		case 2:
			var v string
			v, err = f.string()
			m.Kind = domain.MoveKind(v)
		case 3:
			m.Word, err = f.string()
		case 4:
			var v uint64
			v, err = f.uint()
			m.Score = int(protowire.DecodeZigZag(v))
		}
		return err
	})
	return m, err
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// field is one decoded key/value pair.
type field struct {
	num protowire.Number
	typ protowire.Type
	v   uint64
	b   []byte
}

func (f field) uint() (uint64, error) {
	if f.typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: field %d", ErrWireType, f.num)
	}
	return f.v, nil
}

func (f field) bytes() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, fmt.Errorf("%w: field %d", ErrWireType, f.num)
	}
	return f.b, nil
}

func (f field) string() (string, error) {
	b, err := f.bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("field %d: invalid utf-8", f.num)
	}
	return string(b), nil
}

// fields walks the top-level fields of a message, calling fn for each one.
func fields(data []byte, fn func(f field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(data)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(data)
			if f.b == nil && n >= 0 {
				f.b = []byte{}
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
