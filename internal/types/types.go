package types

import (
	"encoding/json"
	"errors"
	"fmt"

	wire "github.com/DoyleJ11/take5-client/pkg/types"
)

var ErrEmptyEnvelope = errors.New("empty envelope")
var ErrUnknownType = errors.New("unknown message type")

// Envelope is the raw frame shape on both channels.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound is the closed set of messages the server can push.
type Inbound interface{ isInbound() }

type Identity struct{ wire.Identity }

type Error struct{ Text string }

type State struct{ wire.StatePayload }

type Info struct{ Text string }

type Stats struct{ Stats []wire.PlayerStat }

type RoomClosed struct{}

type Countdown struct{ Count int }

type RoomList struct{ Rooms []wire.RoomSummary }

func (Identity) isInbound()   {}
func (Error) isInbound()      {}
func (State) isInbound()      {}
func (Info) isInbound()       {}
func (Stats) isInbound()      {}
func (RoomClosed) isInbound() {}
func (Countdown) isInbound()  {}
func (RoomList) isInbound()   {}

// Decode turns one frame into its typed variant. Nothing past the transport
// boundary ever sees a string tag.
func Decode(b []byte) (Inbound, error) {
	if len(b) == 0 {
		return nil, ErrEmptyEnvelope
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case wire.TagIdentity:
		id, err := decodePayload[wire.Identity](env)
		if err != nil {
			return nil, err
		}
		return Identity{id}, nil
	case wire.TagError:
		return Error{Text: decodeText(env)}, nil
	case wire.TagState:
		st, err := decodePayload[wire.StatePayload](env)
		if err != nil {
			return nil, err
		}
		return State{st}, nil
	case wire.TagInfo:
		return Info{Text: decodeText(env)}, nil
	case wire.TagStats:
		var stats []wire.PlayerStat
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &stats); err != nil {
				return nil, fmt.Errorf("decode %s: %w", env.Type, err)
			}
		}
		if stats == nil {
			stats = []wire.PlayerStat{}
		}
		return Stats{Stats: stats}, nil
	case wire.TagRoomClosed:
		return RoomClosed{}, nil
	case wire.TagCountdown:
		c, err := decodePayload[wire.Countdown](env)
		if err != nil {
			return nil, err
		}
		return Countdown{Count: c.Count}, nil
	case wire.TagRoomList:
		var rooms []wire.RoomSummary
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &rooms); err != nil {
				return nil, fmt.Errorf("decode %s: %w", env.Type, err)
			}
		}
		if rooms == nil {
			rooms = []wire.RoomSummary{}
		}
		return RoomList{Rooms: rooms}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.Type)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return out, nil
}

// decodeText accepts a JSON string payload; anything else is kept verbatim.
func decodeText(env Envelope) string {
	if len(env.Payload) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Payload, &s); err != nil {
		return string(env.Payload)
	}
	return s
}

// Encode serialises an outbound action.
func Encode(a wire.Action) ([]byte, error) {
	if a.Type == "" {
		return nil, fmt.Errorf("trying to encode action with empty type")
	}
	return json.Marshal(a)
}

func CreateRoom(id, name, roomID string) wire.Action {
	return wire.Action{Type: wire.ActCreateRoom, ID: id, Payload: name, RoomID: roomID}
}

func Login(id, name, roomID string) wire.Action {
	return wire.Action{Type: wire.ActLogin, ID: id, Payload: name, RoomID: roomID}
}

func PlayCard(value int) wire.Action { return wire.Action{Type: wire.ActPlayCard, Value: value} }

func ChooseRow(row int) wire.Action { return wire.Action{Type: wire.ActChooseRow, Value: row} }

// Simple returns a payload-less command (ready, restart, leave_room, ...).
func Simple(kind string) wire.Action { return wire.Action{Type: kind} }
