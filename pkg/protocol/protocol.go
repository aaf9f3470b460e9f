package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message types exchanged between clients and the server.
const (
	MsgTypeNewClient     = "new_client"
	MsgTypeLeavingClient = "leaving_client"
	MsgTypeHappyClient   = "happy_client"
	MsgTypeStartGame     = "start_game"
	MsgTypeEndGame       = "end_game"

	MsgTypePlayerSign     = "player_sign"
	MsgTypePlayer2Sign    = "player2_sign"
	MsgTypePlayerMove     = "player_move"
	MsgTypePlayer2Move    = "player2_move"
	MsgTypeComputerMove   = "computer_move"
	MsgTypePlacePlayer    = "place_player"
	MsgTypePlaceComputer  = "place_computer"
	MsgTypePlayerRandom   = "player_random"
	MsgTypeComputerRandom = "computer_random"
	MsgTypeIsOver         = "is_over"
	MsgTypeForceLoss      = "force_loss"
)

const typeKey = "type"

// ErrMissingType is returned when decoding a message without a "type" field.
var ErrMissingType = errors.New("message has no type field")

// Message is the flat envelope used for all client/server communication.
// It carries a mandatory type discriminator plus type-specific fields,
// encoded as a single flat JSON object.
type Message struct {
	msgType string
	fields  map[string]any
}

// New creates an empty message of the given type.
func New(msgType string) *Message {
	return &Message{
		msgType: msgType,
		fields:  make(map[string]any),
	}
}

// Type returns the message's type discriminator.
func (m *Message) Type() string { return m.msgType }

// SetType replaces the message's type discriminator, keeping its fields.
func (m *Message) SetType(msgType string) *Message {
	m.msgType = msgType
	return m
}

// Set stores a field value and returns the message for chaining.
func (m *Message) Set(key string, value any) *Message {
	m.fields[key] = value
	return m
}

// String returns the named field as a string, or "" if absent.
func (m *Message) String(key string) string {
	s, _ := m.fields[key].(string)
	return s
}

// Int returns the named field as an int, or 0 if absent.
// JSON numbers decode as float64, so both forms are accepted.
func (m *Message) Int(key string) int {
	switch v := m.fields[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Bool returns the named field as a bool, or false if absent.
func (m *Message) Bool(key string) bool {
	b, _ := m.fields[key].(bool)
	return b
}

// Strings returns the named field as a string slice, or nil if absent.
func (m *Message) Strings(key string) []string {
	switch v := m.fields[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Encode serializes the message as a flat JSON object with its type inlined.
func (m *Message) Encode() ([]byte, error) {
	if m.msgType == "" {
		return nil, ErrMissingType
	}

	flat := make(map[string]any, len(m.fields)+1)
	for k, v := range m.fields {
		flat[k] = v
	}
	flat[typeKey] = m.msgType

	data, err := json.Marshal(flat)
	if err != nil {
		return nil, fmt.Errorf("could not marshal message: %w", err)
	}
	return data, nil
}

// Decode parses a flat JSON object into a message, extracting its type field.
func Decode(data []byte) (*Message, error) {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("could not unmarshal message: %w", err)
	}

	msgType, ok := flat[typeKey].(string)
	if !ok || msgType == "" {
		return nil, ErrMissingType
	}
	delete(flat, typeKey)

	return &Message{msgType: msgType, fields: flat}, nil
}
