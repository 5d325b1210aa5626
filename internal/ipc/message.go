package ipc

import (
	"errors"
	"fmt"

	go_json "github.com/goccy/go-json"
)

var (
	// ErrChannelNotAllowed indicates a channel outside the whitelist.
	ErrChannelNotAllowed = errors.New("channel not allowed")
	// ErrNoHandler indicates a request channel without a registered handler.
	ErrNoHandler = errors.New("no handler registered")
	// ErrTimeout indicates a request that did not complete before its deadline.
	ErrTimeout = errors.New("request timed out")
)

// Message is an encoded payload bound to a channel.
type Message struct {
	Channel Channel
	Payload []byte
}

// NewMessage encodes payload for a whitelisted channel.
func NewMessage(channel Channel, payload any) (Message, error) {
	if !IsEvent(channel) && !IsRequest(channel) {
		return Message{}, fmt.Errorf("%w: %q", ErrChannelNotAllowed, channel)
	}
	encoded, err := go_json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", channel, err)
	}
	return Message{Channel: channel, Payload: encoded}, nil
}

// Decode unmarshals the payload into out.
func (msg Message) Decode(out any) error {
	if len(msg.Payload) == 0 {
		return nil
	}
	if err := go_json.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.Channel, err)
	}
	return nil
}

// Empty is the payload of channels that carry no data.
type Empty struct{}

// BreakStart is sent to an overlay when it should begin its countdown.
type BreakStart struct {
	Duration int `json:"duration"`
}

// TimerUpdate carries the remaining break seconds to overlays.
type TimerUpdate struct {
	Remaining int `json:"remaining"`
}

// TimerComplete announces the phase the timekeeper just entered.
type TimerComplete struct {
	IsOnBreak bool `json:"isOnBreak"`
}

// StartBreakTimer requests a new break countdown.
type StartBreakTimer struct {
	Duration int `json:"duration"`
}

// Remaining answers a remaining-time query.
type Remaining struct {
	Remaining int `json:"remaining"`
}

// Active answers an is-active query.
type Active struct {
	Active bool `json:"active"`
}

// StoreKey addresses one settings key.
type StoreKey struct {
	Key string `json:"key"`
}

// StoreEntry is a settings key with its encoded value.
type StoreEntry struct {
	Key   string             `json:"key"`
	Value go_json.RawMessage `json:"value,omitempty"`
	Found bool               `json:"found"`
}

// Presence answers a store-has query.
type Presence struct {
	Has bool `json:"has"`
}

// Enabled carries a boolean toggle.
type Enabled struct {
	Enabled bool `json:"enabled"`
}

// Threshold carries the smart pause threshold in minutes.
type Threshold struct {
	Minutes int `json:"minutes"`
}

// Result reports the outcome of a user-facing platform action.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
