package voice

import (
	"context"
	"errors"
)

var (
	// ErrConnectionFailed is returned when the platform could not open a connection
	ErrConnectionFailed = errors.New("failed to connect to voice channel")
	// ErrNotConnected is returned when the guild has no connection
	ErrNotConnected = errors.New("not connected to voice channel")
)

// State is the lifecycle state of a voice connection
type State int

const (
	StateSignalling State = iota
	StateConnecting
	StateReady
	StateDisconnected
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateSignalling:
		return "signalling"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Usable reports whether a connection in this state can be reused
func (s State) Usable() bool {
	return s != StateDisconnected && s != StateDestroyed
}

// recovering reports whether the connection is on its way back to ready
func (s State) recovering() bool {
	return s == StateSignalling || s == StateConnecting || s == StateReady
}

// Connection is one guild's voice connection
type Connection interface {
	GuildID() string
	ChannelID() string
	State() State
	// Destroy tears the connection down. Calling it on a destroyed connection is an error.
	Destroy() error
	OpusSend() chan<- []byte
	Speaking(speaking bool) error
}

// Platform opens voice connections
type Platform interface {
	Join(ctx context.Context, guildID, channelID string) (Connection, error)
}
