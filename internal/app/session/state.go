package session

import (
	"fmt"

	"cafechat/internal/app/protocol"
	"cafechat/internal/app/roster"
)

// State is the lifecycle position of a session. There is no terminal state: a session
// ends when its transport is torn down and the controller is discarded.
type State int

const (
	// StateConnecting is the state before the register envelope is sent.
	StateConnecting State = iota

	// StateRegistered follows the register send.
	StateRegistered

	// StateActive is entered on the first inbound frame that decodes.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistered:
		return "registered"
	case StateActive:
		return "active"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state by name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a read-only copy of session state handed to renderers.
type Snapshot struct {
	Username string                 `json:"username"`
	State    State                  `json:"state"`
	Roster   []roster.UserProfile   `json:"roster"`
	Messages []protocol.ChatMessage `json:"messages"`
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
