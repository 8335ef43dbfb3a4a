/*
Package chatlog holds the in-memory, append-only message history of a chat session.
*/
package chatlog

import (
	"cafechat/internal/app/protocol"
	"cafechat/internal/app/roster"
)

// Log is an ordered, append-only sequence of chat messages. Entries are never removed,
// reordered or modified. A Log is not safe for concurrent use; its owner serializes access.
type Log struct {
	messages []protocol.ChatMessage
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Append adds m after every message already in the log.
func (l *Log) Append(m protocol.ChatMessage) {
	l.messages = append(l.messages, m)
}

// All returns the messages in arrival order. The returned slice is a copy.
func (l *Log) All() []protocol.ChatMessage {
	out := make([]protocol.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// Since returns a copy of the messages at index n and later.
func (l *Log) Since(n int) []protocol.ChatMessage {
	if n < 0 {
		n = 0
	}
	if n >= len(l.messages) {
		return []protocol.ChatMessage{}
	}

	out := make([]protocol.ChatMessage, len(l.messages)-n)
	copy(out, l.messages[n:])
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	return len(l.messages)
}

// ProfileFor resolves the display profile of sender against the current roster. Senders
// that have left, or never appeared, get roster.Default.
func ProfileFor(sender string, profiles []roster.UserProfile) roster.UserProfile {
	if p, ok := roster.Lookup(profiles, sender); ok {
		return p
	}
	return roster.Default
}
