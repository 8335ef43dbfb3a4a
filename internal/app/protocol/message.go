package protocol

import (
	"encoding/json"
	"fmt"
)

// ChatMessage is the inner payload of an inbound message envelope.
type ChatMessage struct {
	// From is the sender's display name.
	From string `json:"from"`

	// Text is the message body, kept verbatim.
	Text string `json:"message"`
}

const (
	fieldFrom    = "from"
	fieldMessage = "message"
)

// DecodeChatMessage performs the inner decode pass on a message envelope's data.
// Both from and message must be present; a partial payload is rejected whole.
func DecodeChatMessage(data string) (ChatMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return ChatMessage{}, &DecodeError{Stage: StageMessage, Err: err}
	}

	var m ChatMessage
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{fieldFrom, &m.From},
		{fieldMessage, &m.Text},
	} {
		raw, ok := field(obj, f.name)
		if !ok {
			return ChatMessage{}, &DecodeError{Stage: StageMessage, Err: fmt.Errorf("%w: %s", ErrMissingField, f.name)}
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return ChatMessage{}, &DecodeError{Stage: StageMessage, Err: err}
		}
	}

	return m, nil
}

// EncodeChatMessage serializes m the way the server embeds it in a message envelope.
func EncodeChatMessage(m ChatMessage) string {
	out, err := json.Marshal(m)
	if err != nil {
		panic(fmt.Sprintf("protocol: encoding chat message: %v", err))
	}
	return string(out)
}

// NewInboundMessage builds the envelope a server sends when m is posted.
func NewInboundMessage(m ChatMessage) Envelope {
	return NewMessage(EncodeChatMessage(m))
}
