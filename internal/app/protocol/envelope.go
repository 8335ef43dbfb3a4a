/*
Package protocol implements the wire codec spoken between the chat client and the chat server.

Every frame is a single JSON envelope carrying a message type and, depending on that type,
either a list of names (the roster) or a string payload (a username or a serialized chat
message). This file defines the Envelope, its kinds, and the outer encode/decode pass.
*/
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies which of the three envelope variants a frame carries.
type Kind string

const (
	// KindUsers carries the full list of currently connected usernames.
	KindUsers Kind = "users"

	// KindRegister announces the local user's display name to the server.
	KindRegister Kind = "register"

	// KindMessage carries a chat message. Inbound it holds a serialized ChatMessage,
	// outbound it holds the raw text typed by the local user.
	KindMessage Kind = "message"
)

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUsers, KindRegister, KindMessage:
		return true
	}
	return false
}

// Envelope is the top-level wire unit. Only one of Names and Data is meaningful for a
// given Kind; the other is nil and serializes as JSON null.
type Envelope struct {
	// Kind selects the variant.
	Kind Kind `json:"messageType"`

	// Names is the ordered roster, present only for KindUsers.
	Names []string `json:"dataArray"`

	// Data is the string payload for KindRegister and KindMessage.
	Data *string `json:"data"`
}

// Wire field names. Keys are matched exactly; encoding/json would also accept other cases.
const (
	fieldMessageType = "messageType"
	fieldDataArray   = "dataArray"
	fieldData        = "data"
)

// NewUsers builds a roster envelope. A nil slice is sent as an empty list.
func NewUsers(names []string) Envelope {
	list := make([]string, len(names))
	copy(list, names)

	return Envelope{Kind: KindUsers, Names: list}
}

// NewRegister builds the envelope announcing username to the server.
func NewRegister(username string) Envelope {
	return Envelope{Kind: KindRegister, Data: &username}
}

// NewMessage builds an outbound chat envelope. The sender is attached by the server,
// so only the text travels.
func NewMessage(text string) Envelope {
	return Envelope{Kind: KindMessage, Data: &text}
}

// Payload returns the string payload, or "" when the envelope has none.
func (e Envelope) Payload() string {
	if e.Data == nil {
		return ""
	}
	return *e.Data
}

// Encode serializes the envelope. It cannot fail: the envelope holds only strings.
func Encode(e Envelope) []byte {
	out, err := json.Marshal(e)
	if err != nil {
		panic(fmt.Sprintf("protocol: encoding envelope of kind %q: %v", e.Kind, err))
	}
	return out
}

// Decode parses raw into an Envelope, performing only the outer pass. It returns a
// *DecodeError when raw is not a JSON object, when messageType is unknown, or when the
// field required by the kind is absent or of the wrong type. The field a kind does not
// use is discarded.
func Decode(raw []byte) (Envelope, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Envelope{}, &DecodeError{Stage: StageEnvelope, Err: err}
	}

	rawKind, ok := field(obj, fieldMessageType)
	if !ok {
		return Envelope{}, &DecodeError{Stage: StageEnvelope, Err: fmt.Errorf("%w: %s", ErrMissingField, fieldMessageType)}
	}

	var kind Kind
	if err := json.Unmarshal(rawKind, &kind); err != nil {
		return Envelope{}, &DecodeError{Stage: StageEnvelope, Err: err}
	}
	if !kind.Valid() {
		return Envelope{}, &DecodeError{Stage: StageEnvelope, Err: fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))}
	}

	env := Envelope{Kind: kind}

	switch kind {
	case KindUsers:
		rawNames, ok := field(obj, fieldDataArray)
		if !ok {
			return Envelope{}, &DecodeError{Stage: StageEnvelope, Err: fmt.Errorf("%w: %s", ErrMissingField, fieldDataArray)}
		}
		names := []string{}
		if err := json.Unmarshal(rawNames, &names); err != nil {
			return Envelope{}, &DecodeError{Stage: StageEnvelope, Err: err}
		}
		env.Names = names

	case KindRegister, KindMessage:
		rawData, ok := field(obj, fieldData)
		if !ok {
			return Envelope{}, &DecodeError{Stage: StageEnvelope, Err: fmt.Errorf("%w: %s", ErrMissingField, fieldData)}
		}
		var data string
		if err := json.Unmarshal(rawData, &data); err != nil {
			return Envelope{}, &DecodeError{Stage: StageEnvelope, Err: err}
		}
		env.Data = &data
	}

	return env, nil
}

// field returns the value stored under exactly name, or false when it is absent or null.
func field(obj map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	raw, ok := obj[name]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
