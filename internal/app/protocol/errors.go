package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is wrapped when messageType is not users, register or message.
	ErrUnknownKind = errors.New("unknown message type")

	// ErrMissingField is wrapped when a field required by the kind is absent or null.
	ErrMissingField = errors.New("missing required field")
)

// Stage names the decode pass that rejected a frame.
type Stage string

const (
	// StageEnvelope is the outer pass over the whole frame.
	StageEnvelope Stage = "envelope"

	// StageMessage is the inner pass over a message envelope's data.
	StageMessage Stage = "message"
)

// DecodeError reports a frame that could not be decoded. Callers drop such frames.
type DecodeError struct {
	Stage Stage
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
