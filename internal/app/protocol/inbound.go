package protocol

import "fmt"

// Inbound is a fully decoded server frame. It is a closed set: RosterUpdate,
// ChatPosted and RegisterEcho are the only implementations.
type Inbound interface {
	inbound()
}

// RosterUpdate replaces the whole roster with Names, in server order.
type RosterUpdate struct {
	Names []string
}

// ChatPosted carries one message to append to the log.
type ChatPosted struct {
	Message ChatMessage
}

// RegisterEcho is a register envelope received from the server. Register is an
// outbound-only kind, so receivers treat it as a no-op.
type RegisterEcho struct {
	Name string
}

func (RosterUpdate) inbound() {}
func (ChatPosted) inbound()   {}
func (RegisterEcho) inbound() {}

// DecodeInbound runs both decode passes on a raw server frame. For message envelopes a
// failing inner payload fails the whole frame even though the envelope was well-formed.
func DecodeInbound(raw []byte) (Inbound, error) {
	env, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	switch env.Kind {
	case KindUsers:
		return RosterUpdate{Names: env.Names}, nil

	case KindMessage:
		msg, err := DecodeChatMessage(env.Payload())
		if err != nil {
			return nil, err
		}
		return ChatPosted{Message: msg}, nil

	case KindRegister:
		return RegisterEcho{Name: env.Payload()}, nil
	}

	return nil, &DecodeError{Stage: StageEnvelope, Err: fmt.Errorf("%w: %q", ErrUnknownKind, string(env.Kind))}
}
