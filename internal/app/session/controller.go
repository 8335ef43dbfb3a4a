/*
Package session contains the client-side chat session state machine.

A Controller registers the local user with the server, applies every inbound frame to the
roster and the message log, and turns local input into outbound message envelopes. It is
the single owner of that state; renderers only read it through snapshots.
*/
package session

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"cafechat/internal/app/chatlog"
	"cafechat/internal/app/protocol"
	"cafechat/internal/app/roster"
	"cafechat/internal/pkg/logx"
)

// Transport is the outbound half of the server connection. Send is a best-effort enqueue:
// the controller logs a failure but never retries or reports it.
type Transport interface {
	Send(frame []byte) error
}

// Controller struct holds one chat session.
type Controller struct {
	// name is the local user's display name, sent once at registration.
	name string

	// transport receives every outbound frame.
	transport Transport

	// dispatchMu makes each Dispatch, including its change notification, run to completion
	// before the next frame is handled.
	dispatchMu sync.Mutex

	// mu protects state, profiles and log.
	mu sync.RWMutex

	state    State
	profiles []roster.UserProfile
	log      *chatlog.Log

	// observers are called after every Dispatch that changed state.
	observers   []func()
	observersMu sync.RWMutex

	// dropped counts inbound frames that failed to decode.
	dropped atomic.Uint64

	// structured logger with session context.
	logger zerolog.Logger
}

// Option customizes a Controller at construction.
type Option func(*Controller)

// WithLogger replaces the default component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithObserver registers fn before the session starts, so no change can be missed.
func WithObserver(fn func()) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// New creates a session for the user called name and immediately sends the register
// envelope through transport, moving the session from Connecting to Registered.
func New(name string, transport Transport, opts ...Option) *Controller {
	c := &Controller{
		name:      name,
		transport: transport,
		state:     StateConnecting,
		profiles:  []roster.UserProfile{},
		log:       chatlog.New(),
		logger:    logx.Component("session").With().Str("username", name).Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.send(protocol.NewRegister(name))

	c.mu.Lock()
	c.state = StateRegistered
	c.mu.Unlock()

	c.logger.Info().Msg("Register envelope sent.")

	return c
}

// OnChange registers fn to be called after each Dispatch that changed the roster or log.
func (c *Controller) OnChange(fn func()) {
	c.observersMu.Lock()
	defer c.observersMu.Unlock()

	c.observers = append(c.observers, fn)
}

// Dispatch applies one raw inbound frame and reports whether session state changed.
// Frames that fail to decode are dropped without touching state; register frames are
// accepted and ignored.
func (c *Controller) Dispatch(raw []byte) bool {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	in, err := protocol.DecodeInbound(raw)
	if err != nil {
		total := c.dropped.Add(1)
		c.logger.Warn().
			Err(err).
			Bytes("frame", raw).
			Uint64("dropped_total", total).
			Msg("Dropping undecodable frame.")
		return false
	}

	c.mu.Lock()
	if c.state == StateRegistered {
		c.state = StateActive
		c.logger.Debug().Msg("Session active.")
	}
	changed := c.apply(in)
	c.mu.Unlock()

	if changed {
		c.notify()
	}

	return changed
}

// apply mutates state for a decoded frame. Callers hold c.mu.
func (c *Controller) apply(in protocol.Inbound) bool {
	switch in := in.(type) {
	case protocol.RosterUpdate:
		c.profiles = roster.Synchronize(in.Names)
		c.logger.Debug().Int("roster_size", len(c.profiles)).Msg("Roster replaced.")
		return true

	case protocol.ChatPosted:
		c.log.Append(in.Message)
		c.logger.Debug().Str("from", in.Message.From).Int("log_len", c.log.Len()).Msg("Message appended.")
		return true

	case protocol.RegisterEcho:
		// register is outbound-only
		c.logger.Debug().Str("name", in.Name).Msg("Ignoring inbound register frame.")
		return false

	default:
		c.logger.Error().Str("inbound_type", typeName(in)).Msg("Unhandled inbound frame variant.")
		return false
	}
}

// Submit sends text typed by the local user. Surrounding whitespace is trimmed and blank
// input is ignored. It returns true when a message was handed to the transport, which is
// the signal for the input surface to clear.
func (c *Controller) Submit(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	c.send(protocol.NewMessage(trimmed))
	return true
}

func (c *Controller) send(env protocol.Envelope) {
	if err := c.transport.Send(protocol.Encode(env)); err != nil {
		c.logger.Warn().
			Err(err).
			Str("message_type", string(env.Kind)).
			Msg("Outbound frame not sent.")
	}
}

func (c *Controller) notify() {
	c.observersMu.RLock()
	observers := make([]func(), len(c.observers))
	copy(observers, c.observers)
	c.observersMu.RUnlock()

	for _, fn := range observers {
		fn()
	}
}

// Name returns the local user's display name.
func (c *Controller) Name() string {
	return c.name
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Roster returns a copy of the current roster, in server order.
func (c *Controller) Roster() []roster.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]roster.UserProfile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Messages returns a copy of the message log, in arrival order.
func (c *Controller) Messages() []protocol.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.log.All()
}

// Snapshot returns roster and log captured under a single lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	profiles := make([]roster.UserProfile, len(c.profiles))
	copy(profiles, c.profiles)

	return Snapshot{
		Username: c.name,
		State:    c.state,
		Roster:   profiles,
		Messages: c.log.All(),
	}
}

// Dropped returns how many inbound frames were discarded as undecodable.
func (c *Controller) Dropped() uint64 {
	return c.dropped.Load()
}
