/*
Package fanout delivers frames to interested subscribers.

A Bus owns a single event loop goroutine. Frames are handed to every subscriber in the
order they were published, one frame at a time, and each handler runs to completion
before the next frame is delivered. The client uses one Bus for raw server frames and
another for state-change notifications to local viewers.
*/
package fanout

import (
	"sync"

	"github.com/rs/zerolog"

	"cafechat/internal/pkg/logx"
	"cafechat/internal/pkg/randx"
)

const defaultPublishBuffer = 256

// Handler consumes one published frame.
type Handler func(frame []byte)

type subscription struct {
	id      string
	handler Handler
}

// Bus struct is a single-loop publish/subscribe hub.
type Bus struct {
	// name identifies the bus in logs.
	name string

	// subscribers in registration order.
	subscribers []subscription

	// a buffered channel of frames waiting for delivery.
	publish chan []byte

	// a channel for handlers asking to subscribe.
	register chan subscription

	// a channel for subscription ids asking to leave.
	unregister chan string

	// closed by Stop to end the Run loop.
	stopChan chan struct{}
	stopOnce sync.Once

	// closed when Run returns.
	done chan struct{}

	// structured logger with bus context.
	logger zerolog.Logger
}

// NewBus creates a Bus. buffer bounds how many frames may wait for delivery before
// Publish blocks; values below 1 use a default.
func NewBus(name string, buffer int) *Bus {
	if buffer < 1 {
		buffer = defaultPublishBuffer
	}

	return &Bus{
		name:       name,
		publish:    make(chan []byte, buffer),
		register:   make(chan subscription),
		unregister: make(chan string),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logx.Component("fanout").With().Str("bus", name).Logger(),
	}
}

// Run starts the delivery loop and blocks until Stop is called. Frames still queued at
// that point are discarded.
func (b *Bus) Run() {
	defer func() {
		b.subscribers = nil
		close(b.done)
		b.logger.Debug().Msg("Bus loop finished.")
	}()

	for {
		select {
		case sub := <-b.register:
			b.subscribers = append(b.subscribers, sub)
			b.logger.Debug().
				Str("subscriber_id", sub.id).
				Int("total_subscribers", len(b.subscribers)).
				Msg("Subscriber added.")

		case id := <-b.unregister:
			b.remove(id)

		case frame := <-b.publish:
			for _, sub := range b.subscribers {
				b.deliver(sub, frame)
			}

		case <-b.stopChan:
			return
		}
	}
}

func (b *Bus) remove(id string) {
	for i, sub := range b.subscribers {
		if sub.id == id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			b.logger.Debug().
				Str("subscriber_id", id).
				Int("total_subscribers", len(b.subscribers)).
				Msg("Subscriber removed.")
			return
		}
	}
}

// deliver runs one handler, isolating the loop from a panicking subscriber.
func (b *Bus) deliver(sub subscription, frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("subscriber_id", sub.id).
				Interface("panic", r).
				Msg("Recovered from panic in subscriber.")
		}
	}()

	sub.handler(frame)
}

// Subscribe adds h to the bus and returns a function that removes it. Frames published
// after Subscribe returns are delivered to h. It returns a no-op when the bus is stopped.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	sub := subscription{id: randx.SubscriberID(), handler: h}

	select {
	case b.register <- sub:
	case <-b.stopChan:
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			select {
			case b.unregister <- sub.id:
			case <-b.stopChan:
			}
		})
	}
}

// Publish queues frame for delivery to every subscriber. It blocks while the queue is
// full and returns false if the bus stops first.
func (b *Bus) Publish(frame []byte) bool {
	select {
	case <-b.stopChan:
		return false
	default:
	}

	select {
	case b.publish <- frame:
		return true
	case <-b.stopChan:
		return false
	}
}

// Stop ends the Run loop. It is safe to call more than once.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChan)
	})
}

// Done is closed once the Run loop has returned.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}
