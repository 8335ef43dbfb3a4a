/*
Package transport owns the client's WebSocket connection to the chat server.

A Conn exposes a best-effort Send that only enqueues, a ReadPump that hands every text
frame to a callback in arrival order, and a WritePump that drains the send queue and keeps
the connection alive with pings.
*/
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"cafechat/internal/pkg/logx"
	"cafechat/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for any frame, including a Pong, from the server.
	pongWait = 60 * time.Second

	// frequency at which the client sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the server.
	maxMessageSize = 64 * 1024

	// DefaultSendQueueSize bounds the number of outbound frames waiting to be written.
	DefaultSendQueueSize = 256

	// DefaultHandshakeTimeout bounds the opening handshake.
	DefaultHandshakeTimeout = 10 * time.Second
)

var (
	// ErrSendQueueFull is returned by Send when the outbound queue has no room.
	ErrSendQueueFull = errors.New("transport: send queue full")

	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("transport: connection closed")
)

// Options tunes Dial.
type Options struct {
	// SendQueueSize is the outbound buffer length; DefaultSendQueueSize when zero.
	SendQueueSize int

	// HandshakeTimeout bounds the opening handshake; DefaultHandshakeTimeout when zero.
	HandshakeTimeout time.Duration

	// Header is sent with the opening handshake.
	Header http.Header
}

// Conn struct represents an open connection to the chat server.
type Conn struct {
	// ID identifies the connection in logs.
	ID string

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// closed by Close; both pumps stop when it is closed.
	closed    chan struct{}
	closeOnce sync.Once

	// structured logger with connection context.
	logger zerolog.Logger
}

// Dial opens a connection to the server at url.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	handshakeTimeout := opts.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}

	wsConn, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return NewConn(wsConn, opts.SendQueueSize), nil
}

// NewConn wraps an established WebSocket connection.
func NewConn(wsConn *websocket.Conn, sendQueueSize int) *Conn {
	if sendQueueSize <= 0 {
		sendQueueSize = DefaultSendQueueSize
	}

	id := randx.ConnectionID()

	return &Conn{
		ID:     id,
		conn:   wsConn,
		send:   make(chan []byte, sendQueueSize),
		closed: make(chan struct{}),
		logger: logx.Component("transport").With().Str("connection_id", id).Logger(),
	}
}

// Send enqueues frame for writing and returns immediately. It never blocks: a full
// queue or a closed connection is reported as an error and the frame is discarded.
func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame")
		return ErrSendQueueFull
	}
}

// ReadPump reads frames until the connection ends, passing each text frame to deliver in
// arrival order. It returns nil when the connection was closed locally or normally.
func (c *Conn) ReadPump(deliver func(frame []byte)) error {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if c.isClosed() || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed")
				return nil
			}
			c.logger.Warn().Err(err).Msg("Error reading frame")
			return err
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		if messageType != websocket.TextMessage {
			c.logger.Debug().Int("message_type", messageType).Msg("Ignoring non-text frame")
			continue
		}

		deliver(frame)
	}
}

// WritePump writes queued frames and periodic pings until Close is called or a write fails.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.writeQueuedFrame(frame) {
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Error writing ping")
				return
			}

		case <-c.closed:
			return
		}
	}
}

func (c *Conn) writeQueuedFrame(frame []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		if !c.isClosed() {
			c.logger.Error().Err(err).Msg("Error writing frame")
		}
		return false
	}

	return true
}

// Run starts WritePump in the background and ReadPump in the caller's goroutine. It
// returns when the connection ends; cancelling ctx closes the connection.
func (c *Conn) Run(ctx context.Context, deliver func(frame []byte)) error {
	go c.WritePump()

	stop := context.AfterFunc(ctx, c.Close)
	defer stop()

	return c.ReadPump(deliver)
}

// Close sends a normal closure frame and closes the connection. Frames still queued are
// discarded. It is safe to call more than once and from any goroutine.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)

		closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing")
		if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("Failed to send close frame")
		}

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error")
		}
	})
}

// Done is closed once Close has been called.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
