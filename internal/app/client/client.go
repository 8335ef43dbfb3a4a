/*
Package client wires a chat session together: the server connection, the inbound bus that
serializes frame processing, the session controller, and the optional local view API.
*/
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"cafechat/internal/app/fanout"
	"cafechat/internal/app/session"
	"cafechat/internal/app/transport"
	"cafechat/internal/app/view"
	"cafechat/internal/configs"
	"cafechat/internal/handler"
	"cafechat/internal/pkg/logx"
)

const (
	inboundBuffer   = 256
	changesBuffer   = 64
	shutdownTimeout = 5 * time.Second
)

// Client is one connected chat session.
type Client struct {
	cfg *configs.AppConfig

	conn       *transport.Conn
	controller *session.Controller

	// inbound delivers server frames to the controller one at a time, in arrival order.
	inbound *fanout.Bus

	// changes carries an encoded view state after every session change.
	changes *fanout.Bus

	logger zerolog.Logger
}

// Dial connects to cfg.ServerURL and registers as cfg.Username. Observers are attached
// before the register envelope is sent. Frames are not processed until Run is called.
func Dial(ctx context.Context, cfg *configs.AppConfig, observers ...func()) (*Client, error) {
	conn, err := transport.Dial(ctx, cfg.ServerURL, transport.Options{SendQueueSize: cfg.SendQueueSize})
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		conn:    conn,
		inbound: fanout.NewBus("inbound", inboundBuffer),
		changes: fanout.NewBus("changes", changesBuffer),
		logger:  logx.Component("client").With().Str("connection_id", conn.ID).Logger(),
	}

	opts := []session.Option{session.WithObserver(c.publishState)}
	for _, fn := range observers {
		opts = append(opts, session.WithObserver(fn))
	}
	c.controller = session.New(cfg.Username, conn, opts...)

	c.logger.Info().Str("server_url", cfg.ServerURL).Str("username", cfg.Username).Msg("Connected to chat server.")

	return c, nil
}

// Session returns the session controller.
func (c *Client) Session() *session.Controller {
	return c.controller
}

// Run processes inbound frames and serves the view API, if enabled, until the connection
// ends or ctx is cancelled. It returns nil when the connection closed normally.
func (c *Client) Run(ctx context.Context) error {
	go c.inbound.Run()
	go c.changes.Run()
	defer func() {
		c.inbound.Stop()
		c.changes.Stop()
	}()

	c.inbound.Subscribe(func(frame []byte) {
		c.controller.Dispatch(frame)
	})

	if c.cfg.ViewEnabled() {
		srv, err := c.serveView(ctx)
		if err != nil {
			c.conn.Close()
			return err
		}
		defer c.shutdownView(srv)
	}

	err := c.conn.Run(ctx, func(frame []byte) {
		c.inbound.Publish(frame)
	})

	c.logger.Info().
		Uint64("dropped_frames", c.controller.Dropped()).
		Msg("Connection to chat server ended.")

	if err != nil {
		return fmt.Errorf("chat connection: %w", err)
	}
	return nil
}

// Submit sends text as a chat message from this client.
func (c *Client) Submit(text string) bool {
	return c.controller.Submit(text)
}

// Close ends the connection; Run returns shortly after.
func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) publishState() {
	frame, err := view.Frame(c.controller.Snapshot())
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode view state.")
		return
	}
	c.changes.Publish(frame)
}

func (c *Client) serveView(ctx context.Context) (*http.Server, error) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(c.cfg.ViewPort))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler: handler.Router(ctx, &handler.AppDeps{
			Session: c.controller,
			Config:  c.cfg,
			Changes: c.changes,
			Link:    c.conn,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		c.logger.Info().Str("addr", addr).Msg("View API listening.")
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error().Err(err).Msg("View API stopped.")
		}
	}()

	return srv, nil
}

func (c *Client) shutdownView(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("View API shutdown incomplete.")
	}
}
