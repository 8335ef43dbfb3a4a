package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"cafechat/internal/app/view"
	"cafechat/internal/pkg/logx"
	"cafechat/internal/pkg/randx"
)

const (
	viewerWriteWait  = 10 * time.Second
	viewerPongWait   = 60 * time.Second
	viewerPingPeriod = (viewerPongWait * 9) / 10

	// viewers only send control frames
	viewerReadLimit = 512
)

// viewer is one browser following /ws/state.
type viewer struct {
	id   string
	conn *websocket.Conn

	// latest holds at most one pending state frame; a newer frame replaces it.
	latest chan []byte

	// closed once the read side has ended.
	done chan struct{}

	logger zerolog.Logger
}

func newViewer(conn *websocket.Conn) *viewer {
	id := randx.ViewerID()
	return &viewer{
		id:     id,
		conn:   conn,
		latest: make(chan []byte, 1),
		done:   make(chan struct{}),
		logger: logx.Component("view_stream").With().Str("viewer_id", id).Logger(),
	}
}

// offer queues frame, replacing any frame the viewer has not written yet. Every frame is
// a complete state, so only the newest one matters. It never blocks the change bus.
func (v *viewer) offer(frame []byte) {
	select {
	case v.latest <- frame:
		return
	default:
	}

	select {
	case <-v.latest:
	default:
	}

	select {
	case v.latest <- frame:
	default:
	}
}

func (v *viewer) write(frame []byte) error {
	if err := v.conn.SetWriteDeadline(time.Now().Add(viewerWriteWait)); err != nil {
		return err
	}
	return v.conn.WriteMessage(websocket.TextMessage, frame)
}

// writePump sends initial, then every offered frame and periodic pings, until the read
// side ends or a write fails.
func (v *viewer) writePump(initial []byte) {
	ticker := time.NewTicker(viewerPingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	if err := v.write(initial); err != nil {
		v.logger.Debug().Err(err).Msg("Failed to write initial state")
		return
	}

	for {
		select {
		case frame := <-v.latest:
			if err := v.write(frame); err != nil {
				v.logger.Debug().Err(err).Msg("Failed to write state")
				return
			}

		case <-ticker.C:
			if err := v.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(viewerWriteWait)); err != nil {
				v.logger.Debug().Err(err).Msg("Failed to write ping")
				return
			}

		case <-v.done:
			return
		}
	}
}

// readPump discards inbound frames and keeps the read deadline fresh until the viewer goes away.
func (v *viewer) readPump() {
	defer close(v.done)

	v.conn.SetReadLimit(viewerReadLimit)
	_ = v.conn.SetReadDeadline(time.Now().Add(viewerPongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(viewerPongWait))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				v.logger.Warn().Err(err).Msg("Viewer read error")
			}
			return
		}
	}
}

// HandleStateStream upgrades to a WebSocket that receives the rendered session state on
// connect and again after every change.
func HandleStateStream(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade state stream", "error", err.Error())
			return
		}

		v := newViewer(conn)

		// subscribe before taking the initial snapshot so no change is missed
		unsubscribe := deps.Changes.Subscribe(v.offer)
		defer unsubscribe()

		initial, err := view.Frame(deps.Session.Snapshot())
		if err != nil {
			v.logger.Error().Err(err).Msg("Failed to encode initial state")
			conn.Close()
			return
		}

		v.logger.Info().Msg("Viewer connected")

		go v.writePump(initial)
		v.readPump()

		v.logger.Info().Msg("Viewer disconnected")
	}
}
