/*
Package handler serves the client's local view API.

Browser renderers read the roster and the rendered message log over HTTP, submit messages
with POST /api/messages, and follow state changes on the /ws/state WebSocket. The API only
reflects the session; it never talks to the chat server itself.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"cafechat/internal/pkg/limiter"
	"cafechat/internal/pkg/logx"
	"cafechat/internal/pkg/resp"
)

const (
	SubmitRate   = 5
	SubmitBurst  = 10
	StreamRate   = 0.5
	StreamBurst  = 5
	serviceLabel = "cafechat view"
)

// Router builds the view API. ctx bounds the rate limiters' background sweeps.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	submitLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(SubmitRate), SubmitBurst)
	streamLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(StreamRate), StreamBurst)

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || deps.Config.IsDevelopment() {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("State stream rejected: origin not allowed", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	r := chi.NewRouter()

	r.Use(cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}).Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth(deps))

	r.Route("/api", func(api chi.Router) {
		api.Get("/state", HandleGetState(deps))
		api.Get("/roster", HandleGetRoster(deps))
		api.Get("/messages", HandleListMessages(deps))
		api.With(submitLimiter.Middleware).Post("/messages", HandleSubmitMessage(deps))
	})

	r.With(streamLimiter.Middleware).Get("/ws/state", HandleStateStream(deps, upgrader))

	return r
}

// HandleHealth reports liveness and whether the chat connection is still up.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Session.Snapshot()
		resp.RespondSuccess(w, r, map[string]any{
			"status":    "ok",
			"service":   serviceLabel,
			"session":   snap.State.String(),
			"connected": deps.connected(),
		})
	}
}
