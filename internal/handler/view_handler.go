package handler

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"cafechat/internal/app/view"
	"cafechat/internal/pkg/errs"
	"cafechat/internal/pkg/logx"
	"cafechat/internal/pkg/req"
	"cafechat/internal/pkg/resp"
)

// MaxSubmitLength caps the text accepted by POST /api/messages, in characters.
const MaxSubmitLength = 4096

// SubmitInput is the body of POST /api/messages.
type SubmitInput struct {
	Text string `json:"text"`
}

// MessagesOutput is returned by GET /api/messages.
type MessagesOutput struct {
	// Total is the length of the whole log; clients pass it back as since.
	Total    int            `json:"total"`
	Messages []view.Message `json:"messages"`
}

// HandleGetState returns the complete rendered session.
func HandleGetState(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, view.Build(deps.Session.Snapshot()))
	}
}

// HandleGetRoster returns the current roster profiles.
func HandleGetRoster(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, view.Build(deps.Session.Snapshot()).Roster)
	}
}

// HandleListMessages returns the rendered log, optionally only entries from index since on.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := 0
		if raw := r.URL.Query().Get("since"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			since = n
		}

		snap := deps.Session.Snapshot()
		messages := snap.Messages[min(since, len(snap.Messages)):]

		resp.RespondSuccess(w, r, MessagesOutput{
			Total:    len(snap.Messages),
			Messages: view.RenderMessages(messages, snap.Roster),
		})
	}
}

// HandleSubmitMessage sends the posted text as a chat message.
func HandleSubmitMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SubmitInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if strings.TrimSpace(input.Text) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageEmpty))
			return
		}
		if utf8.RuneCountInString(input.Text) > MaxSubmitLength {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong, MaxSubmitLength))
			return
		}
		if !deps.connected() {
			resp.RespondError(w, r, errs.NewError(errs.ErrSessionClosed))
			return
		}

		if !deps.Session.Submit(input.Text) {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageEmpty))
			return
		}

		logx.Debug("Message submitted from view API", "length", len(input.Text))
		resp.RespondSuccess(w, r, map[string]bool{"submitted": true})
	}
}
