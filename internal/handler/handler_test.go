package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cafechat/internal/app/fanout"
	"cafechat/internal/app/protocol"
	"cafechat/internal/app/roster"
	"cafechat/internal/app/session"
	"cafechat/internal/app/view"
	"cafechat/internal/configs"
	"cafechat/internal/pkg/errs"
)

type recordingTransport struct {
	mu     sync.Mutex
	frames [][]byte
}

func (t *recordingTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, frame)
	return nil
}

func (t *recordingTransport) last() protocol.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	env, err := protocol.Decode(t.frames[len(t.frames)-1])
	if err != nil {
		panic(err)
	}
	return env
}

func (t *recordingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

type closedLink struct{ ch chan struct{} }

func (l closedLink) Done() <-chan struct{} { return l.ch }

type fixture struct {
	server     *httptest.Server
	controller *session.Controller
	transport  *recordingTransport
}

func newFixture(t *testing.T, opts ...func(*AppDeps)) *fixture {
	t.Helper()

	transport := &recordingTransport{}
	controller := session.New("carol", transport)

	changes := fanout.NewBus("changes", 16)
	go changes.Run()
	t.Cleanup(changes.Stop)

	controller.OnChange(func() {
		frame, err := view.Frame(controller.Snapshot())
		if err == nil {
			changes.Publish(frame)
		}
	})

	deps := &AppDeps{
		Session: controller,
		Config:  &configs.AppConfig{Environment: configs.DefaultEnvironment},
		Changes: changes,
	}
	for _, opt := range opts {
		opt(deps)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(Router(ctx, deps))
	t.Cleanup(srv.Close)

	return &fixture{server: srv, controller: controller, transport: transport}
}

func (f *fixture) dispatch(t *testing.T, env protocol.Envelope) {
	t.Helper()
	if !f.controller.Dispatch(protocol.Encode(env)) {
		t.Fatalf("Dispatch(%s) rejected", protocol.Encode(env))
	}
}

type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func getJSON[T any](t *testing.T, url string) (int, envelope[T]) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()

	var body envelope[T]
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return res.StatusCode, body
}

func postJSON(t *testing.T, url, contentType, payload string) (int, envelope[json.RawMessage]) {
	t.Helper()
	res, err := http.Post(url, contentType, strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()

	var body envelope[json.RawMessage]
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return res.StatusCode, body
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	status, body := getJSON[map[string]any](t, f.server.URL+"/health")

	if status != http.StatusOK || body.Code != 0 {
		t.Fatalf("status = %d, code = %d", status, body.Code)
	}
	if body.Data["session"] != "registered" || body.Data["connected"] != true {
		t.Fatalf("health = %v", body.Data)
	}
}

func TestGetRoster(t *testing.T) {
	f := newFixture(t)
	f.dispatch(t, protocol.NewUsers([]string{"alice", "bob"}))

	_, body := getJSON[[]roster.UserProfile](t, f.server.URL+"/api/roster")

	want := roster.Synchronize([]string{"alice", "bob"})
	if len(body.Data) != 2 || body.Data[0] != want[0] || body.Data[1] != want[1] {
		t.Fatalf("roster = %+v, want %+v", body.Data, want)
	}
}

func TestGetRosterEmptyIsList(t *testing.T) {
	f := newFixture(t)

	res, err := http.Get(f.server.URL + "/api/roster")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()

	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw.Data) != "[]" {
		t.Fatalf("data = %s, want []", raw.Data)
	}
}

func TestListMessagesRendersProfiles(t *testing.T) {
	f := newFixture(t)
	f.dispatch(t, protocol.NewUsers([]string{"alice"}))
	f.dispatch(t, protocol.NewInboundMessage(protocol.ChatMessage{From: "alice", Text: "hi"}))
	f.dispatch(t, protocol.NewInboundMessage(protocol.ChatMessage{From: "ghost", Text: "boo.gif"}))

	_, body := getJSON[MessagesOutput](t, f.server.URL+"/api/messages")

	if body.Data.Total != 2 || len(body.Data.Messages) != 2 {
		t.Fatalf("messages = %+v", body.Data)
	}
	if got := body.Data.Messages[0]; got.Color != roster.Palette[0] || got.IsImage {
		t.Fatalf("alice = %+v", got)
	}
	if got := body.Data.Messages[1]; got.Color != roster.DefaultColor || !got.IsImage || got.Text != "boo.gif" {
		t.Fatalf("ghost = %+v", got)
	}
}

func TestListMessagesSince(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"one", "two", "three"} {
		f.dispatch(t, protocol.NewInboundMessage(protocol.ChatMessage{From: "alice", Text: text}))
	}

	tests := []struct {
		query     string
		wantTexts []string
		wantCode  int
	}{
		{query: "?since=1", wantTexts: []string{"two", "three"}},
		{query: "?since=3", wantTexts: []string{}},
		{query: "?since=99", wantTexts: []string{}},
		{query: "?since=-1", wantCode: errs.ErrInvalidParams},
		{query: "?since=x", wantCode: errs.ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, body := getJSON[MessagesOutput](t, f.server.URL+"/api/messages"+tt.query)

			if tt.wantCode != 0 {
				if status != http.StatusBadRequest || body.Code != tt.wantCode {
					t.Fatalf("status = %d, code = %d, want 400/%d", status, body.Code, tt.wantCode)
				}
				return
			}

			if body.Data.Total != 3 {
				t.Fatalf("total = %d, want 3", body.Data.Total)
			}
			if len(body.Data.Messages) != len(tt.wantTexts) {
				t.Fatalf("messages = %+v, want %v", body.Data.Messages, tt.wantTexts)
			}
			for i, want := range tt.wantTexts {
				if body.Data.Messages[i].Text != want {
					t.Fatalf("message %d = %q, want %q", i, body.Data.Messages[i].Text, want)
				}
			}
		})
	}
}

func TestSubmitMessage(t *testing.T) {
	f := newFixture(t)

	status, body := postJSON(t, f.server.URL+"/api/messages", "application/json", `{"text":"  hello  "}`)

	if status != http.StatusOK || body.Code != 0 {
		t.Fatalf("status = %d, body = %+v", status, body)
	}
	env := f.transport.last()
	if env.Kind != protocol.KindMessage || env.Payload() != "hello" {
		t.Fatalf("sent = %+v, want message hello", env)
	}
}

func TestSubmitMessageRejects(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		payload     string
		wantStatus  int
		wantCode    int
	}{
		{name: "blank", contentType: "application/json", payload: `{"text":"   "}`, wantStatus: http.StatusBadRequest, wantCode: errs.ErrMessageEmpty},
		{name: "wrong type", contentType: "text/plain", payload: `{"text":"hi"}`, wantStatus: http.StatusUnsupportedMediaType, wantCode: errs.ErrUnsupportedMediaType},
		{name: "unknown field", contentType: "application/json", payload: `{"text":"hi","from":"x"}`, wantStatus: http.StatusBadRequest, wantCode: errs.ErrInvalidJSONFormat},
		{name: "too long", contentType: "application/json", payload: `{"text":"` + strings.Repeat("a", MaxSubmitLength+1) + `"}`, wantStatus: http.StatusBadRequest, wantCode: errs.ErrMessageContentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.transport.count()

			status, body := postJSON(t, f.server.URL+"/api/messages", tt.contentType, tt.payload)

			if status != tt.wantStatus || body.Code != tt.wantCode {
				t.Fatalf("status = %d, code = %d, want %d/%d", status, body.Code, tt.wantStatus, tt.wantCode)
			}
			if f.transport.count() != before {
				t.Fatal("rejected submit reached the transport")
			}
		})
	}
}

func TestSubmitMessageAfterDisconnect(t *testing.T) {
	ch := make(chan struct{})
	close(ch)
	f := newFixture(t, func(d *AppDeps) { d.Link = closedLink{ch: ch} })

	status, body := postJSON(t, f.server.URL+"/api/messages", "application/json", `{"text":"hi"}`)

	if status != http.StatusServiceUnavailable || body.Code != errs.ErrSessionClosed {
		t.Fatalf("status = %d, code = %d", status, body.Code)
	}
}

func readState(t *testing.T, ws *websocket.Conn) view.State {
	t.Helper()
	if err := ws.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	_, frame, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var state view.State
	if err := json.Unmarshal(frame, &state); err != nil {
		t.Fatalf("decode state %s: %v", frame, err)
	}
	return state
}

func TestStateStreamPushesChanges(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/state"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	initial := readState(t, ws)
	if initial.Username != "carol" || len(initial.Messages) != 0 {
		t.Fatalf("initial = %+v", initial)
	}

	f.dispatch(t, protocol.NewInboundMessage(protocol.ChatMessage{From: "alice", Text: "hi"}))

	// a change published before the subscription settled may repeat the initial state
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := readState(t, ws)
		if len(state.Messages) == 1 {
			if state.Status != "active" || state.Messages[0].Text != "hi" {
				t.Fatalf("state = %+v", state)
			}
			return
		}
	}
	t.Fatal("no state with the new message")
}
