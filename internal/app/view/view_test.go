package view

import (
	"encoding/json"
	"strings"
	"testing"

	"cafechat/internal/app/protocol"
	"cafechat/internal/app/roster"
	"cafechat/internal/app/session"
)

func TestRenderMessageUsesRosterProfile(t *testing.T) {
	profiles := roster.Synchronize([]string{"alice", "bob"})

	got := RenderMessage(protocol.ChatMessage{From: "bob", Text: "hi"}, profiles)

	if got.Color != profiles[1].Color || got.AvatarURL != profiles[1].AvatarURL || !got.InRoster {
		t.Fatalf("rendered = %+v, want bob's profile", got)
	}
	if got.IsImage {
		t.Fatal("plain text flagged as image")
	}
}

func TestRenderMessageOrphanedSenderGetsDefault(t *testing.T) {
	profiles := roster.Synchronize([]string{"bob"})

	got := RenderMessage(protocol.ChatMessage{From: "alice", Text: "still here?"}, profiles)

	if got.Color != roster.DefaultColor {
		t.Fatalf("color = %s, want %s", got.Color, roster.DefaultColor)
	}
	if got.AvatarURL != roster.Default.AvatarURL {
		t.Fatalf("avatar = %s, want %s", got.AvatarURL, roster.Default.AvatarURL)
	}
	if got.InRoster {
		t.Fatal("orphaned sender reported in roster")
	}
}

func TestRenderMessageGifIsImageAndUnaltered(t *testing.T) {
	text := "https://media.example/party.gif"

	got := RenderMessage(protocol.ChatMessage{From: "alice", Text: text}, nil)

	if !got.IsImage {
		t.Fatal("gif not flagged as image")
	}
	if got.Text != text {
		t.Fatalf("text = %q, want %q", got.Text, text)
	}
}

func TestIsImageReference(t *testing.T) {
	tests := map[string]bool{
		"cat.gif":         true,
		".gif":            true,
		"cat.GIF":         false,
		"cat.gif ":        false,
		"gif":             false,
		"cat.gifv":        false,
		"look at cat.png": false,
	}
	for text, want := range tests {
		if got := IsImageReference(text); got != want {
			t.Fatalf("IsImageReference(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestSafeHTMLStripsMarkupButKeepsText(t *testing.T) {
	got := RenderMessage(protocol.ChatMessage{From: "mallory", Text: `<script>alert(1)</script>hello <b>world</b>`}, nil)

	if strings.Contains(got.SafeHTML, "<") {
		t.Fatalf("safe html = %q still has markup", got.SafeHTML)
	}
	if !strings.Contains(got.SafeHTML, "hello") || !strings.Contains(got.SafeHTML, "world") {
		t.Fatalf("safe html = %q lost text", got.SafeHTML)
	}
	if got.Text != `<script>alert(1)</script>hello <b>world</b>` {
		t.Fatalf("raw text altered: %q", got.Text)
	}
}

func TestBuild(t *testing.T) {
	snap := session.Snapshot{
		Username: "carol",
		State:    session.StateActive,
		Roster:   roster.Synchronize([]string{"alice"}),
		Messages: []protocol.ChatMessage{
			{From: "alice", Text: "hi"},
			{From: "ghost", Text: "boo.gif"},
		},
	}

	got := Build(snap)

	if got.Username != "carol" || got.Status != "active" {
		t.Fatalf("header = %q/%q", got.Username, got.Status)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Color != roster.Palette[0] {
		t.Fatalf("alice color = %s", got.Messages[0].Color)
	}
	if got.Messages[1].Color != roster.DefaultColor || !got.Messages[1].IsImage {
		t.Fatalf("ghost = %+v", got.Messages[1])
	}
}

func TestBuildEmptySnapshotHasNonNilLists(t *testing.T) {
	got := Build(session.Snapshot{})
	if got.Roster == nil || got.Messages == nil {
		t.Fatalf("state = %+v, want empty non-nil lists", got)
	}
}

func TestFormatLine(t *testing.T) {
	if got := FormatLine(Message{From: "alice", Text: "hi"}); got != "[alice] hi" {
		t.Fatalf("FormatLine = %q", got)
	}
	if got := FormatLine(Message{From: "alice", Text: "x.gif", IsImage: true}); got != "[alice] (image) x.gif" {
		t.Fatalf("FormatLine = %q", got)
	}
}

func TestFormatRoster(t *testing.T) {
	got := FormatRoster(roster.Synchronize([]string{"alice", "bob"}))
	if got != "* online (2): alice, bob" {
		t.Fatalf("FormatRoster = %q", got)
	}
}

func TestFrame(t *testing.T) {
	frame, err := Frame(session.Snapshot{
		Username: "carol",
		State:    session.StateRegistered,
		Messages: []protocol.ChatMessage{{From: "alice", Text: "hi"}},
	})
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}

	var got State
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("decode frame %s: %v", frame, err)
	}
	if got.Status != "registered" || len(got.Messages) != 1 || got.Messages[0].Color != roster.DefaultColor {
		t.Fatalf("frame state = %+v", got)
	}
}
