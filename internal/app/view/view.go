/*
Package view turns session snapshots into what renderers draw.

Each message is paired with its sender's profile from the current roster, or the
placeholder profile when the sender is no longer present. Message text is never altered;
a sanitized HTML copy is added for browser renderers and messages ending in ".gif" are
flagged as image references.
*/
package view

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"cafechat/internal/app/chatlog"
	"cafechat/internal/app/protocol"
	"cafechat/internal/app/roster"
	"cafechat/internal/app/session"
)

// ImageSuffix marks message text that renderers show as an image.
const ImageSuffix = ".gif"

// textPolicy strips all markup from user text before it is embedded in HTML.
var textPolicy = bluemonday.StrictPolicy()

// Message is a log entry ready for display.
type Message struct {
	From      string `json:"from"`
	Text      string `json:"text"`
	SafeHTML  string `json:"safeHtml"`
	IsImage   bool   `json:"isImage"`
	AvatarURL string `json:"avatarUrl"`
	Color     string `json:"color"`
	InRoster  bool   `json:"inRoster"`
}

// State is the complete renderable view of a session.
type State struct {
	Username string               `json:"username"`
	Status   string               `json:"status"`
	Roster   []roster.UserProfile `json:"roster"`
	Messages []Message            `json:"messages"`
}

// IsImageReference reports whether text should be displayed as an image.
func IsImageReference(text string) bool {
	return strings.HasSuffix(text, ImageSuffix)
}

// RenderMessage pairs m with its sender's profile from profiles.
func RenderMessage(m protocol.ChatMessage, profiles []roster.UserProfile) Message {
	_, inRoster := roster.Lookup(profiles, m.From)
	profile := chatlog.ProfileFor(m.From, profiles)

	return Message{
		From:      m.From,
		Text:      m.Text,
		SafeHTML:  textPolicy.Sanitize(m.Text),
		IsImage:   IsImageReference(m.Text),
		AvatarURL: profile.AvatarURL,
		Color:     profile.Color,
		InRoster:  inRoster,
	}
}

// RenderMessages renders every message against the same roster.
func RenderMessages(messages []protocol.ChatMessage, profiles []roster.UserProfile) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, RenderMessage(m, profiles))
	}
	return out
}

// Build renders a full session snapshot.
func Build(snap session.Snapshot) State {
	profiles := snap.Roster
	if profiles == nil {
		profiles = []roster.UserProfile{}
	}

	return State{
		Username: snap.Username,
		Status:   snap.State.String(),
		Roster:   profiles,
		Messages: RenderMessages(snap.Messages, profiles),
	}
}

// Frame encodes the rendered snapshot as the JSON document pushed to browser viewers.
func Frame(snap session.Snapshot) ([]byte, error) {
	frame, err := json.Marshal(Build(snap))
	if err != nil {
		return nil, fmt.Errorf("encode view state: %w", err)
	}
	return frame, nil
}

// FormatLine renders m as a single transcript line for terminals.
func FormatLine(m Message) string {
	if m.IsImage {
		return fmt.Sprintf("[%s] (image) %s", m.From, m.Text)
	}
	return fmt.Sprintf("[%s] %s", m.From, m.Text)
}

// FormatRoster renders the roster as a single status line for terminals.
func FormatRoster(profiles []roster.UserProfile) string {
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return fmt.Sprintf("* online (%d): %s", len(names), strings.Join(names, ", "))
}
