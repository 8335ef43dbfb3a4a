package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"cafechat/internal/app/roster"
	"cafechat/internal/app/session"
	"cafechat/internal/app/view"
)

// Snapshotter is satisfied by *session.Controller.
type Snapshotter interface {
	Snapshot() session.Snapshot
}

// Submitter is satisfied by *session.Controller and *Client.
type Submitter interface {
	Submit(text string) bool
}

// Terminal prints roster changes and new messages as plain text lines.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	source  Snapshotter
	printed int
	roster  []roster.UserProfile
}

// NewTerminal creates a Terminal writing to out. It prints nothing until Bind is called.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Bind sets the session t renders. Pass t.Refresh to Dial as an observer and Bind the
// resulting session before Run.
func (t *Terminal) Bind(source Snapshotter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.source = source
}

// Refresh prints whatever changed since the previous call.
func (t *Terminal) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.source == nil {
		return
	}
	snap := t.source.Snapshot()

	if !slices.Equal(snap.Roster, t.roster) {
		t.roster = snap.Roster
		fmt.Fprintln(t.out, view.FormatRoster(snap.Roster))
	}

	if t.printed > len(snap.Messages) {
		t.printed = 0
	}
	for _, m := range view.RenderMessages(snap.Messages[t.printed:], snap.Roster) {
		fmt.Fprintln(t.out, view.FormatLine(m))
	}
	t.printed = len(snap.Messages)
}

// SubmitLines submits every line read from in until it is exhausted or ctx is cancelled.
// Blank lines are skipped by the session itself.
func SubmitLines(ctx context.Context, in io.Reader, s Submitter) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.Submit(scanner.Text())
	}
	return scanner.Err()
}
