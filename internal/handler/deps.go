package handler

import (
	"cafechat/internal/app/fanout"
	"cafechat/internal/app/session"
	"cafechat/internal/configs"
)

// ChatSession is the part of the session controller the view API uses.
type ChatSession interface {
	Snapshot() session.Snapshot
	Submit(text string) bool
}

// Link reports when the connection to the chat server has ended.
type Link interface {
	Done() <-chan struct{}
}

// AppDeps is everything the router needs.
type AppDeps struct {
	Session ChatSession
	Config  *configs.AppConfig

	// Changes carries an encoded view state after every session change.
	Changes *fanout.Bus

	// Link may be nil, in which case the session is always treated as connected.
	Link Link
}

func (d *AppDeps) connected() bool {
	if d.Link == nil {
		return true
	}
	select {
	case <-d.Link.Done():
		return false
	default:
		return true
	}
}
