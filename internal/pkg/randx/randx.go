/*
Package randx generates identifiers for connections, subscribers and local viewers.

Identifiers are only used to correlate log lines and bookkeeping inside one client
process; they never travel on the chat protocol.
*/
package randx

import "github.com/google/uuid"

const (
	// ConnectionIDPrefix marks identifiers of server connections.
	ConnectionIDPrefix = "conn_"

	// ViewerIDPrefix marks identifiers of local view API websocket viewers.
	ViewerIDPrefix = "viewer_"
)

// ConnectionID returns a new identifier for a server connection.
func ConnectionID() string {
	return ConnectionIDPrefix + uuid.NewString()
}

// ViewerID returns a new identifier for a local viewer.
func ViewerID() string {
	return ViewerIDPrefix + uuid.NewString()
}

// SubscriberID returns a new identifier for a fan-out subscription.
func SubscriberID() string {
	return uuid.NewString()
}
