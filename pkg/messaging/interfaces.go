package messaging

import (
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
)

// Conn is the connection surface handlers act on.
type Conn interface {
	// ID returns the server-assigned connection ID
	ID() string
	// UserID returns the authenticated user, empty before authenticate
	UserID() string
	// Authenticated reports whether authenticate has succeeded
	Authenticated() bool
	// SetUser marks the connection authenticated as userID
	SetUser(userID string)
}

// Rooms is the registry surface handlers join rooms and reply through.
type Rooms interface {
	// JoinRoom adds the connection to a room; joining twice is a no-op
	JoinRoom(connID, room string)
	// LeaveRoom removes the connection from a room
	LeaveRoom(connID, room string)
	// SendToConn replies to a single connection; unknown IDs are ignored
	SendToConn(connID, event string, data interface{})
}

// Handler handles a specific client event
type Handler interface {
	// Handle processes one inbound message; replies go through Rooms
	Handle(conn Conn, msg *protocol.Message) error
	// Event returns the event name this handler processes
	Event() string
}

// Dispatcher dispatches client events to appropriate handlers
type Dispatcher interface {
	// Register registers a handler for an event
	Register(handler Handler) error
	// Dispatch dispatches a message to the appropriate handler
	Dispatch(conn Conn, msg *protocol.Message) error
	// HasHandler checks if a handler exists for the event
	HasHandler(event string) bool
}

// SessionRecorder persists the user attached to a session once
// authentication succeeds.
type SessionRecorder interface {
	SetSessionUser(sessionID, userID string) error
}
