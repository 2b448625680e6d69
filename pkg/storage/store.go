package storage

import "time"

// Session records the lifetime of a single WebSocket connection. A row is
// written when the socket is accepted, the user id is filled in once the
// connection authenticates, and the disconnect time is stamped when the
// socket goes away.
type Session struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId,omitempty"`
	RemoteAddr     string     `json:"remoteAddr"`
	ConnectedAt    time.Time  `json:"connectedAt"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty"`
}

// Store defines the interface for persistent session storage
type Store interface {
	// SaveSession inserts or updates a session row
	SaveSession(session *Session) error

	// SetSessionUser attaches an authenticated user id to an existing session
	SetSessionUser(sessionID, userID string) error

	// CloseSession stamps the session's disconnect time
	CloseSession(sessionID string) error

	// ActiveSessions returns sessions without a disconnect time, newest first
	ActiveSessions() ([]*Session, error)

	// CountSessions returns total and still-connected session counts
	CountSessions() (total int, active int, err error)

	// Close closes the underlying database connection
	Close() error
}
