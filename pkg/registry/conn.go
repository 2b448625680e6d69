package registry

import (
	"sync"
	"time"

	"github.com/akramahmed1/quantenergx-gateway/pkg/errors"
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
)

// WSConn is the subset of *websocket.Conn the registry writes through.
// Tests substitute a fake; production passes the upgraded connection.
type WSConn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Conn is one registered WebSocket connection. All writes to the socket go
// through the send channel and a single writer goroutine owned by the
// registry, so no caller ever writes to the socket directly.
type Conn struct {
	id          string
	ws          WSConn
	remoteAddr  string
	connectedAt time.Time

	send chan *protocol.Message

	mu            sync.RWMutex
	userID        string
	authenticated bool
	closed        bool
}

// ID returns the server-assigned connection ID.
func (c *Conn) ID() string { return c.id }

// RemoteAddr returns the peer address recorded at registration.
func (c *Conn) RemoteAddr() string { return c.remoteAddr }

// ConnectedAt returns the registration time.
func (c *Conn) ConnectedAt() time.Time { return c.connectedAt }

// UserID returns the authenticated user ID, or empty before authentication.
func (c *Conn) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Authenticated reports whether authenticate has succeeded on this connection.
func (c *Conn) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated
}

// SetUser marks the connection authenticated as userID.
func (c *Conn) SetUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.authenticated = true
}

// Send queues a message without blocking. It returns ErrConnectionClosed
// after Close and ErrSendBufferFull when the client is too slow to drain
// its buffer; the message is dropped in both cases.
func (c *Conn) Send(msg *protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errors.ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return errors.ErrSendBufferFull
	}
}

// Close marks the connection closed and closes the send channel, stopping
// the writer goroutine. Safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
