package server

import (
	goerrors "errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/akramahmed1/quantenergx-gateway/pkg/errors"
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
	"github.com/akramahmed1/quantenergx-gateway/pkg/registry"
	"github.com/akramahmed1/quantenergx-gateway/pkg/storage"
)

const (
	// pongWait is how long a connection may stay silent before the read
	// deadline kills it; the registry's pings keep healthy clients inside it.
	pongWait = 90 * time.Second

	// maxMessageSize bounds inbound frames. Client events are small JSON.
	maxMessageSize = 16 * 1024
)

// handleWebSocket upgrades the request, registers the connection and hands
// it its id before the read loop starts.
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.ErrorWithErr("websocket upgrade failed", err)
		return
	}

	connID := uuid.NewString()
	conn := s.services.Registry.Register(connID, ws, c.ClientIP())

	s.saveSession(conn)

	s.services.Registry.SendToConn(connID, protocol.EventConnected, protocol.ConnectedPayload{
		ConnectionID: connID,
		Timestamp:    time.Now().UTC(),
	})

	go s.readPump(ws, conn)
}

// readPump reads client events until the socket dies, then unregisters the
// connection and closes out its session row.
func (s *Server) readPump(ws *websocket.Conn, conn *registry.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorWith("panic recovered in read loop",
				"conn_id", conn.ID(), "panic", fmt.Sprint(r))
		}
		s.services.Registry.Unregister(conn.ID())
		s.closeSession(conn.ID())
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.log.WarnWith("websocket read error", "conn_id", conn.ID(), "error", err)
			}
			return
		}

		s.handleMessage(conn, &msg)
	}
}

// handleMessage routes one inbound event through the dispatcher. Handlers
// own their replies; only an unknown event gets a generic error back.
func (s *Server) handleMessage(conn *registry.Conn, msg *protocol.Message) {
	if msg.Event == "" {
		s.services.Registry.SendToConn(conn.ID(), protocol.EventError,
			protocol.ErrorPayload{Message: "event is required"})
		return
	}

	if err := s.services.Dispatcher.Dispatch(conn, msg); err != nil {
		if goerrors.Is(err, errors.ErrUnknownEvent) {
			s.services.Registry.SendToConn(conn.ID(), protocol.EventError,
				protocol.ErrorPayload{Message: "unknown event: " + msg.Event})
			return
		}
		s.log.WarnWith("event handling failed",
			"conn_id", conn.ID(), "event", msg.Event, "error", err)
	}
}

// saveSession records the accepted connection; persistence errors never
// block the socket.
func (s *Server) saveSession(conn *registry.Conn) {
	if s.services.Store == nil {
		return
	}
	session := &storage.Session{
		ID:          conn.ID(),
		RemoteAddr:  conn.RemoteAddr(),
		ConnectedAt: conn.ConnectedAt(),
	}
	if err := s.services.Store.SaveSession(session); err != nil {
		s.log.WarnWith("failed to save session", "conn_id", conn.ID(), "error", err)
	}
}

func (s *Server) closeSession(connID string) {
	if s.services.Store == nil {
		return
	}
	if err := s.services.Store.CloseSession(connID); err != nil {
		s.log.WarnWith("failed to close session", "conn_id", connID, "error", err)
	}
}
