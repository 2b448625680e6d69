// Package registry tracks live WebSocket connections and their room
// memberships, and owns all writes to the sockets. Rooms are plain string
// names; producers broadcast to a room without knowing who is in it.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akramahmed1/quantenergx-gateway/pkg/errors"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
)

const (
	// writeWait is the deadline for a single socket write.
	writeWait = 10 * time.Second

	// pingPeriod is how often the writer pings an idle connection.
	pingPeriod = 30 * time.Second
)

// Stats is a point-in-time snapshot of registry state.
type Stats struct {
	ConnectedCount     int      `json:"connectedCount"`
	AuthenticatedCount int      `json:"authenticatedCount"`
	RoomNames          []string `json:"roomNames"`
	Dropped            int64    `json:"dropped"`
}

// Registry holds every live connection and the room membership index.
// All map mutations happen under mu so a join immediately after register
// is always visible.
type Registry struct {
	log        *logger.Logger
	sendBuffer int

	mu        sync.RWMutex
	conns     map[string]*Conn
	rooms     map[string]map[string]*Conn
	connRooms map[string]map[string]struct{}

	statsMu sync.Mutex
	dropped int64

	wg sync.WaitGroup
}

// NewRegistry creates an empty registry. sendBuffer is the per-connection
// outbound queue length; writes beyond it are dropped.
func NewRegistry(sendBuffer int, log *logger.Logger) *Registry {
	if sendBuffer < 1 {
		sendBuffer = 256
	}
	return &Registry{
		log:        log.Component("registry"),
		sendBuffer: sendBuffer,
		conns:      make(map[string]*Conn),
		rooms:      make(map[string]map[string]*Conn),
		connRooms:  make(map[string]map[string]struct{}),
	}
}

// Register adds a connection under id and starts its writer goroutine.
func (r *Registry) Register(id string, ws WSConn, remoteAddr string) *Conn {
	conn := &Conn{
		id:          id,
		ws:          ws,
		remoteAddr:  remoteAddr,
		connectedAt: time.Now().UTC(),
		send:        make(chan *protocol.Message, r.sendBuffer),
	}

	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()

	r.wg.Add(1)
	go r.writePump(conn)

	r.log.DebugWith("connection registered", "connection_id", id, "remote_addr", remoteAddr)
	return conn
}

// Unregister removes a connection and all its room memberships, and closes
// it. Unknown IDs and repeated calls are no-ops.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	conn, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, id)
	for room := range r.connRooms[id] {
		r.removeFromRoom(id, room)
	}
	delete(r.connRooms, id)
	r.mu.Unlock()

	conn.Close()
	r.log.DebugWith("connection unregistered", "connection_id", id)
}

// JoinRoom adds the connection to a room. Joining twice is a no-op, as is
// joining with an unknown connection ID.
func (r *Registry) JoinRoom(id, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]*Conn)
		r.rooms[room] = members
	}
	members[id] = conn

	joined, ok := r.connRooms[id]
	if !ok {
		joined = make(map[string]struct{})
		r.connRooms[id] = joined
	}
	joined[room] = struct{}{}
}

// LeaveRoom removes the connection from a room. Unknown IDs and rooms are
// no-ops.
func (r *Registry) LeaveRoom(id, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoom(id, room)
	if joined, ok := r.connRooms[id]; ok {
		delete(joined, room)
	}
}

// removeFromRoom deletes the membership entry and drops empty rooms.
// Caller holds mu.
func (r *Registry) removeFromRoom(id, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// SendToConn queues an event for a single connection. Unknown connection
// IDs are silent no-ops.
func (r *Registry) SendToConn(id, event string, data interface{}) {
	r.mu.RLock()
	conn, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return
	}

	msg, err := protocol.NewMessage(event, data)
	if err != nil {
		r.log.ErrorWithErr("failed to encode message", err, "event", event)
		return
	}
	r.deliver(conn, msg)
}

// BroadcastToRoom queues an event for every member of a room and returns
// the number of connections it was queued for. The message is encoded once,
// so every member receives identical bytes.
func (r *Registry) BroadcastToRoom(room, event string, data interface{}) int {
	msg, err := protocol.NewMessage(event, data)
	if err != nil {
		r.log.ErrorWithErr("failed to encode message", err, "event", event, "room", room)
		return 0
	}

	r.mu.RLock()
	members := make([]*Conn, 0, len(r.rooms[room]))
	for _, conn := range r.rooms[room] {
		members = append(members, conn)
	}
	r.mu.RUnlock()

	sent := 0
	for _, conn := range members {
		if r.deliver(conn, msg) {
			sent++
		}
	}
	return sent
}

// BroadcastAll queues an event for every registered connection.
func (r *Registry) BroadcastAll(event string, data interface{}) int {
	msg, err := protocol.NewMessage(event, data)
	if err != nil {
		r.log.ErrorWithErr("failed to encode message", err, "event", event)
		return 0
	}

	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	sent := 0
	for _, conn := range conns {
		if r.deliver(conn, msg) {
			sent++
		}
	}
	return sent
}

// deliver queues msg on one connection, counting drops.
func (r *Registry) deliver(conn *Conn, msg *protocol.Message) bool {
	err := conn.Send(msg)
	if err == nil {
		return true
	}
	if err == errors.ErrSendBufferFull {
		r.statsMu.Lock()
		r.dropped++
		r.statsMu.Unlock()
		r.log.WarnWith("send buffer full, message dropped",
			"connection_id", conn.ID(), "event", msg.Event)
	}
	return false
}

// RoomSize returns the current member count of a room.
func (r *Registry) RoomSize(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// InRoom reports whether the connection is currently a member of room.
func (r *Registry) InRoom(id, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][id]
	return ok
}

// Stats returns a snapshot of connection and room state.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	s := Stats{
		ConnectedCount: len(r.conns),
		RoomNames:      make([]string, 0, len(r.rooms)),
	}
	for room := range r.rooms {
		s.RoomNames = append(s.RoomNames, room)
	}
	for _, conn := range r.conns {
		if conn.Authenticated() {
			s.AuthenticatedCount++
		}
	}
	r.mu.RUnlock()
	sort.Strings(s.RoomNames)

	r.statsMu.Lock()
	s.Dropped = r.dropped
	r.statsMu.Unlock()
	return s
}

// Stop closes every connection and waits for all writer goroutines to exit.
func (r *Registry) Stop() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Unregister(id)
	}
	r.wg.Wait()
}

// writePump is the single writer for one connection. It drains the send
// channel and pings idle sockets; any write failure unregisters the
// connection.
func (r *Registry) writePump(conn *Conn) {
	defer r.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.ws.Close()

	for {
		select {
		case msg, ok := <-conn.send:
			if !ok {
				conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
				conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteJSON(msg); err != nil {
				r.log.DebugWith("write failed", "connection_id", conn.ID(), "error", err)
				r.Unregister(conn.ID())
				return
			}
		case <-ticker.C:
			conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				r.log.DebugWith("ping failed", "connection_id", conn.ID(), "error", err)
				r.Unregister(conn.ID())
				return
			}
		}
	}
}
