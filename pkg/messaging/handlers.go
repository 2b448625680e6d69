package messaging

import (
	"fmt"
	"time"

	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
)

// rejectSubscription replies with a structured subscription-error.
func rejectSubscription(conn Conn, rooms Rooms, event, reason string) {
	rooms.SendToConn(conn.ID(), protocol.EventSubscriptionError, protocol.SubscriptionErrorPayload{
		Event:   event,
		Message: reason,
	})
}

// requireUser enforces that the connection is authenticated as userID
// before it may join a user-scoped room. On failure it replies with
// subscription-error and reports false; membership stays unchanged.
func requireUser(conn Conn, rooms Rooms, event, userID string) bool {
	if userID == "" {
		rejectSubscription(conn, rooms, event, "userId is required")
		return false
	}
	if !conn.Authenticated() {
		rejectSubscription(conn, rooms, event, "authentication required")
		return false
	}
	if conn.UserID() != userID {
		rejectSubscription(conn, rooms, event, "userId does not match authenticated user")
		return false
	}
	return true
}

// AuthenticateHandler handles authenticate events. Token legitimacy is
// delegated upstream; only presence of both fields is enforced here.
type AuthenticateHandler struct {
	rooms    Rooms
	sessions SessionRecorder
	log      *logger.Logger
}

// NewAuthenticateHandler creates a new authenticate handler. sessions may
// be nil when the session store is disabled.
func NewAuthenticateHandler(rooms Rooms, sessions SessionRecorder, log *logger.Logger) *AuthenticateHandler {
	return &AuthenticateHandler{rooms: rooms, sessions: sessions, log: log.Component("auth")}
}

// Event returns the event this handler processes
func (h *AuthenticateHandler) Event() string {
	return protocol.EventAuthenticate
}

// Handle processes an authenticate event
func (h *AuthenticateHandler) Handle(conn Conn, msg *protocol.Message) error {
	var payload protocol.AuthenticatePayload
	if err := msg.ParseData(&payload); err != nil {
		h.rooms.SendToConn(conn.ID(), protocol.EventAuthError, protocol.ErrorPayload{
			Message: "invalid authenticate payload",
		})
		return fmt.Errorf("invalid authenticate payload: %w", err)
	}

	if payload.UserID == "" || payload.Token == "" {
		h.rooms.SendToConn(conn.ID(), protocol.EventAuthError, protocol.ErrorPayload{
			Message: "userId and token are required",
		})
		return nil
	}

	conn.SetUser(payload.UserID)
	if h.sessions != nil {
		if err := h.sessions.SetSessionUser(conn.ID(), payload.UserID); err != nil {
			h.log.ErrorWithErr("failed to record session user", err, "connection_id", conn.ID())
		}
	}

	h.rooms.SendToConn(conn.ID(), protocol.EventAuthSuccess, protocol.AuthSuccessPayload{
		UserID:    payload.UserID,
		Timestamp: time.Now().UTC(),
	})
	h.log.InfoWith("connection authenticated", "connection_id", conn.ID(), "user_id", payload.UserID)
	return nil
}

// JoinTradingHandler handles join-trading events
type JoinTradingHandler struct {
	rooms Rooms
}

// NewJoinTradingHandler creates a new join-trading handler
func NewJoinTradingHandler(rooms Rooms) *JoinTradingHandler {
	return &JoinTradingHandler{rooms: rooms}
}

// Event returns the event this handler processes
func (h *JoinTradingHandler) Event() string {
	return protocol.EventJoinTrading
}

// Handle processes a join-trading event
func (h *JoinTradingHandler) Handle(conn Conn, msg *protocol.Message) error {
	var payload protocol.JoinTradingPayload
	if err := msg.ParseData(&payload); err != nil {
		rejectSubscription(conn, h.rooms, protocol.EventJoinTrading, "invalid payload")
		return fmt.Errorf("invalid join-trading payload: %w", err)
	}

	if !requireUser(conn, h.rooms, protocol.EventJoinTrading, payload.UserID) {
		return nil
	}

	room := protocol.TradingRoom(payload.UserID)
	h.rooms.JoinRoom(conn.ID(), room)
	h.rooms.SendToConn(conn.ID(), protocol.EventTradingJoined, protocol.TradingJoinedPayload{
		Room:      room,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// SubscribeMarketHandler handles subscribe-market events. Market rooms are
// public: no user is embedded in the room name, so no authorization applies.
type SubscribeMarketHandler struct {
	rooms Rooms
}

// NewSubscribeMarketHandler creates a new subscribe-market handler
func NewSubscribeMarketHandler(rooms Rooms) *SubscribeMarketHandler {
	return &SubscribeMarketHandler{rooms: rooms}
}

// Event returns the event this handler processes
func (h *SubscribeMarketHandler) Event() string {
	return protocol.EventSubscribeMarket
}

// Handle processes a subscribe-market event
func (h *SubscribeMarketHandler) Handle(conn Conn, msg *protocol.Message) error {
	var payload protocol.SubscribeMarketPayload
	if err := msg.ParseData(&payload); err != nil {
		rejectSubscription(conn, h.rooms, protocol.EventSubscribeMarket, "invalid payload")
		return fmt.Errorf("invalid subscribe-market payload: %w", err)
	}

	if len(payload.Commodities) == 0 {
		rejectSubscription(conn, h.rooms, protocol.EventSubscribeMarket, "commodities list is required")
		return nil
	}

	joined := make([]string, 0, len(payload.Commodities))
	for _, commodity := range payload.Commodities {
		room := protocol.MarketRoom(commodity)
		h.rooms.JoinRoom(conn.ID(), room)
		joined = append(joined, room)
	}

	h.rooms.SendToConn(conn.ID(), protocol.EventMarketSubscribed, protocol.MarketSubscribedPayload{
		Commodities: payload.Commodities,
		Rooms:       joined,
	})
	return nil
}

// UnsubscribeMarketHandler handles unsubscribe-market events
type UnsubscribeMarketHandler struct {
	rooms Rooms
}

// NewUnsubscribeMarketHandler creates a new unsubscribe-market handler
func NewUnsubscribeMarketHandler(rooms Rooms) *UnsubscribeMarketHandler {
	return &UnsubscribeMarketHandler{rooms: rooms}
}

// Event returns the event this handler processes
func (h *UnsubscribeMarketHandler) Event() string {
	return protocol.EventUnsubscribeMarket
}

// Handle processes an unsubscribe-market event
func (h *UnsubscribeMarketHandler) Handle(conn Conn, msg *protocol.Message) error {
	var payload protocol.SubscribeMarketPayload
	if err := msg.ParseData(&payload); err != nil {
		rejectSubscription(conn, h.rooms, protocol.EventUnsubscribeMarket, "invalid payload")
		return fmt.Errorf("invalid unsubscribe-market payload: %w", err)
	}

	if len(payload.Commodities) == 0 {
		rejectSubscription(conn, h.rooms, protocol.EventUnsubscribeMarket, "commodities list is required")
		return nil
	}

	for _, commodity := range payload.Commodities {
		h.rooms.LeaveRoom(conn.ID(), protocol.MarketRoom(commodity))
	}

	h.rooms.SendToConn(conn.ID(), protocol.EventMarketUnsubscribed, protocol.MarketUnsubscribedPayload{
		Commodities: payload.Commodities,
	})
	return nil
}

// SubscribeOrdersHandler handles subscribe-orders events
type SubscribeOrdersHandler struct {
	rooms Rooms
}

// NewSubscribeOrdersHandler creates a new subscribe-orders handler
func NewSubscribeOrdersHandler(rooms Rooms) *SubscribeOrdersHandler {
	return &SubscribeOrdersHandler{rooms: rooms}
}

// Event returns the event this handler processes
func (h *SubscribeOrdersHandler) Event() string {
	return protocol.EventSubscribeOrders
}

// Handle processes a subscribe-orders event
func (h *SubscribeOrdersHandler) Handle(conn Conn, msg *protocol.Message) error {
	var payload protocol.SubscribeOrdersPayload
	if err := msg.ParseData(&payload); err != nil {
		rejectSubscription(conn, h.rooms, protocol.EventSubscribeOrders, "invalid payload")
		return fmt.Errorf("invalid subscribe-orders payload: %w", err)
	}

	if !requireUser(conn, h.rooms, protocol.EventSubscribeOrders, payload.UserID) {
		return nil
	}

	room := protocol.OrdersRoom(payload.UserID)
	h.rooms.JoinRoom(conn.ID(), room)
	h.rooms.SendToConn(conn.ID(), protocol.EventOrdersSubscribed, protocol.RoomSubscribedPayload{Room: room})
	return nil
}

// SubscribeComplianceHandler handles subscribe-compliance events
type SubscribeComplianceHandler struct {
	rooms Rooms
}

// NewSubscribeComplianceHandler creates a new subscribe-compliance handler
func NewSubscribeComplianceHandler(rooms Rooms) *SubscribeComplianceHandler {
	return &SubscribeComplianceHandler{rooms: rooms}
}

// Event returns the event this handler processes
func (h *SubscribeComplianceHandler) Event() string {
	return protocol.EventSubscribeCompliance
}

// Handle processes a subscribe-compliance event
func (h *SubscribeComplianceHandler) Handle(conn Conn, msg *protocol.Message) error {
	var payload protocol.SubscribeCompliancePayload
	if err := msg.ParseData(&payload); err != nil {
		rejectSubscription(conn, h.rooms, protocol.EventSubscribeCompliance, "invalid payload")
		return fmt.Errorf("invalid subscribe-compliance payload: %w", err)
	}

	if !requireUser(conn, h.rooms, protocol.EventSubscribeCompliance, payload.UserID) {
		return nil
	}

	room := protocol.ComplianceRoom(payload.UserID)
	h.rooms.JoinRoom(conn.ID(), room)
	h.rooms.SendToConn(conn.ID(), protocol.EventComplianceSubscribed, protocol.RoomSubscribedPayload{Room: room})
	return nil
}

// SubscribeArbitrageHandler handles subscribe-arbitrage events
type SubscribeArbitrageHandler struct {
	rooms Rooms
}

// NewSubscribeArbitrageHandler creates a new subscribe-arbitrage handler
func NewSubscribeArbitrageHandler(rooms Rooms) *SubscribeArbitrageHandler {
	return &SubscribeArbitrageHandler{rooms: rooms}
}

// Event returns the event this handler processes
func (h *SubscribeArbitrageHandler) Event() string {
	return protocol.EventSubscribeArbitrage
}

// Handle processes a subscribe-arbitrage event. The optional region also
// joins the region-wide room, which only carries high and critical alerts.
func (h *SubscribeArbitrageHandler) Handle(conn Conn, msg *protocol.Message) error {
	var payload protocol.SubscribeArbitragePayload
	if err := msg.ParseData(&payload); err != nil {
		rejectSubscription(conn, h.rooms, protocol.EventSubscribeArbitrage, "invalid payload")
		return fmt.Errorf("invalid subscribe-arbitrage payload: %w", err)
	}

	if !requireUser(conn, h.rooms, protocol.EventSubscribeArbitrage, payload.UserID) {
		return nil
	}

	joined := []string{protocol.ArbitrageRoom(payload.UserID)}
	h.rooms.JoinRoom(conn.ID(), joined[0])
	if payload.Region != "" {
		regionRoom := protocol.ArbitrageRegionRoom(payload.Region)
		h.rooms.JoinRoom(conn.ID(), regionRoom)
		joined = append(joined, regionRoom)
	}

	h.rooms.SendToConn(conn.ID(), protocol.EventArbitrageSubscribed, protocol.ArbitrageSubscribedPayload{Rooms: joined})
	return nil
}

// PingHandler handles ping events, a pure liveness probe
type PingHandler struct {
	rooms Rooms
}

// NewPingHandler creates a new ping handler
func NewPingHandler(rooms Rooms) *PingHandler {
	return &PingHandler{rooms: rooms}
}

// Event returns the event this handler processes
func (h *PingHandler) Event() string {
	return protocol.EventPing
}

// Handle processes a ping event
func (h *PingHandler) Handle(conn Conn, msg *protocol.Message) error {
	h.rooms.SendToConn(conn.ID(), protocol.EventPong, protocol.PongPayload{
		Timestamp: time.Now().UTC(),
	})
	return nil
}
