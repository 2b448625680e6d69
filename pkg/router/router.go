// Package router decides which room(s) each inbound domain event reaches
// and wraps it in the outbound envelope. It holds the one nontrivial policy
// in the gateway: severity-gated fan-out of arbitrage alerts.
package router

import (
	"fmt"
	"sync"

	"github.com/akramahmed1/quantenergx-gateway/pkg/broker"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
	"github.com/akramahmed1/quantenergx-gateway/pkg/ratelimit"
)

// Broadcaster is the registry surface the router emits through.
type Broadcaster interface {
	BroadcastToRoom(room, event string, data interface{}) int
	BroadcastAll(event string, data interface{}) int
}

// Stats is a snapshot of router counters.
type Stats struct {
	Received    int64 `json:"received"`
	Routed      int64 `json:"routed"`
	ParseErrors int64 `json:"parseErrors"`
	RateLimited int64 `json:"rateLimited"`
}

// Router routes broker messages to rooms. Handlers are safe for concurrent
// use from multiple topic subscriptions.
type Router struct {
	broadcaster Broadcaster
	limiter     *ratelimit.Limiter
	log         *logger.Logger

	mu          sync.Mutex
	received    int64
	routed      int64
	parseErrors int64
	rateLimited int64
}

// NewRouter creates a router emitting through broadcaster. limiter bounds
// market-data broadcast frequency per room; pass a zero-rate limiter to
// route every message.
func NewRouter(broadcaster Broadcaster, limiter *ratelimit.Limiter, log *logger.Logger) *Router {
	if limiter == nil {
		limiter = ratelimit.NewLimiter(0, 0)
	}
	return &Router{
		broadcaster: broadcaster,
		limiter:     limiter,
		log:         log.Component("router"),
	}
}

// routing keys extracted from payloads; everything else stays opaque
type marketKey struct {
	Commodity string `json:"commodity"`
}

type userKey struct {
	UserID string `json:"userId"`
}

type arbitrageKey struct {
	UserID           string            `json:"userId"`
	Region           string            `json:"region"`
	Severity         protocol.Severity `json:"severity"`
	SpreadPercentage float64           `json:"spreadPercentage"`
}

// HandleMarketData routes a market tick to its commodity room.
func (r *Router) HandleMarketData(msg broker.Message) error {
	r.count(&r.received)

	var key marketKey
	if err := msg.ParseValue(&key); err != nil || key.Commodity == "" {
		r.count(&r.parseErrors)
		return fmt.Errorf("market-data message missing commodity: %v", err)
	}

	room := protocol.MarketRoom(key.Commodity)
	if !r.limiter.Allow(room) {
		r.count(&r.rateLimited)
		r.log.DebugWith("market update rate limited", "room", room)
		return nil
	}

	env := protocol.NewEnvelope(protocol.MarketUpdate, msg.Value, msg.Timestamp, "")
	r.broadcaster.BroadcastToRoom(room, protocol.EventMarketUpdate, env)
	r.count(&r.routed)
	return nil
}

// HandleTradeUpdate routes a trade event to the owning user's trading room.
func (r *Router) HandleTradeUpdate(msg broker.Message) error {
	r.count(&r.received)

	var key userKey
	if err := msg.ParseValue(&key); err != nil || key.UserID == "" {
		r.count(&r.parseErrors)
		return fmt.Errorf("trade-updates message missing userId: %v", err)
	}

	env := protocol.NewEnvelope(protocol.TradeUpdate, msg.Value, msg.Timestamp, key.UserID)
	r.broadcaster.BroadcastToRoom(protocol.TradingRoom(key.UserID), protocol.EventTradeUpdate, env)
	r.count(&r.routed)
	return nil
}

// HandleOrderUpdate routes an order event to the owning user's orders room.
func (r *Router) HandleOrderUpdate(msg broker.Message) error {
	r.count(&r.received)

	var key userKey
	if err := msg.ParseValue(&key); err != nil || key.UserID == "" {
		r.count(&r.parseErrors)
		return fmt.Errorf("order-updates message missing userId: %v", err)
	}

	env := protocol.NewEnvelope(protocol.OrderUpdate, msg.Value, msg.Timestamp, key.UserID)
	r.broadcaster.BroadcastToRoom(protocol.OrdersRoom(key.UserID), protocol.EventOrderUpdate, env)
	r.count(&r.routed)
	return nil
}

// HandleSystemAlert pushes an alert to every connected client, rooms or not.
func (r *Router) HandleSystemAlert(msg broker.Message) error {
	r.count(&r.received)

	env := protocol.NewEnvelope(protocol.SystemAlert, msg.Value, msg.Timestamp, "")
	n := r.broadcaster.BroadcastAll(protocol.EventSystemAlert, env)
	r.count(&r.routed)
	r.log.InfoWith("system alert broadcast", "recipients", n)
	return nil
}

// HandleComplianceEvent routes a compliance event to the user's compliance
// room. These carry regulatory weight, so each send is logged elevated.
func (r *Router) HandleComplianceEvent(msg broker.Message) error {
	r.count(&r.received)

	var key userKey
	if err := msg.ParseValue(&key); err != nil || key.UserID == "" {
		r.count(&r.parseErrors)
		return fmt.Errorf("compliance-events message missing userId: %v", err)
	}

	env := protocol.NewEnvelope(protocol.SystemAlert, msg.Value, msg.Timestamp, key.UserID)
	r.broadcaster.BroadcastToRoom(protocol.ComplianceRoom(key.UserID), protocol.EventComplianceAlert, env)
	r.count(&r.routed)
	r.log.WarnWith("COMPLIANCE_ALERT routed", "user_id", key.UserID)
	return nil
}

// HandleArbitrage routes an opportunity to the user's arbitrage room, and
// to the region room when severe enough to warrant waking a whole desk.
// The payload passes through as-is; severity absent from it is derived
// from the spread for gating only.
func (r *Router) HandleArbitrage(msg broker.Message) error {
	r.count(&r.received)

	var key arbitrageKey
	if err := msg.ParseValue(&key); err != nil || key.UserID == "" {
		r.count(&r.parseErrors)
		return fmt.Errorf("arbitrage message missing userId: %v", err)
	}

	severity := key.Severity
	if severity == "" {
		severity = protocol.ClassifySeverity(key.SpreadPercentage)
	}

	r.broadcaster.BroadcastToRoom(protocol.ArbitrageRoom(key.UserID), protocol.EventArbitrageAlert, msg.Value)
	if severity.Urgent() && key.Region != "" {
		r.broadcaster.BroadcastToRoom(protocol.ArbitrageRegionRoom(key.Region), protocol.EventArbitrageAlert, msg.Value)
	}
	r.count(&r.routed)
	return nil
}

func (r *Router) count(field *int64) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}

// Stats returns a snapshot of routing counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Received:    r.received,
		Routed:      r.routed,
		ParseErrors: r.parseErrors,
		RateLimited: r.rateLimited,
	}
}
