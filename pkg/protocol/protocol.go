package protocol

import (
	"encoding/json"
	"time"
)

// Client-to-gateway events
const (
	EventAuthenticate        = "authenticate"
	EventJoinTrading         = "join-trading"
	EventSubscribeMarket     = "subscribe-market"
	EventUnsubscribeMarket   = "unsubscribe-market"
	EventSubscribeOrders     = "subscribe-orders"
	EventSubscribeCompliance = "subscribe-compliance"
	EventSubscribeArbitrage  = "subscribe-arbitrage"
	EventPing                = "ping"
)

// Gateway-to-client events
const (
	EventConnected            = "connected"
	EventAuthSuccess          = "auth-success"
	EventAuthError            = "auth-error"
	EventTradingJoined        = "trading-joined"
	EventMarketSubscribed     = "market-subscribed"
	EventMarketUnsubscribed   = "market-unsubscribed"
	EventOrdersSubscribed     = "orders-subscribed"
	EventComplianceSubscribed = "compliance-subscribed"
	EventArbitrageSubscribed  = "arbitrage-subscribed"
	EventSubscriptionError    = "subscription-error"
	EventMarketUpdate         = "market-update"
	EventTradeUpdate          = "trade-update"
	EventOrderUpdate          = "order-update"
	EventSystemAlert          = "system-alert"
	EventComplianceAlert      = "compliance-alert"
	EventArbitrageAlert       = "arbitrage-alert"
	EventPong                 = "pong"
	EventError                = "error"
)

// Message is the frame for every message on the client socket, in both
// directions. Data is opaque at this layer; handlers decode it into the
// payload type matching the event.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a message for the given event with a marshaled payload.
func NewMessage(event string, data interface{}) (*Message, error) {
	if data == nil {
		return &Message{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{Event: event, Data: raw}, nil
}

// ParseData unmarshals the message data into the given payload struct.
// An absent data field decodes as an empty payload, so required-field
// checks downstream see zero values rather than a decode error.
func (m *Message) ParseData(v interface{}) error {
	if len(m.Data) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(m.Data, v)
}

// AuthenticatePayload carries the client-supplied identity pair. Token
// legitimacy is verified upstream; the gateway enforces presence only.
type AuthenticatePayload struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// JoinTradingPayload requests membership in the user's trading room.
type JoinTradingPayload struct {
	UserID string `json:"userId"`
}

// SubscribeMarketPayload lists the commodities to subscribe to (or to drop,
// for unsubscribe-market).
type SubscribeMarketPayload struct {
	Commodities []string `json:"commodities"`
}

// SubscribeOrdersPayload requests the user's order updates.
type SubscribeOrdersPayload struct {
	UserID string `json:"userId"`
}

// SubscribeCompliancePayload requests the user's compliance events.
type SubscribeCompliancePayload struct {
	UserID string `json:"userId"`
}

// SubscribeArbitragePayload requests arbitrage alerts for the user and,
// optionally, region-wide alerts.
type SubscribeArbitragePayload struct {
	UserID string `json:"userId"`
	Region string `json:"region,omitempty"`
}

// ConnectedPayload is sent once immediately after the socket is accepted.
type ConnectedPayload struct {
	ConnectionID string    `json:"connectionId"`
	Timestamp    time.Time `json:"timestamp"`
}

// AuthSuccessPayload confirms authentication.
type AuthSuccessPayload struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPayload carries a human-readable failure reason; used for auth-error
// and the generic error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// SubscriptionErrorPayload reports a rejected subscription request.
type SubscriptionErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// TradingJoinedPayload confirms membership in the trading room.
type TradingJoinedPayload struct {
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketSubscribedPayload confirms market room membership; Rooms names the
// rooms actually joined so clients can verify subscription state.
type MarketSubscribedPayload struct {
	Commodities []string `json:"commodities"`
	Rooms       []string `json:"rooms"`
}

// MarketUnsubscribedPayload confirms the market rooms left.
type MarketUnsubscribedPayload struct {
	Commodities []string `json:"commodities"`
}

// RoomSubscribedPayload confirms membership in a single user-scoped room.
type RoomSubscribedPayload struct {
	Room string `json:"room"`
}

// ArbitrageSubscribedPayload confirms the arbitrage room(s) joined.
type ArbitrageSubscribedPayload struct {
	Rooms []string `json:"rooms"`
}

// PongPayload answers a ping with the gateway's current time.
type PongPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// ArbitrageMarket is one leg of a cross-market opportunity.
type ArbitrageMarket struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Region   string  `json:"region"`
}

// ArbitrageCompliance carries the regional compliance verdict attached to an
// opportunity.
type ArbitrageCompliance struct {
	Region string `json:"region"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// ArbitrageAlert is the payload published on the arbitrage-opportunities
// topic. The gateway treats it as opaque beyond the routing fields (userId,
// region, severity, spreadPercentage); the full shape is defined here for
// producers such as the demo source.
type ArbitrageAlert struct {
	ID               string              `json:"id"`
	Timestamp        time.Time           `json:"timestamp"`
	Commodity        string              `json:"commodity"`
	Market1          ArbitrageMarket     `json:"market1"`
	Market2          ArbitrageMarket     `json:"market2"`
	Spread           float64             `json:"spread"`
	SpreadPercentage float64             `json:"spreadPercentage"`
	ProfitPotential  float64             `json:"profitPotential"`
	Severity         Severity            `json:"severity"`
	Compliance       ArbitrageCompliance `json:"compliance"`
	ExpiresAt        time.Time           `json:"expiresAt"`
	UserID           string              `json:"userId"`
	Region           string              `json:"region"`
}
