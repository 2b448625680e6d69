package protocol

import (
	"encoding/json"
	"time"
)

// EnvelopeType classifies a pushed message for client-side dispatch.
type EnvelopeType string

const (
	MarketUpdate EnvelopeType = "MARKET_UPDATE"
	TradeUpdate  EnvelopeType = "TRADE_UPDATE"
	OrderUpdate  EnvelopeType = "ORDER_UPDATE"
	SystemAlert  EnvelopeType = "SYSTEM_ALERT"
)

// Envelope wraps a broker payload for delivery to clients. Payload is
// passed through untouched; Timestamp carries the source message timestamp.
// UserID is set only on user-scoped envelopes.
type Envelope struct {
	Type      EnvelopeType    `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	UserID    string          `json:"userId,omitempty"`
}

// NewEnvelope builds an envelope around an opaque payload. A zero ts falls
// back to the current time.
func NewEnvelope(t EnvelopeType, payload json.RawMessage, ts time.Time, userID string) *Envelope {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &Envelope{
		Type:      t,
		Payload:   payload,
		Timestamp: ts,
		UserID:    userID,
	}
}
