// Package broker abstracts the upstream event broker. The gateway consumes
// six fixed topics through consumer groups; each group sees every message
// on its topic exactly once regardless of how many gateway instances run.
package broker

import (
	"context"
	"encoding/json"
	"time"
)

// Message is one event consumed from a topic. Value is the raw payload,
// passed downstream without interpretation.
type Message struct {
	Topic     string
	Value     json.RawMessage
	Timestamp time.Time
}

// ParseValue unmarshals the payload into v.
func (m Message) ParseValue(v interface{}) error {
	return json.Unmarshal(m.Value, v)
}

// Handler consumes one message. Errors are logged by the subscription
// loop; they never stop consumption.
type Handler func(Message) error

// Client connects the gateway to the event broker.
type Client interface {
	// Subscribe consumes topic on behalf of group until ctx is canceled.
	Subscribe(ctx context.Context, topic, group string, handler Handler) error

	// Publish sends value to topic as JSON.
	Publish(ctx context.Context, topic string, value interface{}) error

	// Close tears down the broker connection.
	Close() error
}
