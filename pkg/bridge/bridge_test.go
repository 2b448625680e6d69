package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/akramahmed1/quantenergx-gateway/pkg/broker"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/ratelimit"
	"github.com/akramahmed1/quantenergx-gateway/pkg/router"
)

type subscription struct {
	topic   string
	group   string
	handler broker.Handler
}

// fakeBrokerClient records subscriptions without a live broker.
type fakeBrokerClient struct {
	mu      sync.Mutex
	subs    []subscription
	failOn  string
	handler map[string]broker.Handler
}

func newFakeBrokerClient() *fakeBrokerClient {
	return &fakeBrokerClient{handler: make(map[string]broker.Handler)}
}

func (f *fakeBrokerClient) Subscribe(ctx context.Context, topic, group string, handler broker.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if topic == f.failOn {
		return fmt.Errorf("broker rejected %s", topic)
	}
	f.subs = append(f.subs, subscription{topic, group, handler})
	f.handler[topic] = handler
	return nil
}

func (f *fakeBrokerClient) Publish(ctx context.Context, topic string, value interface{}) error {
	return nil
}

func (f *fakeBrokerClient) Close() error { return nil }

type countingBroadcaster struct {
	mu    sync.Mutex
	rooms []string
}

func (c *countingBroadcaster) BroadcastToRoom(room, event string, data interface{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = append(c.rooms, room)
	return 1
}

func (c *countingBroadcaster) BroadcastAll(event string, data interface{}) int { return 0 }

func newTestRouter() (*router.Router, *countingBroadcaster) {
	cb := &countingBroadcaster{}
	return router.NewRouter(cb, ratelimit.NewLimiter(0, 0), logger.Get()), cb
}

func TestBridgeDisabledWithoutClient(t *testing.T) {
	r, _ := newTestRouter()
	b := NewBridge(nil, r, logger.Get())

	if b.Enabled() {
		t.Error("Expected bridge disabled without a client")
	}
	if err := b.Start(context.Background()); err != nil {
		t.Errorf("Expected degraded start to succeed, got %v", err)
	}
}

func TestBridgeSubscribesFixedTable(t *testing.T) {
	r, _ := newTestRouter()
	client := newFakeBrokerClient()
	b := NewBridge(client, r, logger.Get())

	if !b.Enabled() {
		t.Error("Expected bridge enabled with a client")
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Expected start to succeed, got %v", err)
	}

	want := map[string]string{
		broker.TopicMarketData:             broker.GroupMarket,
		broker.TopicTradeUpdates:           broker.GroupTrade,
		broker.TopicOrderUpdates:           broker.GroupOrder,
		broker.TopicSystemAlerts:           broker.GroupAlert,
		broker.TopicComplianceEvents:       broker.GroupCompliance,
		broker.TopicArbitrageOpportunities: broker.GroupArbitrage,
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.subs) != len(want) {
		t.Fatalf("Expected %d subscriptions, got %d", len(want), len(client.subs))
	}
	for _, sub := range client.subs {
		group, ok := want[sub.topic]
		if !ok {
			t.Errorf("Unexpected topic %q", sub.topic)
			continue
		}
		if sub.group != group {
			t.Errorf("Expected group %q for %q, got %q", group, sub.topic, sub.group)
		}
		delete(want, sub.topic)
	}
	if len(want) != 0 {
		t.Errorf("Missing subscriptions: %v", want)
	}
}

func TestBridgeStartErrorAborts(t *testing.T) {
	r, _ := newTestRouter()
	client := newFakeBrokerClient()
	client.failOn = broker.TopicOrderUpdates
	b := NewBridge(client, r, logger.Get())

	if err := b.Start(context.Background()); err == nil {
		t.Error("Expected start to fail when a subscription is rejected")
	}
}

func TestBridgeDeliversToRouter(t *testing.T) {
	r, cb := newTestRouter()
	client := newFakeBrokerClient()
	b := NewBridge(client, r, logger.Get())

	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Expected start to succeed, got %v", err)
	}

	client.mu.Lock()
	handler := client.handler[broker.TopicMarketData]
	client.mu.Unlock()

	if err := handler(broker.Message{
		Topic: broker.TopicMarketData,
		Value: json.RawMessage(`{"commodity":"gold","price":1902.1}`),
	}); err != nil {
		t.Fatalf("Expected handler to route, got %v", err)
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if len(cb.rooms) != 1 || cb.rooms[0] != "market-gold" {
		t.Errorf("Expected broadcast to market-gold, got %v", cb.rooms)
	}
}
