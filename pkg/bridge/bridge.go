// Package bridge ties the broker topics to the router. One subscription
// per topic, each under its own consumer group, so every gateway group
// receives every message exactly once.
package bridge

import (
	"context"
	"fmt"

	"github.com/akramahmed1/quantenergx-gateway/pkg/broker"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/router"
)

type binding struct {
	topic   string
	group   string
	handler broker.Handler
}

// Bridge subscribes the router to the fixed topic table. A nil broker
// client disables it: the gateway keeps serving client events, with no
// live broker-sourced broadcasts.
type Bridge struct {
	client   broker.Client
	log      *logger.Logger
	bindings []binding
}

// NewBridge builds the topic table over r. client may be nil.
func NewBridge(client broker.Client, r *router.Router, log *logger.Logger) *Bridge {
	return &Bridge{
		client: client,
		log:    log.Component("bridge"),
		bindings: []binding{
			{broker.TopicMarketData, broker.GroupMarket, r.HandleMarketData},
			{broker.TopicTradeUpdates, broker.GroupTrade, r.HandleTradeUpdate},
			{broker.TopicOrderUpdates, broker.GroupOrder, r.HandleOrderUpdate},
			{broker.TopicSystemAlerts, broker.GroupAlert, r.HandleSystemAlert},
			{broker.TopicComplianceEvents, broker.GroupCompliance, r.HandleComplianceEvent},
			{broker.TopicArbitrageOpportunities, broker.GroupArbitrage, r.HandleArbitrage},
		},
	}
}

// Enabled reports whether a broker client is configured.
func (b *Bridge) Enabled() bool {
	return b.client != nil
}

// Start establishes all subscriptions. Without a broker client it logs
// the degraded mode and returns nil; the first failing subscription
// aborts startup.
func (b *Bridge) Start(ctx context.Context) error {
	if b.client == nil {
		b.log.WarnWith("broker client not configured, live event broadcasting disabled")
		return nil
	}

	for _, bind := range b.bindings {
		if err := b.client.Subscribe(ctx, bind.topic, bind.group, bind.handler); err != nil {
			return fmt.Errorf("subscribe %s failed: %w", bind.topic, err)
		}
	}

	b.log.InfoWith("bridge started", "topics", len(b.bindings))
	return nil
}
