package broker

// Topics the gateway consumes.
const (
	TopicMarketData             = "market-data"
	TopicTradeUpdates           = "trade-updates"
	TopicOrderUpdates           = "order-updates"
	TopicSystemAlerts           = "system-alerts"
	TopicComplianceEvents       = "compliance-events"
	TopicArbitrageOpportunities = "arbitrage-opportunities"
)

// Consumer groups, one per topic. Group names are stable: they become
// durable queue names, so renaming one strands its queue.
const (
	GroupMarket     = "market-group"
	GroupTrade      = "trade-group"
	GroupOrder      = "order-group"
	GroupAlert      = "alert-group"
	GroupCompliance = "compliance-group"
	GroupArbitrage  = "arbitrage-group"
)

// QueueName is the durable queue a consumer group uses for a topic.
func QueueName(topic, group string) string {
	return topic + "." + group
}
