package protocol

// Room name construction. Every push target is a named room; these helpers
// keep the naming scheme in one place so producers and subscription handlers
// cannot drift apart.

// TradingRoom is the per-user room for trade updates.
func TradingRoom(userID string) string { return "trading-" + userID }

// MarketRoom is the per-commodity room for market data.
func MarketRoom(commodity string) string { return "market-" + commodity }

// OrdersRoom is the per-user room for order updates.
func OrdersRoom(userID string) string { return "orders-" + userID }

// ComplianceRoom is the per-user room for compliance events.
func ComplianceRoom(userID string) string { return "compliance-" + userID }

// ArbitrageRoom is the per-user room for arbitrage alerts.
func ArbitrageRoom(userID string) string { return "arbitrage-" + userID }

// ArbitrageRegionRoom is the region-wide room that receives only high and
// critical arbitrage alerts.
func ArbitrageRegionRoom(region string) string { return "arbitrage-region-" + region }
