// Package protocol defines the wire types exchanged between the gateway and
// its WebSocket clients: the event frame, the outbound envelope, room naming,
// and the arbitrage severity policy.
package protocol
