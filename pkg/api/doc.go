// Package api provides the gateway's REST endpoints.
//
// This package encapsulates the HTTP surface next to the WebSocket
// endpoint:
// - /health for liveness and component status
// - /api/v1/stats for connection and routing counters
// - /api/v1/sessions for currently connected sessions
// - Standard error and success response envelopes
//
// The package uses gin-gonic for routing. Handlers tolerate a nil
// session store so the gateway can run without persistence.
package api
