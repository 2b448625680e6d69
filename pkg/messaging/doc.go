/*
Package messaging routes inbound client events to their handlers.

The messaging package defines interfaces and implementations for:
- Dispatcher: Routes messages to appropriate handlers based on event name
- Handler: Processes a specific client event and replies through Rooms
- Conn: The connection surface a handler may read and authenticate
- Rooms: The registry surface handlers join rooms and reply through
- SessionRecorder: Persists the user attached to a session on authenticate

Built-in handlers for the client protocol:
- AuthenticateHandler: Marks a connection authenticated (presence check only)
- JoinTradingHandler: Joins the user's trading room
- SubscribeMarketHandler: Joins one public room per commodity
- UnsubscribeMarketHandler: Leaves market rooms selectively
- SubscribeOrdersHandler: Joins the user's order updates room
- SubscribeComplianceHandler: Joins the user's compliance room
- SubscribeArbitrageHandler: Joins the user's arbitrage room and, with a
  region given, the region-wide room
- PingHandler: Replies pong with the server time

User-scoped subscriptions are authorized against the authenticated
identity: a userId that does not match gets a subscription-error reply
and no membership change.

Usage:

	dispatcher := messaging.NewDispatcher(log)
	dispatcher.Register(messaging.NewAuthenticateHandler(reg, store, log))
	dispatcher.Register(messaging.NewPingHandler(reg))
	// ... register other handlers ...

	// Dispatch a message read off a client socket
	err := dispatcher.Dispatch(conn, message)
*/
package messaging
