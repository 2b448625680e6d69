package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/akramahmed1/quantenergx-gateway/pkg/broker"
	"github.com/akramahmed1/quantenergx-gateway/pkg/config"
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
)

func newTestGateway(t *testing.T) (*Services, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Database.Enabled = false
	cfg.Broker.Enabled = false
	cfg.Demo.Enabled = false

	services, err := NewServices(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	srv := NewServer(services)
	ts := httptest.NewServer(srv.setupRoutes())

	t.Cleanup(func() {
		ts.Close()
		services.Registry.Stop()
	})

	return services, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) *protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg protocol.Message
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	return &msg
}

func sendEvent(t *testing.T, ws *websocket.Conn, event string, data interface{}) {
	t.Helper()
	msg, err := protocol.NewMessage(event, data)
	if err != nil {
		t.Fatalf("Failed to build %s message: %v", event, err)
	}
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// authenticate performs the connect + authenticate handshake and returns
// the connection id assigned by the gateway.
func authenticate(t *testing.T, ws *websocket.Conn, userID string) string {
	t.Helper()

	welcome := readEvent(t, ws)
	if welcome.Event != protocol.EventConnected {
		t.Fatalf("First event = %q, want %q", welcome.Event, protocol.EventConnected)
	}
	var connected protocol.ConnectedPayload
	if err := welcome.ParseData(&connected); err != nil {
		t.Fatalf("Failed to parse connected payload: %v", err)
	}

	sendEvent(t, ws, protocol.EventAuthenticate, protocol.AuthenticatePayload{
		UserID: userID,
		Token:  "test-token",
	})
	reply := readEvent(t, ws)
	if reply.Event != protocol.EventAuthSuccess {
		t.Fatalf("Auth reply = %q, want %q", reply.Event, protocol.EventAuthSuccess)
	}

	return connected.ConnectionID
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestConnectReceivesWelcome(t *testing.T) {
	_, ts := newTestGateway(t)
	ws := dialWS(t, ts)

	msg := readEvent(t, ws)
	if msg.Event != protocol.EventConnected {
		t.Fatalf("Event = %q, want %q", msg.Event, protocol.EventConnected)
	}

	var payload protocol.ConnectedPayload
	if err := msg.ParseData(&payload); err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}
	if payload.ConnectionID == "" {
		t.Error("Expected a connection id in the welcome event")
	}
}

func TestPingPong(t *testing.T) {
	_, ts := newTestGateway(t)
	ws := dialWS(t, ts)
	readEvent(t, ws) // connected

	sendEvent(t, ws, protocol.EventPing, nil)

	msg := readEvent(t, ws)
	if msg.Event != protocol.EventPong {
		t.Errorf("Event = %q, want %q", msg.Event, protocol.EventPong)
	}
}

func TestUnknownEventGetsError(t *testing.T) {
	_, ts := newTestGateway(t)
	ws := dialWS(t, ts)
	readEvent(t, ws) // connected

	sendEvent(t, ws, "bogus-event", nil)

	msg := readEvent(t, ws)
	if msg.Event != protocol.EventError {
		t.Fatalf("Event = %q, want %q", msg.Event, protocol.EventError)
	}
	var payload protocol.ErrorPayload
	if err := msg.ParseData(&payload); err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}
	if !strings.Contains(payload.Message, "unknown event") {
		t.Errorf("Message = %q, want it to name the unknown event", payload.Message)
	}
}

func TestJoinTradingRequiresMatchingUser(t *testing.T) {
	_, ts := newTestGateway(t)
	ws := dialWS(t, ts)
	authenticate(t, ws, "trader-1")

	// Wrong user id is rejected
	sendEvent(t, ws, protocol.EventJoinTrading, protocol.JoinTradingPayload{UserID: "trader-2"})
	reply := readEvent(t, ws)
	if reply.Event != protocol.EventSubscriptionError {
		t.Fatalf("Event = %q, want %q", reply.Event, protocol.EventSubscriptionError)
	}

	// Own user id works
	sendEvent(t, ws, protocol.EventJoinTrading, protocol.JoinTradingPayload{UserID: "trader-1"})
	reply = readEvent(t, ws)
	if reply.Event != protocol.EventTradingJoined {
		t.Fatalf("Event = %q, want %q", reply.Event, protocol.EventTradingJoined)
	}
	var joined protocol.TradingJoinedPayload
	if err := reply.ParseData(&joined); err != nil {
		t.Fatalf("Failed to parse payload: %v", err)
	}
	if joined.Room != "trading-trader-1" {
		t.Errorf("Room = %q, want %q", joined.Room, "trading-trader-1")
	}
}

func TestMarketDataReachesSubscriber(t *testing.T) {
	services, ts := newTestGateway(t)
	ws := dialWS(t, ts)
	readEvent(t, ws) // connected; market rooms need no authentication

	sendEvent(t, ws, protocol.EventSubscribeMarket, protocol.SubscribeMarketPayload{
		Commodities: []string{"crude_oil"},
	})
	reply := readEvent(t, ws)
	if reply.Event != protocol.EventMarketSubscribed {
		t.Fatalf("Event = %q, want %q", reply.Event, protocol.EventMarketSubscribed)
	}

	sent := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := json.RawMessage(`{"commodity":"crude_oil","price":84.5}`)
	if err := services.Router.HandleMarketData(broker.Message{
		Topic:     broker.TopicMarketData,
		Value:     tick,
		Timestamp: sent,
	}); err != nil {
		t.Fatalf("HandleMarketData failed: %v", err)
	}

	msg := readEvent(t, ws)
	if msg.Event != protocol.EventMarketUpdate {
		t.Fatalf("Event = %q, want %q", msg.Event, protocol.EventMarketUpdate)
	}

	var envelope protocol.Envelope
	if err := msg.ParseData(&envelope); err != nil {
		t.Fatalf("Failed to parse envelope: %v", err)
	}
	if envelope.Type != protocol.MarketUpdate {
		t.Errorf("Type = %q, want %q", envelope.Type, protocol.MarketUpdate)
	}
	if !envelope.Timestamp.Equal(sent) {
		t.Errorf("Timestamp = %v, want broker timestamp %v", envelope.Timestamp, sent)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		t.Fatalf("Payload type = %T, want object: %v", envelope.Payload, err)
	}
	if payload["price"] != 84.5 {
		t.Errorf("Payload price = %v, want 84.5", payload["price"])
	}
}

func TestSystemAlertReachesEveryConnection(t *testing.T) {
	services, ts := newTestGateway(t)

	wsA := dialWS(t, ts)
	wsB := dialWS(t, ts)
	readEvent(t, wsA) // connected
	readEvent(t, wsB) // connected; neither joins any room

	waitFor(t, "both connections registered", func() bool {
		return services.Registry.Stats().ConnectedCount == 2
	})

	alert := json.RawMessage(`{"level":"warning","message":"maintenance window"}`)
	if err := services.Router.HandleSystemAlert(broker.Message{
		Topic:     broker.TopicSystemAlerts,
		Value:     alert,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("HandleSystemAlert failed: %v", err)
	}

	for _, ws := range []*websocket.Conn{wsA, wsB} {
		msg := readEvent(t, ws)
		if msg.Event != protocol.EventSystemAlert {
			t.Errorf("Event = %q, want %q", msg.Event, protocol.EventSystemAlert)
		}
	}
}

func TestArbitrageAlertRouting(t *testing.T) {
	services, ts := newTestGateway(t)
	ws := dialWS(t, ts)
	authenticate(t, ws, "trader-1")

	sendEvent(t, ws, protocol.EventSubscribeArbitrage, protocol.SubscribeArbitragePayload{
		UserID: "trader-1",
		Region: "US",
	})
	reply := readEvent(t, ws)
	if reply.Event != protocol.EventArbitrageSubscribed {
		t.Fatalf("Event = %q, want %q", reply.Event, protocol.EventArbitrageSubscribed)
	}

	alert := json.RawMessage(`{"userId":"trader-1","region":"US","spreadPercentage":9.2}`)
	if err := services.Router.HandleArbitrage(broker.Message{
		Topic:     broker.TopicArbitrageOpportunities,
		Value:     alert,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("HandleArbitrage failed: %v", err)
	}

	// Spread above 8 is critical: the alert lands in both the user room and
	// the region room, so the subscriber sees it twice.
	for i := 0; i < 2; i++ {
		msg := readEvent(t, ws)
		if msg.Event != protocol.EventArbitrageAlert {
			t.Fatalf("Event %d = %q, want %q", i, msg.Event, protocol.EventArbitrageAlert)
		}
		var payload map[string]interface{}
		if err := msg.ParseData(&payload); err != nil {
			t.Fatalf("Failed to parse payload: %v", err)
		}
		if payload["spreadPercentage"] != 9.2 {
			t.Errorf("spreadPercentage = %v, want 9.2", payload["spreadPercentage"])
		}
	}
}

func TestDisconnectUpdatesStats(t *testing.T) {
	services, ts := newTestGateway(t)
	ws := dialWS(t, ts)
	readEvent(t, ws) // connected

	waitFor(t, "connection registered", func() bool {
		return services.Registry.Stats().ConnectedCount == 1
	})

	ws.Close()

	waitFor(t, "connection unregistered", func() bool {
		return services.Registry.Stats().ConnectedCount == 0
	})
}
