package server

import (
	"time"

	"github.com/akramahmed1/quantenergx-gateway/pkg/bridge"
	"github.com/akramahmed1/quantenergx-gateway/pkg/broker"
	"github.com/akramahmed1/quantenergx-gateway/pkg/config"
	"github.com/akramahmed1/quantenergx-gateway/pkg/demo"
	"github.com/akramahmed1/quantenergx-gateway/pkg/health"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/messaging"
	"github.com/akramahmed1/quantenergx-gateway/pkg/ratelimit"
	"github.com/akramahmed1/quantenergx-gateway/pkg/registry"
	"github.com/akramahmed1/quantenergx-gateway/pkg/router"
	"github.com/akramahmed1/quantenergx-gateway/pkg/storage"
)

// Services holds all major application services for dependency injection
type Services struct {
	Config     *config.Config
	Logger     *logger.Logger
	Store      storage.Store
	Registry   *registry.Registry
	Limiter    *ratelimit.Limiter
	Router     *router.Router
	Dispatcher messaging.Dispatcher
	Broker     broker.Client
	Bridge     *bridge.Bridge
	Demo       *demo.Source
	Monitor    *health.Monitor
}

// NewServices creates and wires all services. Store and broker failures are
// not fatal: the gateway starts degraded and still serves socket traffic.
func NewServices(cfg *config.Config) (*Services, error) {
	log := logger.Get()
	monitor := health.NewMonitor()

	log.InfoWith("initializing services", "config", cfg.String())

	// Session store, optional
	var store storage.Store
	if cfg.Database.Enabled {
		s, err := storage.NewStore(cfg.Database)
		if err != nil {
			log.ErrorWithErr("failed to initialize session store, continuing without persistence", err)
			monitor.SetComponentStatus("database", health.StatusDegraded, "unavailable")
		} else {
			store = s
			monitor.SetComponentStatus("database", health.StatusHealthy, cfg.Database.Type)
		}
	} else {
		monitor.SetComponentStatus("database", health.StatusHealthy, "disabled")
	}

	// Connection registry and alert router
	reg := registry.NewRegistry(cfg.Limits.SendBuffer, log)
	limiter := ratelimit.NewLimiter(cfg.Limits.MarketRate, cfg.Limits.MarketBurst)
	rtr := router.NewRouter(reg, limiter, log)

	// Broker client, optional. Without one the bridge stays idle and the
	// gateway serves subscriptions with no live events.
	var client broker.Client
	if cfg.Broker.Enabled {
		c, err := broker.DialAMQP(broker.AMQPConfig{
			URL:             cfg.Broker.URL,
			Exchange:        cfg.Broker.Exchange,
			ConnectAttempts: cfg.Broker.ConnectAttempts,
			ConnectDelay:    time.Duration(cfg.Broker.ConnectDelay) * time.Second,
		}, log)
		if err != nil {
			log.ErrorWithErr("broker connection failed, live events disabled", err)
			monitor.SetComponentStatus("broker", health.StatusDegraded, "connection failed")
		} else {
			client = c
			monitor.SetComponentStatus("broker", health.StatusHealthy, "connected")
		}
	} else {
		monitor.SetComponentStatus("broker", health.StatusHealthy, "not configured")
	}

	b := bridge.NewBridge(client, rtr, log)

	// Socket event dispatcher
	dispatcher := messaging.NewDispatcher(log)
	var sessions messaging.SessionRecorder
	if store != nil {
		sessions = store
	}
	registerHandlers(dispatcher, reg, sessions, log)

	// Synthetic event source, optional
	var demoSource *demo.Source
	if cfg.Demo.Enabled {
		demoSource = demo.NewSource(rtr, cfg.Demo, log)
	}

	log.InfoWith("services initialized successfully")

	return &Services{
		Config:     cfg,
		Logger:     log,
		Store:      store,
		Registry:   reg,
		Limiter:    limiter,
		Router:     rtr,
		Dispatcher: dispatcher,
		Broker:     client,
		Bridge:     b,
		Demo:       demoSource,
		Monitor:    monitor,
	}, nil
}

// registerHandlers wires every socket event handler into the dispatcher
func registerHandlers(d messaging.Dispatcher, rooms messaging.Rooms, sessions messaging.SessionRecorder, log *logger.Logger) {
	d.Register(messaging.NewAuthenticateHandler(rooms, sessions, log))
	d.Register(messaging.NewJoinTradingHandler(rooms))
	d.Register(messaging.NewSubscribeMarketHandler(rooms))
	d.Register(messaging.NewUnsubscribeMarketHandler(rooms))
	d.Register(messaging.NewSubscribeOrdersHandler(rooms))
	d.Register(messaging.NewSubscribeComplianceHandler(rooms))
	d.Register(messaging.NewSubscribeArbitrageHandler(rooms))
	d.Register(messaging.NewPingHandler(rooms))
}
