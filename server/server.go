package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/akramahmed1/quantenergx-gateway/pkg/api"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/middleware"
)

// Server is the gateway's HTTP front: one WebSocket endpoint for push
// clients plus a small REST surface for operations.
type Server struct {
	services *Services
	log      *logger.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
	serverMu   sync.Mutex
	started    bool
	startedMu  sync.Mutex
}

// NewServer creates a server around an initialized service container
func NewServer(services *Services) *Server {
	cfg := services.Config

	return &Server{
		services: services,
		log:      services.Logger.Component("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.Server.ReadBufferSize,
			WriteBufferSize: cfg.Server.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
		},
	}
}

// originChecker builds the upgrade origin check from the configured allow
// list. Requests without an Origin header (non-browser clients) pass.
func originChecker(allowedOrigins []string) func(*http.Request) bool {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// setupRoutes builds the Gin engine with middleware and all routes
func (s *Server) setupRoutes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	_ = engine.SetTrustedProxies([]string{"127.0.0.1"})

	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(s.log))
	engine.Use(middleware.CORS(s.services.Config.Server.AllowedOrigins))

	// WebSocket endpoint for push clients
	engine.GET("/ws", s.handleWebSocket)

	// REST surface for operations
	apiHandler := api.NewHandler(s.services.Registry, s.services.Router,
		s.services.Store, s.services.Monitor, s.services.Logger)
	apiHandler.RegisterRoutes(engine)

	return engine
}

// Start runs the HTTP server. It blocks until the listener stops.
func (s *Server) Start() error {
	s.startedMu.Lock()
	if s.started {
		s.startedMu.Unlock()
		return nil
	}
	s.started = true
	s.startedMu.Unlock()

	server := &http.Server{
		Addr:    s.services.Config.Server.Address(),
		Handler: s.setupRoutes(),
	}

	s.serverMu.Lock()
	s.httpServer = server
	s.serverMu.Unlock()

	s.log.InfoWith("server listening", "address", server.Addr)
	return server.ListenAndServe()
}

// Shutdown stops event intake, drains the HTTP server, drops socket
// connections and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.InfoWith("initiating graceful shutdown")

	s.startedMu.Lock()
	s.started = false
	s.startedMu.Unlock()

	// Stop producing and consuming events before dropping clients
	if s.services.Demo != nil {
		s.services.Demo.Stop()
	}
	if s.services.Broker != nil {
		if err := s.services.Broker.Close(); err != nil {
			s.log.WarnWith("error closing broker client", "error", err)
		}
	}

	s.serverMu.Lock()
	httpServer := s.httpServer
	s.serverMu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.log.ErrorWithErr("error shutting down http server", err)
			httpServer.Close()
		}
	}

	s.services.Registry.Stop()

	if s.services.Store != nil {
		if err := s.services.Store.Close(); err != nil {
			s.log.WarnWith("error closing session store", "error", err)
		}
	}

	s.log.InfoWith("graceful shutdown complete")
	return nil
}
