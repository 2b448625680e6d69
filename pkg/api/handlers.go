package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akramahmed1/quantenergx-gateway/pkg/health"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/registry"
	"github.com/akramahmed1/quantenergx-gateway/pkg/router"
	"github.com/akramahmed1/quantenergx-gateway/pkg/storage"
)

// Handler encapsulates the gateway's REST endpoints
type Handler struct {
	registry *registry.Registry
	router   *router.Router
	store    storage.Store
	monitor  *health.Monitor
	log      *logger.Logger
}

// NewHandler creates a new API handler. store may be nil when session
// persistence is disabled.
func NewHandler(reg *registry.Registry, rtr *router.Router, store storage.Store, monitor *health.Monitor, log *logger.Logger) *Handler {
	return &Handler{
		registry: reg,
		router:   rtr,
		store:    store,
		monitor:  monitor,
		log:      log.Component("api"),
	}
}

// StatsResponse aggregates connection and routing counters
type StatsResponse struct {
	Connections registry.Stats `json:"connections"`
	Router      router.Stats   `json:"router"`
	Sessions    *SessionCounts `json:"sessions,omitempty"`
}

// SessionCounts reports persisted session totals
type SessionCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// HandleHealth returns gateway health. An unhealthy component pushes the
// HTTP status to 503 so load balancers can react.
func (h *Handler) HandleHealth(c *gin.Context) {
	current := h.monitor.GetHealth(h.registry.Stats().ConnectedCount)

	status := http.StatusOK
	if current.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	RespondJSON(c, status, current)
}

// HandleStats returns connection registry and router counters
func (h *Handler) HandleStats(c *gin.Context) {
	resp := StatsResponse{
		Connections: h.registry.Stats(),
		Router:      h.router.Stats(),
	}

	if h.store != nil {
		total, active, err := h.store.CountSessions()
		if err != nil {
			h.log.ErrorWithErr("failed to count sessions", err)
		} else {
			resp.Sessions = &SessionCounts{Total: total, Active: active}
		}
	}

	RespondSuccess(c, resp, "")
}

// HandleSessions returns currently connected sessions from the store
func (h *Handler) HandleSessions(c *gin.Context) {
	if h.store == nil {
		RespondSuccess(c, []*storage.Session{}, "session store disabled")
		return
	}

	sessions, err := h.store.ActiveSessions()
	if err != nil {
		h.log.ErrorWithErr("failed to list sessions", err)
		RespondError(c, http.StatusInternalServerError, ErrInternalServer)
		return
	}
	if sessions == nil {
		sessions = []*storage.Session{}
	}

	RespondSuccess(c, sessions, "")
}

// RegisterRoutes registers the REST routes on the Gin engine
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", h.HandleHealth)

	v1 := engine.Group("/api/v1")
	v1.GET("/stats", h.HandleStats)
	v1.GET("/sessions", h.HandleSessions)
}
