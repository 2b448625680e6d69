package health

import (
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Name        string      `json:"name"`
	Status      Status      `json:"status"`
	Description string      `json:"description,omitempty"`
	LastChecked time.Time   `json:"last_checked"`
	Details     interface{} `json:"details,omitempty"`
}

// GatewayHealth represents overall gateway health
type GatewayHealth struct {
	Status            Status            `json:"status"`
	Uptime            int64             `json:"uptime_seconds"`
	Timestamp         time.Time         `json:"timestamp"`
	ActiveConnections int               `json:"active_connections"`
	Goroutines        int               `json:"goroutines"`
	MemoryMB          uint64            `json:"memory_mb"`
	SystemCPUPercent  float64           `json:"system_cpu_percent"`
	SystemMemPercent  float64           `json:"system_mem_percent"`
	Components        []ComponentHealth `json:"components"`
}

// Monitor tracks gateway health metrics
type Monitor struct {
	startTime  time.Time
	mu         sync.RWMutex
	components map[string]*ComponentHealth
}

// NewMonitor creates a new health monitor
func NewMonitor() *Monitor {
	return &Monitor{
		startTime:  time.Now(),
		components: make(map[string]*ComponentHealth),
	}
}

// SetComponentStatus updates the status of a component
func (m *Monitor) SetComponentStatus(name string, status Status, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = &ComponentHealth{
		Name:        name,
		Status:      status,
		Description: description,
		LastChecked: time.Now(),
	}
}

// SetComponentStatusWithDetails updates component status with additional details
func (m *Monitor) SetComponentStatusWithDetails(name string, status Status, description string, details interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = &ComponentHealth{
		Name:        name,
		Status:      status,
		Description: description,
		LastChecked: time.Now(),
		Details:     details,
	}
}

// GetHealth returns the current gateway health. The overall status is the
// worst status reported by any component.
func (m *Monitor) GetHealth(activeConnections int) *GatewayHealth {
	m.mu.RLock()
	components := make([]ComponentHealth, 0, len(m.components))
	overallStatus := StatusHealthy
	for _, comp := range m.components {
		components = append(components, *comp)
		if comp.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
		} else if comp.Status == StatusDegraded && overallStatus == StatusHealthy {
			overallStatus = StatusDegraded
		}
	}
	m.mu.RUnlock()

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	cpuPct, memPct := systemStats()

	return &GatewayHealth{
		Status:            overallStatus,
		Uptime:            int64(time.Since(m.startTime).Seconds()),
		Timestamp:         time.Now(),
		ActiveConnections: activeConnections,
		Goroutines:        runtime.NumGoroutine(),
		MemoryMB:          stats.Alloc / 1024 / 1024,
		SystemCPUPercent:  cpuPct,
		SystemMemPercent:  memPct,
		Components:        components,
	}
}

// systemStats samples host CPU and memory usage. Values are best effort;
// a failed probe leaves the stat at zero.
func systemStats() (float64, float64) {
	var cpuPct, memPct float64

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPct = percents[0]
	}

	if memStats, err := mem.VirtualMemory(); err == nil && memStats != nil {
		memPct = memStats.UsedPercent
	}

	return cpuPct, memPct
}
