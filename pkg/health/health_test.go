package health

import (
	"testing"
)

func TestGetHealthDefaults(t *testing.T) {
	monitor := NewMonitor()

	h := monitor.GetHealth(5)
	if h.Status != StatusHealthy {
		t.Errorf("Expected status %s with no components, got %s", StatusHealthy, h.Status)
	}
	if h.ActiveConnections != 5 {
		t.Errorf("Expected 5 active connections, got %d", h.ActiveConnections)
	}
	if h.Goroutines <= 0 {
		t.Error("Goroutine count should be positive")
	}
}

func TestWorstComponentStatusWins(t *testing.T) {
	monitor := NewMonitor()

	monitor.SetComponentStatus("registry", StatusHealthy, "")
	monitor.SetComponentStatus("broker", StatusDegraded, "not configured")

	h := monitor.GetHealth(0)
	if h.Status != StatusDegraded {
		t.Errorf("Expected status %s, got %s", StatusDegraded, h.Status)
	}

	monitor.SetComponentStatus("database", StatusUnhealthy, "connection lost")

	h = monitor.GetHealth(0)
	if h.Status != StatusUnhealthy {
		t.Errorf("Expected status %s, got %s", StatusUnhealthy, h.Status)
	}
	if len(h.Components) != 3 {
		t.Errorf("Expected 3 components, got %d", len(h.Components))
	}
}

func TestSetComponentStatusOverwrites(t *testing.T) {
	monitor := NewMonitor()

	monitor.SetComponentStatus("broker", StatusUnhealthy, "dial failed")
	monitor.SetComponentStatus("broker", StatusHealthy, "connected")

	h := monitor.GetHealth(0)
	if h.Status != StatusHealthy {
		t.Errorf("Expected status %s after recovery, got %s", StatusHealthy, h.Status)
	}
}

func TestComponentDetails(t *testing.T) {
	monitor := NewMonitor()

	monitor.SetComponentStatusWithDetails("bridge", StatusHealthy, "6 topics", map[string]int{"topics": 6})

	h := monitor.GetHealth(0)
	if len(h.Components) != 1 {
		t.Fatalf("Expected 1 component, got %d", len(h.Components))
	}
	if h.Components[0].Details == nil {
		t.Error("Component details should be preserved")
	}
}
