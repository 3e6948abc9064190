package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthStatus represents the overall health of the system
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the health of an individual component
type ComponentStatus string

const (
	ComponentStatusUp   ComponentStatus = "up"
	ComponentStatusDown ComponentStatus = "down"
)

// Health is the /health response body
type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth describes one dependency check
type ComponentHealth struct {
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs float64         `json:"latency_ms,omitempty"`
}

func (s *Server) checkComponent(ctx context.Context, probe func(context.Context) error) ComponentHealth {
	start := time.Now()
	err := probe(ctx)
	latency := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		return ComponentHealth{Status: ComponentStatusDown, Message: err.Error(), LatencyMs: latency}
	}
	return ComponentHealth{Status: ComponentStatusUp, LatencyMs: latency}
}

// handleHealth reports overall health with per-component detail
// (database and blob storage).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	health := Health{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Components: map[string]ComponentHealth{
			"database": s.checkComponent(ctx, s.db.PingContext),
			"storage":  s.checkComponent(ctx, s.blobs.Ping),
		},
	}

	statusCode := http.StatusOK
	for _, c := range health.Components {
		if c.Status == ComponentStatusDown {
			health.Status = HealthStatusUnhealthy
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady is a readiness probe for load balancers: can we query the
// database?
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		http.Error(w, `{"status":"not_ready","message":"database unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleLive is a liveness probe: the process is running.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}
