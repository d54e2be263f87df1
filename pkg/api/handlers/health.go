package handlers

import (
	"net/http"
	"time"
)

// StatusProvider reports the live state of the file server.
//
// *fshare.Adapter satisfies it.
type StatusProvider interface {
	ActiveSessions() int
	MaxSessions() int
	Uptime() time.Duration
}

// HealthHandler serves the unauthenticated health endpoints.
type HealthHandler struct {
	service string
	status  StatusProvider
}

// NewHealthHandler creates a health handler. status may be nil, in which case
// readiness always reports unhealthy.
func NewHealthHandler(service string, status StatusProvider) *HealthHandler {
	return &HealthHandler{service: service, status: status}
}

// SessionStats is the payload of GET /health/ready.
type SessionStats struct {
	ActiveSessions int    `json:"active_sessions"`
	MaxSessions    int    `json:"max_sessions"`
	Uptime         string `json:"uptime"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

// Liveness handles GET /health.
//
// It succeeds whenever the HTTP server answers. When a status provider is
// attached the session counters are included.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"service": h.service}
	if h.status != nil {
		stats := h.stats()
		data["active_sessions"] = stats.ActiveSessions
		data["max_sessions"] = stats.MaxSessions
		data["uptime"] = stats.Uptime
		data["uptime_seconds"] = stats.UptimeSeconds
	}
	writeJSON(w, http.StatusOK, healthyResponse(data))
}

// Readiness handles GET /health/ready.
//
// Returns 503 when no file server is attached or when every session slot is
// taken, since a new client would be disconnected immediately.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("file server not running"))
		return
	}

	stats := h.stats()
	if stats.MaxSessions > 0 && stats.ActiveSessions >= stats.MaxSessions {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("session capacity reached"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(stats))
}

func (h *HealthHandler) stats() SessionStats {
	up := h.status.Uptime().Truncate(time.Second)
	return SessionStats{
		ActiveSessions: h.status.ActiveSessions(),
		MaxSessions:    h.status.MaxSessions(),
		Uptime:         up.String(),
		UptimeSeconds:  int64(up / time.Second),
	}
}
