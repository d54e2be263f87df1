package apiclient

import "context"

// HealthStatus is the data reported by GET /health.
type HealthStatus struct {
	Service        string `json:"service"`
	ActiveSessions int    `json:"active_sessions"`
	MaxSessions    int    `json:"max_sessions"`
	Uptime         string `json:"uptime"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
}

// Health queries the liveness endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var hs HealthStatus
	if err := c.get(ctx, "/health", &hs); err != nil {
		return nil, err
	}
	return &hs, nil
}

// Ready queries the readiness endpoint. A full or stopped server yields an
// *APIError whose IsUnavailable reports true.
func (c *Client) Ready(ctx context.Context) error {
	return c.get(ctx, "/health/ready", nil)
}
