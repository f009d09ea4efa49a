package models

// HealthResponse is emitted for liveness probes.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	NATS          *NATSHealthStatus `json:"nats,omitempty"`
}

// NATSHealthStatus represents the health state of the NATS connection.
type NATSHealthStatus struct {
	Connected bool   `json:"connected"`
	Latency   int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ReadyResponse is emitted for readiness probes.
type ReadyResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
	Error string `json:"error,omitempty"`
}
