package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HealthStatus represents the health state of a messaging connection.
type HealthStatus struct {
	Connected bool          `json:"connected"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
}

// ErrNoResponders is what a broker reports when a request has no
// subscriber. The round trip still proves the connection works.
var ErrNoResponders = errors.New("no responders available for request")

// CheckClientHealth reports whether client is connected and measures the
// latency of a ping request.
func CheckClientHealth(ctx context.Context, client Client) HealthStatus {
	status := HealthStatus{}
	if client == nil {
		status.Error = "client is nil"
		return status
	}

	status.Connected = client.IsConnected()
	if !status.Connected {
		status.Error = "not connected to message broker"
		return status
	}

	start := time.Now()
	_, err := client.Request(ctx, SubjectHealthPing, []byte("ping"), 2*time.Second)
	status.Latency = time.Since(start)

	if err != nil && !errors.Is(err, ErrNoResponders) && !client.IsConnected() {
		status.Connected = false
		status.Error = fmt.Sprintf("health check failed: %v", err)
	}
	return status
}
