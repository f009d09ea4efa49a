package logging

import "log/slog"

// Common field names for consistent logging across components.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldUserID    = "user_id"
	FieldHost      = "host"
	FieldSource    = "source"
	FieldIP        = "client_ip"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldJobID     = "job_id"
	FieldOutcome   = "outcome"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Component returns a slog attribute naming the emitting component.
func Component(name string) slog.Attr {
	return slog.String(FieldComponent, name)
}

// UserID returns a slog attribute for the user ID.
func UserID(id string) slog.Attr {
	return slog.String(FieldUserID, id)
}

// Host returns a slog attribute for the host whose KPIs are computed.
func Host(name string) slog.Attr {
	return slog.String(FieldHost, name)
}

// Source returns a slog attribute for a source ID.
func Source(id string) slog.Attr {
	return slog.String(FieldSource, id)
}

// IP returns a slog attribute for the client IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// JobID returns a slog attribute for a NATS job ID.
func JobID(id string) slog.Attr {
	return slog.String(FieldJobID, id)
}

// Outcome returns a slog attribute for a request outcome code.
func Outcome(code string) slog.Attr {
	return slog.String(FieldOutcome, code)
}
