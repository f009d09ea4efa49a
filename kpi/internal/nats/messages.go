// Package nats provides NATS message handling for the KPI service.
package nats

import "github.com/telhawk-systems/telhawk-kpi/kpi/internal/models"

// HostDetailsJobRequest is the message format for the kpi.jobs.host_details
// subject. A missing job ID is filled in by the worker.
type HostDetailsJobRequest struct {
	JobID string `json:"job_id"`
	models.HostDetailsRequest
}

// HostDetailsJobResponse is sent to the reply subject and published on the
// job's result subject.
type HostDetailsJobResponse struct {
	JobID     string                     `json:"job_id"`
	Success   bool                       `json:"success"`
	Error     string                     `json:"error,omitempty"`
	ErrorCode string                     `json:"error_code,omitempty"`
	Result    *models.KpiHostDetailsData `json:"result,omitempty"`
	TookMs    int64                      `json:"took_ms"`
}
