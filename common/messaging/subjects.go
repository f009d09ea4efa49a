package messaging

// Subjects are named {domain}.{kind}.{resource}.
const (
	// SubjectKPIJobsHostDetails receives host KPI job requests.
	SubjectKPIJobsHostDetails = "kpi.jobs.host_details"

	// SubjectKPIResultsHostDetails prefixes per-job result subjects.
	SubjectKPIResultsHostDetails = "kpi.results.host_details"

	SubjectHealthPing = "_HEALTH.ping"
)

// QueueKPIWorkers is the queue group shared by KPI service replicas.
const QueueKPIWorkers = "kpi-workers"

// Headers set on published job results.
const (
	HeaderJobID   = "Kpi-Job-Id"
	HeaderOutcome = "Kpi-Outcome"
)

// HostDetailsResultSubject returns the result subject of one job, e.g.
// kpi.results.host_details.abc123.
func HostDetailsResultSubject(jobID string) string {
	return SubjectKPIResultsHostDetails + "." + jobID
}
