package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // waiting for a worker
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOCROK   JobStatus = "OCR_OK"  // stage 1 completed (text extracted)
	JobStatusParsed  JobStatus = "PARSED"  // stage 2 completed (fields extracted)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// ReportFormat is an output format of the batch exporter.
type ReportFormat string

const (
	ReportXLSX ReportFormat = "xlsx"
	ReportJSON ReportFormat = "json"
	ReportCSV  ReportFormat = "csv"
	ReportTXT  ReportFormat = "txt"
)

// ReportFormats lists every supported ReportFormat.
var ReportFormats = []string{string(ReportXLSX), string(ReportJSON), string(ReportCSV), string(ReportTXT)}
