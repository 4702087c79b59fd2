package benchmark

import "time"

// Status is the lifecycle state of a benchmark run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// PipelineResult is the raw output of one ingest/query pipeline invocation.
// All timings are milliseconds; counts and sizes are taken at measurement time.
type PipelineResult struct {
	NumChunks int `json:"num_chunks"`

	EmbedMS      float64 `json:"embed_ms"`
	QueryEmbedMS float64 `json:"query_embed_ms"`

	PGWriteMS      float64 `json:"pg_write_ms"`
	PGQueryMS      float64 `json:"pg_query_ms"`
	PGResultCount  int     `json:"pg_result_count"`
	PGSizeMB       float64 `json:"pg_size_mb"`
	DocWriteMS     float64 `json:"doc_write_ms"`
	DocQueryMS     float64 `json:"doc_query_ms"`
	DocResultCount int     `json:"doc_result_count"`
	DocSizeMB      float64 `json:"doc_size_mb"`
}

// RunRecord is one validated measurement for a (workload, run index) pair.
// Immutable after creation; owned by the registry entry of its benchmark run.
type RunRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Workload  string    `json:"workload"`
	Category  string    `json:"category"`
	RunIndex  int       `json:"run_index"`

	NumChunks    int     `json:"num_chunks"`
	EmbedMS      float64 `json:"embed_ms"`
	QueryEmbedMS float64 `json:"query_embed_ms"`

	PGWriteMS      float64 `json:"pg_write_ms"`
	PGQueryMS      float64 `json:"pg_query_ms"`
	PGResultCount  int     `json:"pg_result_count"`
	PGSizeMB       float64 `json:"pg_size_mb"`
	DocWriteMS     float64 `json:"doc_write_ms"`
	DocQueryMS     float64 `json:"doc_query_ms"`
	DocResultCount int     `json:"doc_result_count"`
	DocSizeMB      float64 `json:"doc_size_mb"`
}

// ProgressSnapshot is one point-in-time progress report for a benchmark run.
// Progress never exceeds Total; Total is fixed before the first snapshot.
type ProgressSnapshot struct {
	BenchmarkID string    `json:"benchmark_id"`
	Status      Status    `json:"status"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	Phase       string    `json:"phase,omitempty"`
	SubProgress float64   `json:"sub_progress,omitempty"`
	OverallPct  float64   `json:"overall_progress_pct"`
	LastMessage string    `json:"last_message"`
	Timestamp   time.Time `json:"timestamp"`
}

// Distribution summarizes one measured quantity across runs.
type Distribution struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	IQR    float64 `json:"iqr"`
}

// StatSummary contains the derived statistics for all successful runs of one
// workload. Recomputed wholesale; never mutated in place.
type StatSummary struct {
	Workload string `json:"workload"`
	Category string `json:"category"`
	Samples  int    `json:"samples"`

	NumChunks  Distribution `json:"num_chunks"`
	EmbedMS    Distribution `json:"embed_ms"`
	PGWriteMS  Distribution `json:"pg_write_ms"`
	DocWriteMS Distribution `json:"doc_write_ms"`
	PGQueryMS  Distribution `json:"pg_query_ms"`
	DocQueryMS Distribution `json:"doc_query_ms"`
	PGSizeMB   Distribution `json:"pg_size_mb"`
	DocSizeMB  Distribution `json:"doc_size_mb"`
}
