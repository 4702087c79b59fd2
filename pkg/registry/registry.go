// Package registry holds the process-wide mapping from benchmark-run
// identity to its current state. Entries are created on start, read by
// status queries, and retained until explicitly reset.
package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wablabs/vectorbench/pkg/benchmark"
	"github.com/wablabs/vectorbench/pkg/progress"
	"github.com/wablabs/vectorbench/pkg/sysinfo"
)

// RunConfig is the requested configuration of one benchmark run.
type RunConfig struct {
	Runs             int      `json:"runs"`
	Categories       []string `json:"categories"`
	FailureThreshold float64  `json:"failure_threshold"`
}

// StateView is a consistent copy of a run's state for status queries.
type StateView struct {
	BenchmarkID string                            `json:"benchmark_id"`
	Status      benchmark.Status                  `json:"status"`
	Config      RunConfig                         `json:"config"`
	StartedAt   time.Time                         `json:"started_at"`
	CompletedAt *time.Time                        `json:"completed_at,omitempty"`
	Progress    int                               `json:"progress"`
	Failed      int                               `json:"failed"`
	Total       int                               `json:"total"`
	LastMessage string                            `json:"last_message"`
	Error       string                            `json:"error,omitempty"`
	Results     []*benchmark.RunRecord            `json:"results"`
	Summary     map[string]*benchmark.StatSummary `json:"summary,omitempty"`
	Host        *sysinfo.Snapshot                 `json:"host,omitempty"`
}

// Run is one registry entry. All mutation goes through the orchestrator
// goroutine owning the run identity; concurrent readers use the per-entry
// RWMutex held by every accessor.
type Run struct {
	id          string
	cfg         RunConfig
	total       int
	broadcaster *progress.Broadcaster
	stopped     atomic.Bool

	mu          sync.RWMutex
	status      benchmark.Status
	startedAt   time.Time
	completedAt *time.Time
	records     []*benchmark.RunRecord
	lastSnap    benchmark.ProgressSnapshot
	failed      int
	errMsg      string
	summary     map[string]*benchmark.StatSummary
	host        *sysinfo.Snapshot
}

// ID returns the benchmark run identity.
func (r *Run) ID() string { return r.id }

// Config returns the requested configuration.
func (r *Run) Config() RunConfig { return r.cfg }

// Total returns the fixed total step count for this run.
func (r *Run) Total() int { return r.total }

// Broadcaster returns the progress broadcaster for this run.
func (r *Run) Broadcaster() *progress.Broadcaster { return r.broadcaster }

// RequestStop marks the run for cooperative cancellation. The orchestrator
// observes the flag between pipeline invocations, never mid-call.
func (r *Run) RequestStop() { r.stopped.Store(true) }

// StopRequested reports whether cancellation has been requested.
func (r *Run) StopRequested() bool { return r.stopped.Load() }

// SetHost attaches the captured host snapshot.
func (r *Run) SetHost(host *sysinfo.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.host = host
}

// AppendRecord appends one validated measurement to the run.
func (r *Run) AppendRecord(rec *benchmark.RunRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
}

// CountFailure increments the skipped-pair counter and returns the new count.
func (r *Run) CountFailure() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failed++

	return r.failed
}

// StoreSnapshot records the latest snapshot and publishes it to the
// broadcaster in one step, keeping state and stream consistent.
func (r *Run) StoreSnapshot(snap benchmark.ProgressSnapshot) {
	r.mu.Lock()
	r.lastSnap = snap
	r.status = snap.Status
	r.mu.Unlock()

	r.broadcaster.Publish(snap)
}

// LastSnapshot returns the most recently stored snapshot.
func (r *Run) LastSnapshot() benchmark.ProgressSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastSnap
}

// Records returns a copy of the accumulated record list.
func (r *Run) Records() []*benchmark.RunRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*benchmark.RunRecord, len(r.records))
	copy(out, r.records)

	return out
}

// Finalize stores the terminal summary and error message. The terminal
// snapshot itself still goes through StoreSnapshot.
func (r *Run) Finalize(summary map[string]*benchmark.StatSummary, errMsg string) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary = summary
	r.errMsg = errMsg
	r.completedAt = &now
}

// View returns a consistent copy of the run state.
func (r *Run) View() *StateView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*benchmark.RunRecord, len(r.records))
	copy(records, r.records)

	return &StateView{
		BenchmarkID: r.id,
		Status:      r.status,
		Config:      r.cfg,
		StartedAt:   r.startedAt,
		CompletedAt: r.completedAt,
		Progress:    r.lastSnap.Progress,
		Failed:      r.failed,
		Total:       r.total,
		LastMessage: r.lastSnap.LastMessage,
		Error:       r.errMsg,
		Results:     records,
		Summary:     r.summary,
		Host:        r.host,
	}
}

// Registry is the process-wide run table.
type Registry struct {
	log logrus.FieldLogger

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRegistry creates an empty run registry.
func NewRegistry(log logrus.FieldLogger) *Registry {
	return &Registry{
		log:  log.WithField("component", "registry"),
		runs: make(map[string]*Run, 4),
	}
}

// Create allocates a new run entry in running state with a generated
// identity and the fixed total step count.
func (g *Registry) Create(cfg RunConfig, total int) *Run {
	run := &Run{
		id:          uuid.NewString(),
		cfg:         cfg,
		total:       total,
		broadcaster: progress.NewBroadcaster(0),
		status:      benchmark.StatusRunning,
		startedAt:   time.Now().UTC(),
		records:     make([]*benchmark.RunRecord, 0, total),
	}

	g.mu.Lock()
	g.runs[run.id] = run
	g.mu.Unlock()

	g.log.WithFields(logrus.Fields{
		"benchmark_id": run.id,
		"total":        total,
	}).Info("Benchmark run registered")

	return run
}

// Get returns the run for the given identity.
func (g *Registry) Get(id string) (*Run, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	run, ok := g.runs[id]

	return run, ok
}

// Reset removes the entry for the given identity. Returns false when the
// identity is unknown.
func (g *Registry) Reset(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.runs[id]; !ok {
		return false
	}

	delete(g.runs, id)
	g.log.WithField("benchmark_id", id).Info("Benchmark run reset")

	return true
}
