// Package orchestrator sequences benchmark runs: it expands a start request
// into (workload, run) steps, drives the pipeline through them, tracks
// failures against the abort threshold, and publishes progress throughout.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wablabs/vectorbench/pkg/benchmark"
	"github.com/wablabs/vectorbench/pkg/catalog"
	"github.com/wablabs/vectorbench/pkg/pipeline"
	"github.com/wablabs/vectorbench/pkg/registry"
	"github.com/wablabs/vectorbench/pkg/sysinfo"
)

// ExportFunc receives the terminal state of a finished run, e.g. to write
// result files or upload them. Export failures never fail the run.
type ExportFunc func(view *registry.StateView)

// Config contains orchestrator settings.
type Config struct {
	// FailureThreshold is the default fraction of total steps that may be
	// skipped before the run aborts. A start request may override it.
	FailureThreshold float64
}

// Orchestrator owns the lifecycle of benchmark runs.
type Orchestrator struct {
	log      logrus.FieldLogger
	cfg      Config
	registry *registry.Registry
	catalog  *catalog.Catalog
	pipe     pipeline.Pipeline
	export   ExportFunc
}

// New creates an orchestrator. export may be nil.
func New(
	log logrus.FieldLogger,
	cfg Config,
	reg *registry.Registry,
	cat *catalog.Catalog,
	pipe pipeline.Pipeline,
	export ExportFunc,
) *Orchestrator {
	return &Orchestrator{
		log:      log.WithField("component", "orchestrator"),
		cfg:      cfg,
		registry: reg,
		catalog:  cat,
		pipe:     pipe,
		export:   export,
	}
}

// Start validates the request, registers the run, publishes the initial
// snapshot, and launches execution in the background. The returned identity
// is immediately valid for status queries and stream subscriptions.
func (o *Orchestrator) Start(ctx context.Context, cfg registry.RunConfig) (string, error) {
	if cfg.Runs < 1 || cfg.Runs > 100 {
		return "", fmt.Errorf("%w: runs must be between 1 and 100, got %d", benchmark.ErrInvalidConfig, cfg.Runs)
	}

	if len(cfg.Categories) == 0 {
		return "", fmt.Errorf("%w: at least one category is required", benchmark.ErrInvalidConfig)
	}

	refs := o.catalog.Resolve(cfg.Categories)
	if len(refs) == 0 {
		return "", fmt.Errorf("%w: no workloads in categories %v", benchmark.ErrInvalidConfig, cfg.Categories)
	}

	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = o.cfg.FailureThreshold
	}

	if cfg.FailureThreshold < 0 || cfg.FailureThreshold > 1 {
		return "", fmt.Errorf("%w: failure threshold must be in [0,1], got %v", benchmark.ErrInvalidConfig, cfg.FailureThreshold)
	}

	total := cfg.Runs * len(refs)
	run := o.registry.Create(cfg, total)

	if host, err := sysinfo.Capture(); err == nil {
		run.SetHost(host)
	} else {
		o.log.WithError(err).Warn("Failed to capture host snapshot")
	}

	// The initial snapshot goes out before Start returns so an immediate
	// stream subscriber never sees an empty state.
	run.StoreSnapshot(benchmark.ProgressSnapshot{
		BenchmarkID: run.ID(),
		Status:      benchmark.StatusRunning,
		Progress:    0,
		Total:       total,
		LastMessage: fmt.Sprintf("Benchmark started: %d workloads x %d runs", len(refs), cfg.Runs),
		Timestamp:   time.Now().UTC(),
	})

	o.log.WithFields(logrus.Fields{
		"benchmark_id": run.ID(),
		"workloads":    len(refs),
		"runs":         cfg.Runs,
		"total":        total,
	}).Info("Benchmark run starting")

	go o.execute(ctx, run, refs)

	return run.ID(), nil
}

// Stop requests cooperative cancellation of a running benchmark. The flag
// is observed between pipeline steps; the step in flight completes.
func (o *Orchestrator) Stop(id string) bool {
	run, ok := o.registry.Get(id)
	if !ok {
		return false
	}

	run.RequestStop()
	o.log.WithField("benchmark_id", id).Info("Benchmark stop requested")

	return true
}

// execute runs every (workload, run) step in order. It owns all mutation of
// the run entry; readers go through the registry.
func (o *Orchestrator) execute(ctx context.Context, run *registry.Run, refs []catalog.WorkloadRef) {
	cfg := run.Config()
	total := run.Total()
	entry := o.log.WithField("benchmark_id", run.ID())

	var (
		attempted int
		completed int
	)

	for _, ref := range refs {
		for idx := 1; idx <= cfg.Runs; idx++ {
			if run.StopRequested() {
				entry.Info("Benchmark cancelled between steps")
				o.finish(run, benchmark.StatusFailed, completed, benchmark.ErrCancelled.Error())

				return
			}

			if ctx.Err() != nil {
				entry.Info("Benchmark context cancelled")
				o.finish(run, benchmark.StatusFailed, completed, benchmark.ErrCancelled.Error())

				return
			}

			stepMsg := fmt.Sprintf("%s run %d/%d", ref.Name, idx, cfg.Runs)

			report := func(phase string, frac float64, message string) {
				run.StoreSnapshot(benchmark.ProgressSnapshot{
					BenchmarkID: run.ID(),
					Status:      benchmark.StatusRunning,
					Progress:    completed,
					Total:       total,
					Phase:       phase,
					SubProgress: frac,
					OverallPct:  overallPct(attempted, frac, total),
					LastMessage: stepMsg + ": " + message,
					Timestamp:   time.Now().UTC(),
				})
			}

			result, err := o.pipe.Run(ctx, ref, idx, report)
			if err == nil {
				var rec *benchmark.RunRecord

				rec, err = benchmark.Collect(ref.Name, ref.Category, idx, result)
				if err == nil {
					run.AppendRecord(rec)
				}
			}

			attempted++

			if err != nil {
				failed := run.CountFailure()
				entry.WithError(err).WithFields(logrus.Fields{
					"workload": ref.Name,
					"run":      idx,
					"failed":   failed,
				}).Warn("Benchmark step failed, skipping")

				run.StoreSnapshot(benchmark.ProgressSnapshot{
					BenchmarkID: run.ID(),
					Status:      benchmark.StatusRunning,
					Progress:    completed,
					Total:       total,
					OverallPct:  overallPct(attempted, 0, total),
					LastMessage: stepMsg + " failed, skipped",
					Timestamp:   time.Now().UTC(),
				})

				if float64(failed) > cfg.FailureThreshold*float64(total) {
					entry.WithField("failed", failed).Error("Failure threshold exceeded, aborting benchmark")
					o.finish(run, benchmark.StatusFailed, completed,
						fmt.Sprintf("%s: %d of %d steps failed", benchmark.ErrFailureThresholdExceeded.Error(), failed, total))

					return
				}

				continue
			}

			completed++

			run.StoreSnapshot(benchmark.ProgressSnapshot{
				BenchmarkID: run.ID(),
				Status:      benchmark.StatusRunning,
				Progress:    completed,
				Total:       total,
				OverallPct:  overallPct(attempted, 0, total),
				LastMessage: stepMsg + " completed",
				Timestamp:   time.Now().UTC(),
			})
		}
	}

	entry.WithFields(logrus.Fields{
		"completed": completed,
		"total":     total,
	}).Info("Benchmark run finished")

	o.finish(run, benchmark.StatusCompleted, completed, "")
}

// finish computes the summary, stores the terminal state, and publishes the
// terminal snapshot exactly once. The snapshot itself carries no results;
// clients fetch those via the status query.
func (o *Orchestrator) finish(run *registry.Run, status benchmark.Status, completed int, errMsg string) {
	summary := benchmark.Summarize(run.Records())
	run.Finalize(summary, errMsg)

	message := "Benchmark finished"
	if errMsg != "" {
		message = errMsg
	}

	run.StoreSnapshot(benchmark.ProgressSnapshot{
		BenchmarkID: run.ID(),
		Status:      status,
		Progress:    completed,
		Total:       run.Total(),
		OverallPct:  100,
		LastMessage: message,
		Timestamp:   time.Now().UTC(),
	})

	if o.export != nil {
		o.export(run.View())
	}
}

// overallPct maps attempted steps plus the in-flight fraction onto [0,100].
func overallPct(attempted int, frac float64, total int) float64 {
	if total == 0 {
		return 0
	}

	pct := (float64(attempted) + frac) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}

	return pct
}
