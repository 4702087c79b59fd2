package benchmark

import "errors"

var (
	// ErrInvalidConfig indicates a start request that cannot produce any work
	// (bad run count, empty or unknown category selection). No state is
	// created when this is returned.
	ErrInvalidConfig = errors.New("invalid benchmark config")

	// ErrMalformedMeasurement indicates a pipeline invocation that produced
	// an unusable result. The offending (workload, run) pair is skipped and
	// counted toward the failure quota.
	ErrMalformedMeasurement = errors.New("malformed measurement")

	// ErrPipelineUnavailable indicates the external pipeline could not
	// complete a step. Handled like a malformed measurement.
	ErrPipelineUnavailable = errors.New("pipeline unavailable")

	// ErrFailureThresholdExceeded indicates the cumulative skipped pairs
	// exceeded the configured fraction and the whole run was aborted.
	ErrFailureThresholdExceeded = errors.New("run failure threshold exceeded")

	// ErrCancelled indicates an explicit stop request was observed between
	// pipeline steps.
	ErrCancelled = errors.New("benchmark cancelled")
)
