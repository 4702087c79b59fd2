package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wablabs/vectorbench/pkg/benchmark"
	"github.com/wablabs/vectorbench/pkg/registry"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCatalog returns the workload catalog.
func (s *server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.catalog.Categories(),
	})
}

// startRequest is the benchmark start payload.
type startRequest struct {
	Runs             int      `json:"runs"`
	Categories       []string `json:"categories"`
	FailureThreshold float64  `json:"failure_threshold,omitempty"`
}

// startResponse acknowledges a started benchmark.
type startResponse struct {
	BenchmarkID string `json:"benchmark_id"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

// handleStart validates the request and launches a benchmark run.
func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request body"})

		return
	}

	// Benchmarks run past the lifetime of the start request.
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := s.orchestrator.Start(ctx, registry.RunConfig{
		Runs:             req.Runs,
		Categories:       req.Categories,
		FailureThreshold: req.FailureThreshold,
	})
	if err != nil {
		if errors.Is(err, benchmark.ErrInvalidConfig) {
			writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

			return
		}

		s.log.WithError(err).Error("Failed to start benchmark")
		writeJSON(w, http.StatusInternalServerError, errorResponse{"failed to start benchmark"})

		return
	}

	writeJSON(w, http.StatusOK, startResponse{
		BenchmarkID: id,
		Status:      "started",
		Message: fmt.Sprintf(
			"Benchmark started with %d runs for categories: %s",
			req.Runs, strings.Join(req.Categories, ", "),
		),
	})
}

// handleStatus returns the full state of a benchmark run, including all
// records and, once terminal, the statistics summary.
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	run, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{"benchmark not found"})

		return
	}

	writeJSON(w, http.StatusOK, run.View())
}

// handleReset stops a benchmark if still running and removes its registry
// entry.
func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, ok := s.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{"benchmark not found"})

		return
	}

	if !run.View().Status.Terminal() {
		s.orchestrator.Stop(id)
	}

	s.registry.Reset(id)

	writeJSON(w, http.StatusOK, map[string]string{
		"benchmark_id": id,
		"status":       "reset",
	})
}
