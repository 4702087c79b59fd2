package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wablabs/vectorbench/pkg/benchmark"
)

// handleStream is the SSE endpoint for live benchmark progress. The current
// state goes out immediately on connect; subsequent snapshots follow as the
// broadcaster publishes them. The stream ends after the terminal snapshot.
func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	run, ok := s.registry.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{"benchmark not found"})

		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{"streaming unsupported"})

		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Subscribe before reading the current state so no snapshot published
	// in between is lost.
	ch, cancel := run.Broadcaster().Subscribe()
	defer cancel()

	current := run.LastSnapshot()
	if err := writeEvent(w, current); err != nil {
		return
	}

	flusher.Flush()

	if current.Status.Terminal() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-ch:
			if !open {
				return
			}

			if err := writeEvent(w, snap); err != nil {
				return
			}

			flusher.Flush()

			if snap.Status.Terminal() {
				return
			}
		}
	}
}

// writeEvent writes one SSE data frame.
func writeEvent(w http.ResponseWriter, snap benchmark.ProgressSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return err
	}

	_, err = w.Write([]byte("\n\n"))

	return err
}
