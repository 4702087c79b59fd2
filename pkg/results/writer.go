// Package results exports finished benchmark runs to disk as CSV plus a
// JSON summary, one directory per benchmark identity.
package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wablabs/vectorbench/pkg/registry"
)

// Writer exports benchmark results below a base directory.
type Writer struct {
	log logrus.FieldLogger
	dir string
}

// NewWriter creates a results writer rooted at dir.
func NewWriter(log logrus.FieldLogger, dir string) *Writer {
	return &Writer{
		log: log.WithField("component", "results"),
		dir: dir,
	}
}

// csvHeader is the column layout of the per-run CSV export.
var csvHeader = []string{
	"timestamp",
	"workload",
	"category",
	"run_index",
	"num_chunks",
	"embed_ms",
	"query_embed_ms",
	"pg_write_ms",
	"pg_query_ms",
	"pg_result_count",
	"pg_size_mb",
	"doc_write_ms",
	"doc_query_ms",
	"doc_result_count",
	"doc_size_mb",
}

// Export writes results.csv and summary.json for the given terminal state
// and returns the created directory.
func (w *Writer) Export(view *registry.StateView) (string, error) {
	dir := filepath.Join(w.dir, view.BenchmarkID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}

	if err := w.writeCSV(filepath.Join(dir, "results.csv"), view); err != nil {
		return "", err
	}

	if err := w.writeSummary(filepath.Join(dir, "summary.json"), view); err != nil {
		return "", err
	}

	w.log.WithFields(logrus.Fields{
		"benchmark_id": view.BenchmarkID,
		"records":      len(view.Results),
		"dir":          dir,
	}).Info("Results exported")

	return dir, nil
}

func (w *Writer) writeCSV(path string, view *registry.StateView) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cw := csv.NewWriter(f)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, rec := range view.Results {
		row := []string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.Workload,
			rec.Category,
			strconv.Itoa(rec.RunIndex),
			strconv.Itoa(rec.NumChunks),
			formatMS(rec.EmbedMS),
			formatMS(rec.QueryEmbedMS),
			formatMS(rec.PGWriteMS),
			formatMS(rec.PGQueryMS),
			strconv.Itoa(rec.PGResultCount),
			formatMS(rec.PGSizeMB),
			formatMS(rec.DocWriteMS),
			formatMS(rec.DocQueryMS),
			strconv.Itoa(rec.DocResultCount),
			formatMS(rec.DocSizeMB),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

func (w *Writer) writeSummary(path string, view *registry.StateView) error {
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary file: %w", err)
	}

	return nil
}

func formatMS(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
