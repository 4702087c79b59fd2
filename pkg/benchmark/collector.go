package benchmark

import (
	"fmt"
	"time"
)

// Collect builds a RunRecord from a raw pipeline result, validating the
// measurement at the boundary to the external pipeline. Timings must be
// non-negative and counts must be non-negative integers.
func Collect(workload, category string, runIndex int, res *PipelineResult) (*RunRecord, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: nil pipeline result", ErrMalformedMeasurement)
	}

	if workload == "" {
		return nil, fmt.Errorf("%w: missing workload name", ErrMalformedMeasurement)
	}

	if runIndex < 1 {
		return nil, fmt.Errorf("%w: run index %d is not 1-based", ErrMalformedMeasurement, runIndex)
	}

	if res.NumChunks <= 0 {
		return nil, fmt.Errorf("%w: chunk count %d", ErrMalformedMeasurement, res.NumChunks)
	}

	timings := map[string]float64{
		"embed_ms":       res.EmbedMS,
		"query_embed_ms": res.QueryEmbedMS,
		"pg_write_ms":    res.PGWriteMS,
		"pg_query_ms":    res.PGQueryMS,
		"doc_write_ms":   res.DocWriteMS,
		"doc_query_ms":   res.DocQueryMS,
	}

	for name, v := range timings {
		if v < 0 {
			return nil, fmt.Errorf("%w: negative timing %s=%f", ErrMalformedMeasurement, name, v)
		}
	}

	if res.PGResultCount < 0 || res.DocResultCount < 0 {
		return nil, fmt.Errorf(
			"%w: negative result count (pg=%d, doc=%d)",
			ErrMalformedMeasurement, res.PGResultCount, res.DocResultCount,
		)
	}

	if res.PGSizeMB < 0 || res.DocSizeMB < 0 {
		return nil, fmt.Errorf(
			"%w: negative storage size (pg=%f, doc=%f)",
			ErrMalformedMeasurement, res.PGSizeMB, res.DocSizeMB,
		)
	}

	return &RunRecord{
		Timestamp:      time.Now().UTC(),
		Workload:       workload,
		Category:       category,
		RunIndex:       runIndex,
		NumChunks:      res.NumChunks,
		EmbedMS:        res.EmbedMS,
		QueryEmbedMS:   res.QueryEmbedMS,
		PGWriteMS:      res.PGWriteMS,
		PGQueryMS:      res.PGQueryMS,
		PGResultCount:  res.PGResultCount,
		PGSizeMB:       res.PGSizeMB,
		DocWriteMS:     res.DocWriteMS,
		DocQueryMS:     res.DocQueryMS,
		DocResultCount: res.DocResultCount,
		DocSizeMB:      res.DocSizeMB,
	}, nil
}
