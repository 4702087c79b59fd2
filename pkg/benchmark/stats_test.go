package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(workload, category string, runIndex int, pgQueryMS float64) *RunRecord {
	return &RunRecord{
		Workload:  workload,
		Category:  category,
		RunIndex:  runIndex,
		NumChunks: 10,
		EmbedMS:   100,
		PGQueryMS: pgQueryMS,
	}
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
	assert.Empty(t, Summarize([]*RunRecord{}))
}

func TestSummarize_SingleSample(t *testing.T) {
	summaries := Summarize([]*RunRecord{record("petstore", "small", 1, 42)})

	require.Contains(t, summaries, "petstore")
	s := summaries["petstore"]

	assert.Equal(t, "small", s.Category)
	assert.Equal(t, 1, s.Samples)

	// A single-sample group collapses all order statistics to the sample.
	assert.Equal(t, 42.0, s.PGQueryMS.Median)
	assert.Equal(t, 42.0, s.PGQueryMS.P25)
	assert.Equal(t, 42.0, s.PGQueryMS.P75)
	assert.Equal(t, 0.0, s.PGQueryMS.IQR)
	assert.Equal(t, 42.0, s.PGQueryMS.Min)
	assert.Equal(t, 42.0, s.PGQueryMS.Max)
}

func TestSummarize_EvenSampleMedian(t *testing.T) {
	records := []*RunRecord{
		record("petstore", "small", 1, 10),
		record("petstore", "small", 2, 20),
		record("petstore", "small", 3, 30),
		record("petstore", "small", 4, 40),
	}

	s := Summarize(records)["petstore"]
	require.NotNil(t, s)

	// Median of an even sample is the mean of the two middle values.
	assert.InDelta(t, 25.0, s.PGQueryMS.Median, 1e-9)
	// index = 0.25 * 3 = 0.75 -> 10 + 0.75*(20-10) = 17.5
	assert.InDelta(t, 17.5, s.PGQueryMS.P25, 1e-9)
	// index = 0.75 * 3 = 2.25 -> 30 + 0.25*(40-30) = 32.5
	assert.InDelta(t, 32.5, s.PGQueryMS.P75, 1e-9)
	assert.InDelta(t, 15.0, s.PGQueryMS.IQR, 1e-9)
	assert.InDelta(t, 25.0, s.PGQueryMS.Mean, 1e-9)
}

func TestSummarize_Invariants(t *testing.T) {
	records := []*RunRecord{
		record("w", "medium", 1, 7),
		record("w", "medium", 2, 3),
		record("w", "medium", 3, 11),
		record("w", "medium", 4, 5),
		record("w", "medium", 5, 9),
	}

	s := Summarize(records)["w"]
	require.NotNil(t, s)

	d := s.PGQueryMS
	assert.Equal(t, d.P75-d.P25, d.IQR)
	assert.LessOrEqual(t, d.Min, d.P25)
	assert.LessOrEqual(t, d.P25, d.Median)
	assert.LessOrEqual(t, d.Median, d.P75)
	assert.LessOrEqual(t, d.P75, d.Max)
}

func TestSummarize_GroupsByWorkload(t *testing.T) {
	records := []*RunRecord{
		record("a", "small", 1, 1),
		record("b", "large", 1, 2),
		record("a", "small", 2, 3),
	}

	summaries := Summarize(records)

	require.Len(t, summaries, 2)
	assert.Equal(t, 2, summaries["a"].Samples)
	assert.Equal(t, 1, summaries["b"].Samples)
	assert.Equal(t, "large", summaries["b"].Category)
}

func TestSummarize_Idempotent(t *testing.T) {
	records := []*RunRecord{
		record("w", "small", 1, 4),
		record("w", "small", 2, 8),
		record("w", "small", 3, 6),
	}

	first := Summarize(records)
	second := Summarize(records)

	assert.Equal(t, first["w"], second["w"])
}
