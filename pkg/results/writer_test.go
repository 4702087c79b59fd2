package results

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wablabs/vectorbench/pkg/benchmark"
	"github.com/wablabs/vectorbench/pkg/registry"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func testView() *registry.StateView {
	return &registry.StateView{
		BenchmarkID: "abc-123",
		Status:      benchmark.StatusCompleted,
		Total:       2,
		Progress:    2,
		Results: []*benchmark.RunRecord{
			{
				Timestamp: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
				Workload:  "petstore",
				Category:  "small",
				RunIndex:  1,
				NumChunks: 42,
				EmbedMS:   100.5,
				PGWriteMS: 10.25,
			},
			{
				Timestamp: time.Date(2026, 8, 25, 12, 1, 0, 0, time.UTC),
				Workload:  "petstore",
				Category:  "small",
				RunIndex:  2,
				NumChunks: 42,
				EmbedMS:   98.0,
				PGWriteMS: 11.0,
			},
		},
		Summary: map[string]*benchmark.StatSummary{
			"petstore": {Workload: "petstore", Category: "small", Samples: 2},
		},
	}
}

func TestWriter_Export(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(testLog(), base)

	dir, err := w.Export(testView())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "abc-123"), dir)

	f, err := os.Open(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)

	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "petstore", rows[1][1])
	assert.Equal(t, "1", rows[1][3])
	assert.Equal(t, "42", rows[1][4])
	assert.Equal(t, "100.500", rows[1][5])
	assert.Equal(t, "2", rows[2][3])
}

func TestWriter_SummaryJSON(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(testLog(), base)

	dir, err := w.Export(testView())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)

	var decoded registry.StateView
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "abc-123", decoded.BenchmarkID)
	assert.Equal(t, benchmark.StatusCompleted, decoded.Status)
	require.Len(t, decoded.Results, 2)
	require.Contains(t, decoded.Summary, "petstore")
	assert.Equal(t, 2, decoded.Summary["petstore"].Samples)
}

func TestWriter_EmptyResults(t *testing.T) {
	base := t.TempDir()
	w := NewWriter(testLog(), base)

	view := testView()
	view.Results = nil

	dir, err := w.Export(view)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)

	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
