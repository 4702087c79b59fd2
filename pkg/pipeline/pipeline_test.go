package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wablabs/vectorbench/pkg/backend"
	"github.com/wablabs/vectorbench/pkg/benchmark"
	"github.com/wablabs/vectorbench/pkg/catalog"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

type fakeEmbedder struct {
	calls atomic.Int64
	fail  bool
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)

	if f.fail {
		return nil, errors.New("embedder down")
	}

	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}

	return out, nil
}

func (f *fakeEmbedder) Dim() int { return 3 }

type fakeStore struct {
	name     string
	resets   int
	inserted []backend.Chunk
	queries  int
	failWith error
}

func (f *fakeStore) Name() string                { return f.name }
func (f *fakeStore) Ready(context.Context) error { return nil }
func (f *fakeStore) Close() error                { return nil }

func (f *fakeStore) Reset(context.Context) error {
	f.resets++

	return f.failWith
}

func (f *fakeStore) Insert(_ context.Context, chunks []backend.Chunk) error {
	f.inserted = append(f.inserted, chunks...)

	return f.failWith
}

func (f *fakeStore) Query(context.Context, []float32, int) ([]backend.Hit, error) {
	f.queries++

	return []backend.Hit{{Content: "hit", Score: 0.9}}, f.failWith
}

func (f *fakeStore) Stats(context.Context) (*backend.Stats, error) {
	return &backend.Stats{Count: int64(len(f.inserted)), SizeBytes: 2 * 1024 * 1024}, nil
}

func specServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(petstoreJSON))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newLivePipeline(rel, doc *fakeStore, emb *fakeEmbedder) *Live {
	return NewLive(testLog(), Config{
		ChunkSize:    200,
		ChunkOverlap: 50,
		FetchTimeout: 5 * time.Second,
		TopK:         5,
	}, emb, rel, doc)
}

func TestLive_Run(t *testing.T) {
	var hits atomic.Int64

	srv := specServer(t, &hits)

	rel := &fakeStore{name: "pgvector"}
	doc := &fakeStore{name: "weaviate"}
	emb := &fakeEmbedder{}

	p := newLivePipeline(rel, doc, emb)

	var phases []string

	ref := catalog.WorkloadRef{Name: "petstore", Category: "small", URL: srv.URL}

	result, err := p.Run(context.Background(), ref, 1, func(phase string, frac float64, _ string) {
		phases = append(phases, phase)
		assert.GreaterOrEqual(t, frac, 0.0)
		assert.LessOrEqual(t, frac, 1.0)
	})
	require.NoError(t, err)

	assert.Positive(t, result.NumChunks)
	assert.Equal(t, result.NumChunks, len(rel.inserted))
	assert.Equal(t, result.NumChunks, len(doc.inserted))
	assert.Equal(t, 1, rel.resets)
	assert.Equal(t, 1, doc.resets)

	// Five queries against each store.
	assert.Equal(t, 5, rel.queries)
	assert.Equal(t, 5, doc.queries)
	assert.Equal(t, 5, result.PGResultCount)
	assert.Equal(t, 5, result.DocResultCount)

	assert.InDelta(t, 2.0, result.PGSizeMB, 0.001)
	assert.Contains(t, phases, "download")
	assert.Contains(t, phases, "embed")
	assert.Contains(t, phases, "ingest")
	assert.Contains(t, phases, "query")
}

func TestLive_SpecFetchedOnce(t *testing.T) {
	var hits atomic.Int64

	srv := specServer(t, &hits)

	p := newLivePipeline(&fakeStore{name: "a"}, &fakeStore{name: "b"}, &fakeEmbedder{})
	ref := catalog.WorkloadRef{Name: "petstore", URL: srv.URL}

	for run := 1; run <= 3; run++ {
		_, err := p.Run(context.Background(), ref, run, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), hits.Load())
}

func TestLive_EmbedderFailure(t *testing.T) {
	var hits atomic.Int64

	srv := specServer(t, &hits)

	p := newLivePipeline(&fakeStore{name: "a"}, &fakeStore{name: "b"}, &fakeEmbedder{fail: true})
	ref := catalog.WorkloadRef{Name: "petstore", URL: srv.URL}

	_, err := p.Run(context.Background(), ref, 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, benchmark.ErrPipelineUnavailable)
}

func TestLive_StoreFailure(t *testing.T) {
	var hits atomic.Int64

	srv := specServer(t, &hits)

	rel := &fakeStore{name: "a", failWith: errors.New("connection refused")}

	p := newLivePipeline(rel, &fakeStore{name: "b"}, &fakeEmbedder{})
	ref := catalog.WorkloadRef{Name: "petstore", URL: srv.URL}

	_, err := p.Run(context.Background(), ref, 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, benchmark.ErrPipelineUnavailable)
}

func TestLive_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	p := newLivePipeline(&fakeStore{name: "a"}, &fakeStore{name: "b"}, &fakeEmbedder{})
	ref := catalog.WorkloadRef{Name: "petstore", URL: srv.URL}

	_, err := p.Run(context.Background(), ref, 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, benchmark.ErrPipelineUnavailable)
}

func TestWaitReady(t *testing.T) {
	var attempts atomic.Int64

	checks := map[string]ReadyCheck{
		"instant": func(context.Context) error { return nil },
		"flaky": func(context.Context) error {
			if attempts.Add(1) < 3 {
				return errors.New("not yet")
			}

			return nil
		},
	}

	err := WaitReady(context.Background(), testLog(), 2*time.Second, 10*time.Millisecond, checks)
	assert.NoError(t, err)
}

func TestWaitReady_Timeout(t *testing.T) {
	checks := map[string]ReadyCheck{
		"never": func(context.Context) error { return errors.New("still down") },
	}

	err := WaitReady(context.Background(), testLog(), 50*time.Millisecond, 10*time.Millisecond, checks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never")
}
