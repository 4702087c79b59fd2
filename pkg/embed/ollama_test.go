package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv
}

func TestOllamaClient_Embed(t *testing.T) {
	var prompts []string

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		prompts = append(prompts, req.Prompt)

		require.NoError(t, json.NewEncoder(w).Encode(embedResponse{
			Embedding: []float64{3, 4, 0},
		}))
	})

	client := NewOllamaClient(testLog(), Config{
		URL:     srv.URL,
		Model:   "test-model",
		Dim:     3,
		Timeout: 5 * time.Second,
	})

	vecs, err := client.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []string{"alpha", "beta"}, prompts)

	// Vectors come back unit-normalized: (3,4,0) has norm 5.
	assert.InDelta(t, 0.6, vecs[0][0], 1e-6)
	assert.InDelta(t, 0.8, vecs[0][1], 1e-6)
	assert.InDelta(t, 0.0, vecs[0][2], 1e-6)
}

func TestOllamaClient_DimMismatch(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(embedResponse{
			Embedding: []float64{1, 2},
		}))
	})

	client := NewOllamaClient(testLog(), Config{
		URL:   srv.URL,
		Model: "test-model",
		Dim:   768,
	})

	_, err := client.Embed(context.Background(), []string{"alpha"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestOllamaClient_ServerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	client := NewOllamaClient(testLog(), Config{URL: srv.URL, Model: "missing"})

	_, err := client.Embed(context.Background(), []string{"alpha"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaClient_EmptyEmbedding(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(embedResponse{}))
	})

	client := NewOllamaClient(testLog(), Config{URL: srv.URL, Model: "test-model"})

	_, err := client.Embed(context.Background(), []string{"alpha"})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	vec := Normalize([]float64{1, 1, 1, 1})

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	// A zero vector stays zero instead of producing NaNs.
	zero := Normalize([]float64{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
