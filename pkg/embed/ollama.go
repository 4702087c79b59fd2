// Package embed turns text chunks into dense vectors via an Ollama server.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Embedder produces one vector per input text.
type Embedder interface {
	// Embed returns vectors for the given texts, in input order. Every
	// returned vector has the configured dimensionality and unit length.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dim returns the expected vector dimensionality.
	Dim() int
}

// Config configures the Ollama client.
type Config struct {
	URL     string
	Model   string
	Dim     int
	Timeout time.Duration
}

// OllamaClient calls the Ollama embeddings endpoint.
type OllamaClient struct {
	log    logrus.FieldLogger
	cfg    Config
	client *http.Client
}

var _ Embedder = (*OllamaClient)(nil)

// NewOllamaClient creates an Ollama embeddings client.
func NewOllamaClient(log logrus.FieldLogger, cfg Config) *OllamaClient {
	return &OllamaClient{
		log: log.WithField("component", "embed"),
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Dim returns the expected vector dimensionality.
func (c *OllamaClient) Dim() int { return c.cfg.Dim }

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed requests one embedding per text. Ollama's embeddings endpoint takes
// a single prompt per call, so texts are processed sequentially.
func (c *OllamaClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for i, text := range texts {
		vec, err := c.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d/%d: %w", i+1, len(texts), err)
		}

		out = append(out, vec)
	}

	return out, nil
}

func (c *OllamaClient) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{
		Model:  c.cfg.Model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.URL, "/") + "/api/embeddings"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embeddings endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, fmt.Errorf("embeddings endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embeddings endpoint returned an empty vector")
	}

	if c.cfg.Dim > 0 && len(parsed.Embedding) != c.cfg.Dim {
		return nil, fmt.Errorf(
			"model %q returned %d dimensions, expected %d",
			c.cfg.Model, len(parsed.Embedding), c.cfg.Dim,
		)
	}

	return Normalize(parsed.Embedding), nil
}

// Normalize scales a vector to unit length so L2 distance and cosine
// similarity agree across backends. Zero vectors pass through unchanged.
func Normalize(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}

	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v / norm)
	}

	return out
}
