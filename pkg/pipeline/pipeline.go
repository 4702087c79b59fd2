// Package pipeline drives one ingest-and-query cycle against both vector
// stores and measures every step of it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wablabs/vectorbench/pkg/backend"
	"github.com/wablabs/vectorbench/pkg/benchmark"
	"github.com/wablabs/vectorbench/pkg/catalog"
	"github.com/wablabs/vectorbench/pkg/embed"
)

// Reporter receives sub-progress for the step in flight. frac is the
// fraction of the current (workload, run) pair completed, in [0,1].
type Reporter func(phase string, frac float64, message string)

// Pipeline runs one measured ingest/query cycle for a workload.
type Pipeline interface {
	Run(ctx context.Context, ref catalog.WorkloadRef, runIndex int, report Reporter) (*benchmark.PipelineResult, error)
}

// Config contains pipeline tunables.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	FetchTimeout time.Duration
	TopK         int
}

// Live is the production pipeline: it downloads the workload spec, embeds
// it, ingests into both stores, and runs the query set against each.
type Live struct {
	log        logrus.FieldLogger
	cfg        Config
	embedder   embed.Embedder
	relational backend.Store
	document   backend.Store
	client     *http.Client

	mu    sync.Mutex
	specs map[string]string
}

var _ Pipeline = (*Live)(nil)

// NewLive creates a live pipeline over the given embedder and stores.
func NewLive(
	log logrus.FieldLogger,
	cfg Config,
	embedder embed.Embedder,
	relational, document backend.Store,
) *Live {
	return &Live{
		log:        log.WithField("component", "pipeline"),
		cfg:        cfg,
		embedder:   embedder,
		relational: relational,
		document:   document,
		client:     &http.Client{Timeout: cfg.FetchTimeout},
		specs:      make(map[string]string, 8),
	}
}

// Run executes one full cycle: fetch, extract, chunk, reset both stores,
// embed, timed ingest into each store, then the query set against each.
// Both stores see identical chunks and identical query vectors.
func (p *Live) Run(
	ctx context.Context,
	ref catalog.WorkloadRef,
	runIndex int,
	report Reporter,
) (*benchmark.PipelineResult, error) {
	if report == nil {
		report = func(string, float64, string) {}
	}

	entry := p.log.WithFields(logrus.Fields{
		"workload": ref.Name,
		"run":      runIndex,
	})

	report("download", 0.0, fmt.Sprintf("Downloading %s spec", ref.Name))

	raw, err := p.fetchSpec(ctx, ref.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching spec for %s: %w: %w", ref.Name, benchmark.ErrPipelineUnavailable, err)
	}

	report("extract", 0.05, "Extracting spec text")

	text := ExtractSpecText(raw)

	chunks := ChunkText(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("workload %s: %w: spec produced no text chunks", ref.Name, benchmark.ErrMalformedMeasurement)
	}

	entry.WithField("chunks", len(chunks)).Debug("Spec chunked")

	// Cold start per run: both stores drop and recreate their schema.
	report("reset", 0.1, "Resetting vector stores")

	if err := p.relational.Reset(ctx); err != nil {
		return nil, fmt.Errorf("resetting %s: %w: %w", p.relational.Name(), benchmark.ErrPipelineUnavailable, err)
	}

	if err := p.document.Reset(ctx); err != nil {
		return nil, fmt.Errorf("resetting %s: %w: %w", p.document.Name(), benchmark.ErrPipelineUnavailable, err)
	}

	report("embed", 0.15, fmt.Sprintf("Embedding %d chunks", len(chunks)))

	embedStart := time.Now()

	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w: %w", benchmark.ErrPipelineUnavailable, err)
	}

	embedMS := millisSince(embedStart)

	prepared := make([]backend.Chunk, len(chunks))
	for i, content := range chunks {
		prepared[i] = backend.Chunk{
			Source:  ref.Name,
			Index:   i,
			Content: content,
			Vector:  vectors[i],
		}
	}

	result := &benchmark.PipelineResult{NumChunks: len(chunks), EmbedMS: embedMS}

	report("ingest", 0.45, fmt.Sprintf("Writing %d chunks to %s", len(chunks), p.relational.Name()))

	pgWriteStart := time.Now()
	if err := p.relational.Insert(ctx, prepared); err != nil {
		return nil, fmt.Errorf("ingesting into %s: %w: %w", p.relational.Name(), benchmark.ErrPipelineUnavailable, err)
	}

	result.PGWriteMS = millisSince(pgWriteStart)

	report("ingest", 0.55, fmt.Sprintf("Writing %d chunks to %s", len(chunks), p.document.Name()))

	docWriteStart := time.Now()
	if err := p.document.Insert(ctx, prepared); err != nil {
		return nil, fmt.Errorf("ingesting into %s: %w: %w", p.document.Name(), benchmark.ErrPipelineUnavailable, err)
	}

	result.DocWriteMS = millisSince(docWriteStart)

	report("stats", 0.65, "Collecting store sizes")

	if stats, err := p.relational.Stats(ctx); err == nil {
		result.PGSizeMB = float64(stats.SizeBytes) / (1024 * 1024)
	} else {
		entry.WithError(err).Warn("Failed to read relational store stats")
	}

	if stats, err := p.document.Stats(ctx); err == nil {
		result.DocSizeMB = float64(stats.SizeBytes) / (1024 * 1024)
	} else {
		entry.WithError(err).Warn("Failed to read document store stats")
	}

	queries := GenerateQueries(ref.Name)

	var (
		queryEmbedTotal float64
		pgQueryTotal    float64
		docQueryTotal   float64
	)

	for i, query := range queries {
		frac := 0.7 + 0.3*float64(i)/float64(len(queries))
		report("query", frac, fmt.Sprintf("Query %d/%d", i+1, len(queries)))

		qStart := time.Now()

		qVecs, err := p.embedder.Embed(ctx, []string{query})
		if err != nil {
			return nil, fmt.Errorf("embedding query: %w: %w", benchmark.ErrPipelineUnavailable, err)
		}

		queryEmbedTotal += millisSince(qStart)

		pgStart := time.Now()

		pgHits, err := p.relational.Query(ctx, qVecs[0], p.cfg.TopK)
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w: %w", p.relational.Name(), benchmark.ErrPipelineUnavailable, err)
		}

		pgQueryTotal += millisSince(pgStart)

		docStart := time.Now()

		docHits, err := p.document.Query(ctx, qVecs[0], p.cfg.TopK)
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w: %w", p.document.Name(), benchmark.ErrPipelineUnavailable, err)
		}

		docQueryTotal += millisSince(docStart)

		result.PGResultCount = len(pgHits)
		result.DocResultCount = len(docHits)
	}

	n := float64(len(queries))
	result.QueryEmbedMS = queryEmbedTotal / n
	result.PGQueryMS = pgQueryTotal / n
	result.DocQueryMS = docQueryTotal / n

	report("query", 1.0, "Run complete")

	return result, nil
}

// fetchSpec downloads a workload spec, caching it so repeated runs of the
// same workload measure the stores rather than the network.
func (p *Live) fetchSpec(ctx context.Context, url string) (string, error) {
	p.mu.Lock()
	cached, ok := p.specs[url]
	p.mu.Unlock()

	if ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading spec: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spec download returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading spec body: %w", err)
	}

	raw := string(body)

	p.mu.Lock()
	p.specs[url] = raw
	p.mu.Unlock()

	return raw, nil
}

func millisSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
