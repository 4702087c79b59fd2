package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wablabs/vectorbench/pkg/backend"
	"github.com/wablabs/vectorbench/pkg/catalog"
	"github.com/wablabs/vectorbench/pkg/config"
	"github.com/wablabs/vectorbench/pkg/embed"
	"github.com/wablabs/vectorbench/pkg/orchestrator"
	"github.com/wablabs/vectorbench/pkg/pipeline"
	"github.com/wablabs/vectorbench/pkg/registry"
	"github.com/wablabs/vectorbench/pkg/results"
	"github.com/wablabs/vectorbench/pkg/upload"
)

// stack holds the wired application components shared by the serve and run
// commands.
type stack struct {
	cfg          *config.Config
	catalog      *catalog.Catalog
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
	relational   *backend.PGVectorStore
	document     *backend.WeaviateStore
	embedder     embed.Embedder
}

// loadConfig loads and validates the configuration, then applies the
// configured log level unless the --log-level flag overrode it.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("config file is required (use --config)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if logLevel == "" {
		level, err := logrus.ParseLevel(cfg.Global.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Global.LogLevel, err)
		}

		log.SetLevel(level)
	}

	return cfg, nil
}

// buildStack wires the embedder, both vector stores, the pipeline, and the
// orchestrator. The export hook writes result files and, when configured,
// uploads them to S3.
func buildStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	cat, err := catalog.Load(log, cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	embedder := embed.NewOllamaClient(log, embed.Config{
		URL:     cfg.Embedding.URL,
		Model:   cfg.Embedding.Model,
		Dim:     cfg.Embedding.Dim,
		Timeout: cfg.Embedding.Timeout,
	})

	relational, err := backend.NewPGVectorStore(log, cfg.Postgres, cfg.Embedding.Dim)
	if err != nil {
		return nil, fmt.Errorf("creating pgvector store: %w", err)
	}

	// Both backends index with the same HNSW tunables.
	document, err := backend.NewWeaviateStore(log, cfg.Weaviate, cfg.Embedding.Dim, backend.HNSWParams{
		M:              cfg.Postgres.HNSWM,
		EfConstruction: cfg.Postgres.HNSWEfConstruction,
		EfSearch:       cfg.Postgres.HNSWEfSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("creating weaviate store: %w", err)
	}

	checks := map[string]pipeline.ReadyCheck{
		"postgres": relational.Ready,
		"weaviate": document.Ready,
		"ollama": func(ctx context.Context) error {
			_, err := embedder.Embed(ctx, []string{"ready"})

			return err
		},
	}

	if err := pipeline.WaitReady(
		ctx, log, cfg.Pipeline.WaitTimeout, cfg.Pipeline.WaitInterval, checks,
	); err != nil {
		return nil, fmt.Errorf("waiting for dependencies: %w", err)
	}

	pipe := pipeline.NewLive(log, pipeline.Config{
		ChunkSize:    cfg.Pipeline.ChunkSize,
		ChunkOverlap: cfg.Pipeline.ChunkOverlap,
		FetchTimeout: cfg.Pipeline.FetchTimeout,
		TopK:         cfg.Benchmark.TopK,
	}, embedder, relational, document)

	writer := results.NewWriter(log, cfg.Benchmark.ResultsDir)

	var uploader upload.Uploader

	if cfg.Upload != nil && cfg.Upload.Enabled {
		uploader, err = upload.NewS3Uploader(log, cfg.Upload)
		if err != nil {
			return nil, fmt.Errorf("creating S3 uploader: %w", err)
		}

		// Fail fast: verify S3 is reachable and writable before any run.
		if err := uploader.Preflight(ctx); err != nil {
			return nil, fmt.Errorf("S3 upload preflight check failed: %w", err)
		}

		log.Info("S3 upload preflight check passed")
	}

	export := func(view *registry.StateView) {
		dir, err := writer.Export(view)
		if err != nil {
			log.WithError(err).WithField("benchmark_id", view.BenchmarkID).
				Warn("Failed to export results")

			return
		}

		if uploader == nil {
			return
		}

		if err := uploader.Upload(ctx, dir); err != nil {
			log.WithError(err).WithField("benchmark_id", view.BenchmarkID).
				Warn("Failed to upload results")
		}
	}

	reg := registry.NewRegistry(log)
	orch := orchestrator.New(log, orchestrator.Config{
		FailureThreshold: cfg.Benchmark.FailureThreshold,
	}, reg, cat, pipe, export)

	return &stack{
		cfg:          cfg,
		catalog:      cat,
		registry:     reg,
		orchestrator: orch,
		relational:   relational,
		document:     document,
		embedder:     embedder,
	}, nil
}

// close releases the store connections.
func (s *stack) close() {
	if err := s.relational.Close(); err != nil {
		log.WithError(err).Warn("Failed to close pgvector store")
	}

	if err := s.document.Close(); err != nil {
		log.WithError(err).Warn("Failed to close weaviate store")
	}
}
