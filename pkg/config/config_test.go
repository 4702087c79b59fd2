package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
catalog:
  path: ./catalog.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Global.LogLevel)
	assert.Equal(t, DefaultListen, cfg.Server.Listen)
	assert.Equal(t, DefaultRuns, cfg.Benchmark.DefaultRuns)
	assert.Equal(t, DefaultFailureThreshold, cfg.Benchmark.FailureThreshold)
	assert.Equal(t, DefaultResultsDir, cfg.Benchmark.ResultsDir)
	assert.Equal(t, DefaultChunkSize, cfg.Pipeline.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.Pipeline.ChunkOverlap)
	assert.Equal(t, DefaultEmbedDim, cfg.Embedding.Dim)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 16, cfg.Postgres.HNSWM)
	assert.Equal(t, "http", cfg.Weaviate.Scheme)
	assert.Equal(t, "SpecChunk", cfg.Weaviate.Class)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
global:
  log_level: debug
server:
  listen: ":9090"
  cors_origins:
    - http://localhost:3000
  rate_limit:
    enabled: true
    requests_per_minute: 10
catalog:
  path: /etc/vectorbench/catalog.yaml
benchmark:
  default_runs: 5
  failure_threshold: 0.25
  results_dir: /var/lib/vectorbench
  top_k: 10
pipeline:
  chunk_size: 800
  chunk_overlap: 100
  fetch_timeout: 30s
embedding:
  url: http://ollama:11434
  model: mxbai-embed-large
  dim: 1024
  timeout: 90s
postgres:
  host: db
  port: 5433
  user: bench
  password: secret
  database: vectorbench
weaviate:
  scheme: https
  host: weaviate:8080
  class: ApiChunk
upload:
  enabled: true
  bucket: results
  region: us-east-1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.Server.RateLimit.RequestsPerMinute)
	assert.Equal(t, 5, cfg.Benchmark.DefaultRuns)
	assert.Equal(t, 0.25, cfg.Benchmark.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.FetchTimeout)
	assert.Equal(t, 90*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 1024, cfg.Embedding.Dim)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.Equal(t, "ApiChunk", cfg.Weaviate.Class)
	require.NotNil(t, cfg.Upload)
	assert.Equal(t, "results", cfg.Upload.Bucket)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
catalog:
  path: ./catalog.yaml
global:
  log_level: info
`)

	t.Setenv("VECTORBENCH_GLOBAL_LOG_LEVEL", "trace")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "trace", cfg.Global.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Catalog.Path = "./catalog.yaml"
		cfg.applyDefaults()

		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "missing catalog path",
			mutate:  func(c *Config) { c.Catalog.Path = "" },
			wantErr: "catalog.path",
		},
		{
			name:    "runs above maximum",
			mutate:  func(c *Config) { c.Benchmark.DefaultRuns = 101 },
			wantErr: "default_runs",
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Benchmark.FailureThreshold = 1.5 },
			wantErr: "failure_threshold",
		},
		{
			name: "overlap not smaller than chunk size",
			mutate: func(c *Config) {
				c.Pipeline.ChunkSize = 100
				c.Pipeline.ChunkOverlap = 100
			},
			wantErr: "chunk_overlap",
		},
		{
			name:    "negative embedding dim",
			mutate:  func(c *Config) { c.Embedding.Dim = -1 },
			wantErr: "embedding.dim",
		},
		{
			name: "upload enabled without bucket",
			mutate: func(c *Config) {
				c.Upload = &S3UploadConfig{Enabled: true}
			},
			wantErr: "upload.bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
