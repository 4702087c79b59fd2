// Package config loads and validates the vectorbench configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultListen is the default API listen address.
	DefaultListen = ":8080"

	// DefaultResultsDir is the default directory for exported results.
	DefaultResultsDir = "./results"

	// DefaultRuns is the default run count per workload.
	DefaultRuns = 3

	// MinRuns and MaxRuns bound the per-workload run count.
	MinRuns = 1
	MaxRuns = 100

	// DefaultFailureThreshold is the fraction of total steps that may fail
	// before a benchmark run is aborted.
	DefaultFailureThreshold = 0.5

	// DefaultChunkSize and DefaultChunkOverlap control spec chunking.
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 150

	// DefaultEmbedDim is the embedding dimensionality.
	DefaultEmbedDim = 768

	// DefaultTopK is the default similarity search result count.
	DefaultTopK = 5
)

// Config is the root configuration for vectorbench.
type Config struct {
	Global    GlobalConfig    `yaml:"global" mapstructure:"global"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Benchmark BenchmarkConfig `yaml:"benchmark" mapstructure:"benchmark"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Postgres  PostgresConfig  `yaml:"postgres" mapstructure:"postgres"`
	Weaviate  WeaviateConfig  `yaml:"weaviate" mapstructure:"weaviate"`
	Upload    *S3UploadConfig `yaml:"upload,omitempty" mapstructure:"upload"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen      string          `yaml:"listen" mapstructure:"listen"`
	CORSOrigins []string        `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// RateLimitConfig configures per-IP rate limiting on the start endpoint.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// CatalogConfig locates the workload catalog file.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BenchmarkConfig contains benchmark execution settings.
type BenchmarkConfig struct {
	DefaultRuns      int     `yaml:"default_runs" mapstructure:"default_runs"`
	FailureThreshold float64 `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResultsDir       string  `yaml:"results_dir" mapstructure:"results_dir"`
	TopK             int     `yaml:"top_k" mapstructure:"top_k"`
}

// PipelineConfig contains ingest pipeline settings.
type PipelineConfig struct {
	ChunkSize    int           `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap int           `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	WaitTimeout  time.Duration `yaml:"wait_timeout" mapstructure:"wait_timeout"`
	WaitInterval time.Duration `yaml:"wait_interval" mapstructure:"wait_interval"`
}

// EmbeddingConfig contains embedding provider settings.
type EmbeddingConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Dim     int           `yaml:"dim" mapstructure:"dim"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PostgresConfig contains settings for the relational vector store.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode,omitempty" mapstructure:"ssl_mode"`

	// HNSW index tunables, kept identical across both backends so the
	// comparison stays fair.
	HNSWM              int `yaml:"hnsw_m" mapstructure:"hnsw_m"`
	HNSWEfConstruction int `yaml:"hnsw_ef_construction" mapstructure:"hnsw_ef_construction"`
	HNSWEfSearch       int `yaml:"hnsw_ef_search" mapstructure:"hnsw_ef_search"`
}

// WeaviateConfig contains settings for the document-oriented vector store.
type WeaviateConfig struct {
	Scheme string `yaml:"scheme" mapstructure:"scheme"`
	Host   string `yaml:"host" mapstructure:"host"`
	Class  string `yaml:"class" mapstructure:"class"`
}

// S3UploadConfig configures the optional post-run result upload.
type S3UploadConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// Load reads a configuration file and applies environment overrides with
// the VECTORBENCH_ prefix, e.g. VECTORBENCH_GLOBAL_LOG_LEVEL.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("VECTORBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := decode(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

// decode maps the raw settings onto the Config struct, converting duration
// strings like "30s" along the way.
func decode(settings map[string]any) (*Config, error) {
	var cfg Config

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("building decoder: %w", err)
	}

	if err := dec.Decode(settings); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerMinute == 0 {
		c.Server.RateLimit.RequestsPerMinute = 30
	}

	if c.Benchmark.DefaultRuns == 0 {
		c.Benchmark.DefaultRuns = DefaultRuns
	}

	if c.Benchmark.FailureThreshold == 0 {
		c.Benchmark.FailureThreshold = DefaultFailureThreshold
	}

	if c.Benchmark.ResultsDir == "" {
		c.Benchmark.ResultsDir = DefaultResultsDir
	}

	if c.Benchmark.TopK == 0 {
		c.Benchmark.TopK = DefaultTopK
	}

	if c.Pipeline.ChunkSize == 0 {
		c.Pipeline.ChunkSize = DefaultChunkSize
	}

	if c.Pipeline.ChunkOverlap == 0 {
		c.Pipeline.ChunkOverlap = DefaultChunkOverlap
	}

	if c.Pipeline.FetchTimeout == 0 {
		c.Pipeline.FetchTimeout = 60 * time.Second
	}

	if c.Pipeline.WaitTimeout == 0 {
		c.Pipeline.WaitTimeout = 180 * time.Second
	}

	if c.Pipeline.WaitInterval == 0 {
		c.Pipeline.WaitInterval = 2 * time.Second
	}

	if c.Embedding.URL == "" {
		c.Embedding.URL = "http://localhost:11434"
	}

	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}

	if c.Embedding.Dim == 0 {
		c.Embedding.Dim = DefaultEmbedDim
	}

	if c.Embedding.Timeout == 0 {
		c.Embedding.Timeout = 120 * time.Second
	}

	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}

	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}

	if c.Postgres.User == "" {
		c.Postgres.User = "postgres"
	}

	if c.Postgres.Database == "" {
		c.Postgres.Database = "postgres"
	}

	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}

	if c.Postgres.HNSWM == 0 {
		c.Postgres.HNSWM = 16
	}

	if c.Postgres.HNSWEfConstruction == 0 {
		c.Postgres.HNSWEfConstruction = 100
	}

	if c.Postgres.HNSWEfSearch == 0 {
		c.Postgres.HNSWEfSearch = 100
	}

	if c.Weaviate.Scheme == "" {
		c.Weaviate.Scheme = "http"
	}

	if c.Weaviate.Host == "" {
		c.Weaviate.Host = "localhost:8081"
	}

	if c.Weaviate.Class == "" {
		c.Weaviate.Class = "SpecChunk"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}

	if c.Benchmark.DefaultRuns < MinRuns || c.Benchmark.DefaultRuns > MaxRuns {
		return fmt.Errorf(
			"benchmark.default_runs must be between %d and %d, got %d",
			MinRuns, MaxRuns, c.Benchmark.DefaultRuns,
		)
	}

	if c.Benchmark.FailureThreshold < 0 || c.Benchmark.FailureThreshold > 1 {
		return fmt.Errorf(
			"benchmark.failure_threshold must be a fraction in [0,1], got %v",
			c.Benchmark.FailureThreshold,
		)
	}

	if c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		return fmt.Errorf(
			"pipeline.chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Pipeline.ChunkOverlap, c.Pipeline.ChunkSize,
		)
	}

	if c.Embedding.Dim <= 0 {
		return fmt.Errorf("embedding.dim must be positive, got %d", c.Embedding.Dim)
	}

	if c.Upload != nil && c.Upload.Enabled && c.Upload.Bucket == "" {
		return fmt.Errorf("upload.bucket is required when upload is enabled")
	}

	return nil
}
