// Package backend abstracts the two vector stores under comparison behind a
// single interface so the pipeline can drive both with identical workloads.
package backend

import "context"

// Chunk is one embedded text fragment ready for ingestion.
type Chunk struct {
	Source  string
	Index   int
	Content string
	Vector  []float32
}

// Hit is one similarity search result.
type Hit struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Stats describes the stored corpus after ingestion.
type Stats struct {
	Count     int64 `json:"count"`
	SizeBytes int64 `json:"size_bytes"`
}

// Store is a vector store under benchmark.
type Store interface {
	// Name identifies the backend in logs and results.
	Name() string

	// Ready reports whether the backend accepts work.
	Ready(ctx context.Context) error

	// Reset drops all stored data and recreates the empty schema, giving
	// every run an identical starting state.
	Reset(ctx context.Context) error

	// Insert ingests embedded chunks.
	Insert(ctx context.Context, chunks []Chunk) error

	// Query runs a similarity search and returns up to limit hits ordered
	// by descending score.
	Query(ctx context.Context, vector []float32, limit int) ([]Hit, error)

	// Stats returns the stored object count and on-disk size. Size may be
	// an estimate where the engine exposes no exact figure.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases connections.
	Close() error
}
