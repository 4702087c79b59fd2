package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/wablabs/vectorbench/pkg/config"
)

// weaviateBatchSize is the object count of one batch import request.
const weaviateBatchSize = 100

// Per-object storage overhead used for the size estimate: the raw vector
// plus typical chunk text and metadata, scaled by observed index overhead.
const (
	estimatedChunkBytes    = 1200
	estimatedMetadataBytes = 100
	indexOverheadFactor    = 1.3
)

// HNSWParams are the index tunables applied to both backends so the
// comparison measures the stores, not their index defaults.
type HNSWParams struct {
	M              int
	EfConstruction int
	EfSearch       int
}

// WeaviateStore benchmarks the Weaviate document-oriented vector store.
type WeaviateStore struct {
	log    logrus.FieldLogger
	cfg    config.WeaviateConfig
	dim    int
	hnsw   HNSWParams
	client *weaviate.Client
}

var _ Store = (*WeaviateStore)(nil)

// NewWeaviateStore creates a Weaviate-backed store.
func NewWeaviateStore(log logrus.FieldLogger, cfg config.WeaviateConfig, dim int, hnsw HNSWParams) (*WeaviateStore, error) {
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}

	return &WeaviateStore{
		log:    log.WithField("component", "backend.weaviate"),
		cfg:    cfg,
		dim:    dim,
		hnsw:   hnsw,
		client: client,
	}, nil
}

// Name identifies the backend.
func (s *WeaviateStore) Name() string { return "weaviate" }

// Ready reports whether the Weaviate instance accepts work.
func (s *WeaviateStore) Ready(ctx context.Context) error {
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return fmt.Errorf("checking readiness: %w", err)
	}

	if !ready {
		return fmt.Errorf("weaviate at %s://%s is not ready", s.cfg.Scheme, s.cfg.Host)
	}

	return nil
}

// Reset drops the chunk class and recreates it empty. Vectors are supplied
// by the pipeline, so the class carries no vectorizer.
func (s *WeaviateStore) Reset(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().
		WithClassName(s.cfg.Class).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("checking class existence: %w", err)
	}

	if exists {
		if err := s.client.Schema().ClassDeleter().
			WithClassName(s.cfg.Class).
			Do(ctx); err != nil {
			return fmt.Errorf("deleting class: %w", err)
		}
	}

	class := &models.Class{
		Class:      s.cfg.Class,
		Vectorizer: "none",
		VectorIndexConfig: map[string]interface{}{
			"distance":       "cosine",
			"maxConnections": s.hnsw.M,
			"efConstruction": s.hnsw.EfConstruction,
			"ef":             s.hnsw.EfSearch,
		},
		Properties: []*models.Property{
			{Name: "source", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "content", DataType: []string{"text"}, Tokenization: "word"},
		},
	}

	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("creating class: %w", err)
	}

	return nil
}

// Insert batch imports chunks with deterministic identities derived from the
// chunk position, so re-ingesting a workload never duplicates objects.
func (s *WeaviateStore) Insert(ctx context.Context, chunks []Chunk) error {
	for start := 0; start < len(chunks); start += weaviateBatchSize {
		end := start + weaviateBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[start:end]
		objects := make([]*models.Object, len(batch))

		for i, c := range batch {
			id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", c.Source, c.Index)))

			objects[i] = &models.Object{
				Class:  s.cfg.Class,
				ID:     strfmt.UUID(id.String()),
				Vector: c.Vector,
				Properties: map[string]interface{}{
					"source":     c.Source,
					"chunkIndex": c.Index,
					"content":    c.Content,
				},
			}
		}

		result, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return fmt.Errorf("batch import: %w", err)
		}

		for _, obj := range result {
			if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
				return fmt.Errorf("batch import object %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
			}
		}
	}

	return nil
}

// Query runs a nearVector search. Weaviate reports cosine distance, so the
// similarity is 1 - distance.
func (s *WeaviateStore) Query(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	resp, err := s.client.GraphQL().Get().
		WithClassName(s.cfg.Class).
		WithFields(
			graphql.Field{Name: "content"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
		).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying class: %w", err)
	}

	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("querying class: %s", resp.Errors[0].Message)
	}

	var parsed struct {
		Get map[string][]struct {
			Content    string `json:"content"`
			Additional struct {
				Distance float64 `json:"distance"`
			} `json:"_additional"`
		} `json:"Get"`
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling response: %w", err)
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	rows := parsed.Get[s.cfg.Class]
	hits := make([]Hit, 0, len(rows))

	for _, row := range rows {
		hits = append(hits, Hit{
			Content: row.Content,
			Score:   1 - row.Additional.Distance,
		})
	}

	return hits, nil
}

// Stats returns the aggregate object count plus an estimated storage size.
// Weaviate exposes no per-class disk usage over the API, so the size derives
// from the object count and dimensionality.
func (s *WeaviateStore) Stats(ctx context.Context) (*Stats, error) {
	resp, err := s.client.GraphQL().Aggregate().
		WithClassName(s.cfg.Class).
		WithFields(graphql.Field{
			Name:   "meta",
			Fields: []graphql.Field{{Name: "count"}},
		}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregating class: %w", err)
	}

	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("aggregating class: %s", resp.Errors[0].Message)
	}

	var parsed struct {
		Aggregate map[string][]struct {
			Meta struct {
				Count int64 `json:"count"`
			} `json:"meta"`
		} `json:"Aggregate"`
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling response: %w", err)
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	var count int64
	if rows := parsed.Aggregate[s.cfg.Class]; len(rows) > 0 {
		count = rows[0].Meta.Count
	}

	perObject := float64(s.dim*4 + estimatedChunkBytes + estimatedMetadataBytes)

	return &Stats{
		Count:     count,
		SizeBytes: int64(float64(count) * perObject * indexOverheadFactor),
	}, nil
}

// Close is a no-op: the client holds no persistent connections.
func (s *WeaviateStore) Close() error { return nil }
