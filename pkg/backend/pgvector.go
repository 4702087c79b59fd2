package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wablabs/vectorbench/pkg/config"
)

const pgTable = "spec_chunks"

// insertBatchSize bounds the parameter count of one multi-row INSERT.
const insertBatchSize = 100

// PGVectorStore benchmarks PostgreSQL with the pgvector extension.
type PGVectorStore struct {
	log logrus.FieldLogger
	cfg config.PostgresConfig
	dim int
	db  *gorm.DB
}

var _ Store = (*PGVectorStore)(nil)

// NewPGVectorStore connects to PostgreSQL and prepares the pgvector schema.
func NewPGVectorStore(log logrus.FieldLogger, cfg config.PostgresConfig, dim int) (*PGVectorStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &PGVectorStore{
		log: log.WithField("component", "backend.pgvector"),
		cfg: cfg,
		dim: dim,
		db:  db,
	}

	return s, nil
}

// Name identifies the backend.
func (s *PGVectorStore) Name() string { return "pgvector" }

// Ready verifies connectivity and the pgvector extension.
func (s *PGVectorStore) Ready(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("pinging postgres: %w", err)
	}

	if err := s.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enabling pgvector extension: %w", err)
	}

	return nil
}

// Reset drops and recreates the chunk table and its HNSW index, giving each
// run a cold, empty store.
func (s *PGVectorStore) Reset(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if err := db.Exec("DROP TABLE IF EXISTS " + pgTable).Error; err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}

	create := fmt.Sprintf(
		`CREATE TABLE %s (
			id SERIAL PRIMARY KEY,
			source TEXT NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, pgTable, s.dim,
	)
	if err := db.Exec(create).Error; err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	index := fmt.Sprintf(
		"CREATE INDEX ON %s USING hnsw (embedding vector_l2_ops) WITH (m = %d, ef_construction = %d)",
		pgTable, s.cfg.HNSWM, s.cfg.HNSWEfConstruction,
	)
	if err := db.Exec(index).Error; err != nil {
		return fmt.Errorf("creating hnsw index: %w", err)
	}

	return nil
}

// Insert ingests chunks in multi-row batches.
func (s *PGVectorStore) Insert(ctx context.Context, chunks []Chunk) error {
	db := s.db.WithContext(ctx)

	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[start:end]

		var (
			sb   strings.Builder
			args = make([]any, 0, len(batch)*4)
		)

		sb.WriteString("INSERT INTO " + pgTable + " (source, chunk_index, content, embedding) VALUES ")

		for i, c := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString("(?, ?, ?, ?::vector)")
			args = append(args, c.Source, c.Index, c.Content, vectorLiteral(c.Vector))
		}

		if err := db.Exec(sb.String(), args...).Error; err != nil {
			return fmt.Errorf("inserting chunk batch: %w", err)
		}
	}

	return nil
}

// Query runs an L2 nearest-neighbor search. Vectors are unit length, so the
// cosine similarity falls out of the distance as 1 - d^2/2.
func (s *PGVectorStore) Query(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	db := s.db.WithContext(ctx)

	if err := db.Exec("SET hnsw.ef_search = " + strconv.Itoa(s.cfg.HNSWEfSearch)).Error; err != nil {
		return nil, fmt.Errorf("setting ef_search: %w", err)
	}

	var rows []struct {
		Content  string
		Distance float64
	}

	query := fmt.Sprintf(
		"SELECT content, embedding <-> ?::vector AS distance FROM %s ORDER BY distance LIMIT ?",
		pgTable,
	)

	lit := vectorLiteral(vector)
	if err := db.Raw(query, lit, limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}

	hits := make([]Hit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, Hit{
			Content: row.Content,
			Score:   1 - (row.Distance*row.Distance)/2,
		})
	}

	return hits, nil
}

// Stats reports the row count and total relation size including indexes.
func (s *PGVectorStore) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)

	var stats Stats

	if err := db.Raw("SELECT count(*) FROM " + pgTable).Scan(&stats.Count).Error; err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}

	if err := db.Raw("SELECT pg_total_relation_size(?)", pgTable).Scan(&stats.SizeBytes).Error; err != nil {
		return nil, fmt.Errorf("reading relation size: %w", err)
	}

	return &stats, nil
}

// Close releases the connection pool.
func (s *PGVectorStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("accessing connection pool: %w", err)
	}

	return sqlDB.Close()
}

// vectorLiteral renders a vector in pgvector's text format, e.g. [0.1,0.2].
func vectorLiteral(vec []float32) string {
	var sb strings.Builder

	sb.Grow(len(vec) * 10)
	sb.WriteByte('[')

	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}

	sb.WriteByte(']')

	return sb.String()
}
