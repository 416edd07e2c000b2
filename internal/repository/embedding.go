package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingRepository is the pgvector-backed embedding index. Scores are
// cosine similarity mapped to [0, 1] as (1 + cos) / 2.
type EmbeddingRepository struct {
	db dbtx
}

func NewEmbeddingRepository(pool *pgxpool.Pool) *EmbeddingRepository {
	return &EmbeddingRepository{db: pool}
}

func NewEmbeddingRepositoryWithTx(tx pgx.Tx) *EmbeddingRepository {
	return &EmbeddingRepository{db: tx}
}

func (r *EmbeddingRepository) Index(ctx context.Context, entry *domain.EmbeddingEntry) error {
	if err := domain.ValidateEmbeddingEntry(entry); err != nil {
		return err
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode embedding metadata: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO property_embeddings (property_id, embedding, content, metadata, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (property_id) DO UPDATE
		 SET embedding = EXCLUDED.embedding,
		     content = EXCLUDED.content,
		     metadata = EXCLUDED.metadata,
		     updated_at = EXCLUDED.updated_at`,
		entry.PropertyID, pgvector.NewVector(entry.Vector), entry.Text, metadata, time.Now().UTC(),
	)
	return err
}

func (r *EmbeddingRepository) Search(ctx context.Context, vector []float32, minScore float64, maxResults int) ([]domain.SearchMatch, error) {
	matches := make([]domain.SearchMatch, 0)
	if maxResults <= 0 {
		return matches, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT property_id, content, metadata, score
		 FROM (
			SELECT property_id, content, metadata,
			       1.0 - (embedding <=> $1) / 2.0 AS score
			FROM property_embeddings
		 ) scored
		 WHERE score >= $2
		 ORDER BY score DESC, property_id
		 LIMIT $3`,
		pgvector.NewVector(vector), minScore, maxResults,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.SearchMatch
		var metadata []byte
		if err := rows.Scan(&m.PropertyID, &m.Text, &metadata, &m.Score); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of %s: %w", m.PropertyID, err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// All returns every stored entry, used to warm the in-memory index.
func (r *EmbeddingRepository) All(ctx context.Context) ([]*domain.EmbeddingEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT property_id, embedding, content, metadata FROM property_embeddings ORDER BY property_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.EmbeddingEntry, 0)
	for rows.Next() {
		var e domain.EmbeddingEntry
		var vec pgvector.Vector
		var metadata []byte
		if err := rows.Scan(&e.PropertyID, &vec, &e.Text, &metadata); err != nil {
			return nil, err
		}
		e.Vector = vec.Slice()
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of %s: %w", e.PropertyID, err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
