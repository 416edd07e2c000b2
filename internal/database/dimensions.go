package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDimensionMismatch is returned when stored embeddings have a different
// size than the configured provider produces.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// EmbeddingDimensions reads the declared size of property_embeddings.embedding.
// pgvector stores the dimension as the column's type modifier.
func EmbeddingDimensions(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	var typmod int32
	err := pool.QueryRow(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'property_embeddings'::regclass AND attname = 'embedding'
	`).Scan(&typmod)
	if err != nil {
		return 0, fmt.Errorf("failed to read embedding column: %w", err)
	}
	return int(typmod), nil
}

// EnsureEmbeddingDimensions makes the embedding column hold vectors of size
// want. An empty table is altered in place; a populated one with another
// size fails with ErrDimensionMismatch.
func EnsureEmbeddingDimensions(ctx context.Context, pool *pgxpool.Pool, want int) error {
	have, err := EmbeddingDimensions(ctx, pool)
	if err != nil {
		return err
	}
	if have == want {
		return nil
	}

	var stored int64
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM property_embeddings`).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count embeddings: %w", err)
	}
	if err := checkDimensions(have, want, stored); err != nil {
		return err
	}

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, fmt.Sprintf(`ALTER TABLE property_embeddings ALTER COLUMN embedding TYPE vector(%d)`, want))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to resize embedding column to %d: %w", want, err)
	}
	log.Printf("database: embedding column resized from %d to %d dimensions", have, want)
	return nil
}

// checkDimensions decides whether a column of size have can move to want.
func checkDimensions(have, want int, stored int64) error {
	if want <= 0 {
		return fmt.Errorf("%w: configured size %d is not positive", ErrDimensionMismatch, want)
	}
	if have != want && stored > 0 {
		return fmt.Errorf("%w: database embedding column has %d dimensions but EMBEDDING_DIMENSIONS is %d (%d embeddings stored; re-import into an empty database to switch)",
			ErrDimensionMismatch, have, want, stored)
	}
	return nil
}
