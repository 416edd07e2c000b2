package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/propertybot/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingIndex stores property vectors and answers similarity queries.
type EmbeddingIndex interface {
	// Index upserts the entry keyed by its property ID.
	Index(ctx context.Context, entry *domain.EmbeddingEntry) error
	// Search returns matches with Score >= minScore, highest first, at most
	// maxResults of them. No match is not an error.
	Search(ctx context.Context, vector []float32, minScore float64, maxResults int) ([]domain.SearchMatch, error)
}

// BuildEmbeddingText builds the passage embedded for a property. The trailing
// ID lets the model quote the identifier back in its answer.
func BuildEmbeddingText(p *domain.Property) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Description))
	if p.SingleLine != "" {
		b.WriteString(" Location - ")
		b.WriteString(p.SingleLine)
	}
	b.WriteString(" ID - ")
	b.WriteString(p.ID)
	return strings.TrimSpace(b.String())
}

// embedProperty generates the index entry for a property.
func embedProperty(ctx context.Context, client EmbeddingClient, p *domain.Property) (*domain.EmbeddingEntry, error) {
	text := BuildEmbeddingText(p)
	vector, err := client.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding for %s: %w", p.ID, err)
	}
	return domain.NewEmbeddingEntry(p, text, vector), nil
}
