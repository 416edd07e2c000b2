package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
)

const (
	DefaultSearchMinScore   = 0.8
	DefaultSearchMaxResults = 5
)

// SearchConfig tunes direct semantic search.
type SearchConfig struct {
	MinScore   float64
	MaxResults int
}

// SearchService answers free-text queries with stored properties, without
// involving the generation model.
type SearchService struct {
	embedder EmbeddingClient
	index    EmbeddingIndex
	repo     PropertyRepositoryInterface
	cfg      SearchConfig
}

// NewSearchService creates a new SearchService instance
func NewSearchService(embedder EmbeddingClient, index EmbeddingIndex, repo PropertyRepositoryInterface, cfg SearchConfig) *SearchService {
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultSearchMinScore
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultSearchMaxResults
	}
	return &SearchService{embedder: embedder, index: index, repo: repo, cfg: cfg}
}

// Find returns the properties closest to query, best match first. Matches
// whose property row is gone are skipped.
func (s *SearchService) Find(ctx context.Context, query string) ([]*domain.Property, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	ctx, span := telemetry.StartSpan(ctx, "SearchService.Find", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	vector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, domain.ErrEmbeddingFailed.Wrap(err)
	}

	matches, err := s.index.Search(ctx, vector, s.cfg.MinScore, s.cfg.MaxResults)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []*domain.Property{}, nil
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.PropertyID)
	}

	rows, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Property, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}

	results := make([]*domain.Property, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			results = append(results, p)
		}
	}

	return results, nil
}
