// Package index provides a process-local embedding index.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/propertybot/internal/domain"
)

// Memory is an in-memory embedding index using cosine similarity. Scores are
// mapped to [0, 1] as (1 + cos) / 2, the same scale the pgvector repository
// uses, so thresholds carry over between the two.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*domain.EmbeddingEntry
	norms   map[string]float64
}

// NewMemory creates an empty index.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*domain.EmbeddingEntry),
		norms:   make(map[string]float64),
	}
}

// Index upserts an entry. The vector is copied.
func (m *Memory) Index(ctx context.Context, entry *domain.EmbeddingEntry) error {
	if err := domain.ValidateEmbeddingEntry(entry); err != nil {
		return err
	}

	stored := *entry
	stored.Vector = append([]float32(nil), entry.Vector...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.PropertyID] = &stored
	m.norms[entry.PropertyID] = norm(stored.Vector)
	return nil
}

// Load replaces the whole index, e.g. when warming from the database.
func (m *Memory) Load(entries []*domain.EmbeddingEntry) error {
	fresh := NewMemory()
	for _, e := range entries {
		if err := fresh.Index(context.Background(), e); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = fresh.entries
	m.norms = fresh.norms
	return nil
}

// Len returns the number of indexed entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Search returns entries scoring at least minScore, best first, capped at
// maxResults. Entries whose dimension differs from the query are ignored.
func (m *Memory) Search(ctx context.Context, vector []float32, minScore float64, maxResults int) ([]domain.SearchMatch, error) {
	matches := make([]domain.SearchMatch, 0)
	if maxResults <= 0 {
		return matches, nil
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}

	qNorm := norm(vector)

	m.mu.RLock()
	for id, e := range m.entries {
		if len(e.Vector) != len(vector) {
			continue
		}
		score := relevance(vector, e.Vector, qNorm, m.norms[id])
		if !(score >= minScore) {
			continue
		}
		matches = append(matches, domain.SearchMatch{
			PropertyID: id,
			Score:      score,
			Text:       e.Text,
			Metadata:   e.Metadata,
		})
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].PropertyID < matches[j].PropertyID
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

func relevance(a, b []float32, aNorm, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0.5
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	cos := dot / (aNorm * bNorm)
	// Guard against rounding just outside [-1, 1].
	cos = math.Max(-1, math.Min(1, cos))
	return (1 + cos) / 2
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
