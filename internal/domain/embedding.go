package domain

import "fmt"

// EmbeddingMetadata is stored next to each vector so matches can be shown
// without a database round trip.
type EmbeddingMetadata struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SingleLine string `json:"singleLine"`
}

// EmbeddingEntry is one indexed vector, keyed by property ID. Re-indexing
// replaces the vector and metadata wholesale.
type EmbeddingEntry struct {
	PropertyID string
	Vector     []float32
	Text       string
	Metadata   EmbeddingMetadata
}

// SearchMatch is a single search hit. Score is in [0, 1], higher is closer.
type SearchMatch struct {
	PropertyID string
	Score      float64
	Text       string
	Metadata   EmbeddingMetadata
}

// NewEmbeddingEntry builds the index entry for a property.
func NewEmbeddingEntry(p *Property, text string, vector []float32) *EmbeddingEntry {
	return &EmbeddingEntry{
		PropertyID: p.ID,
		Vector:     vector,
		Text:       text,
		Metadata: EmbeddingMetadata{
			ID:         p.ID,
			Title:      p.Title,
			SingleLine: p.SingleLine,
		},
	}
}

// ValidateEmbeddingEntry validates an EmbeddingEntry instance
func ValidateEmbeddingEntry(e *EmbeddingEntry) error {
	if e == nil {
		return fmt.Errorf("embedding entry cannot be nil")
	}

	if e.PropertyID == "" {
		return fmt.Errorf("embedding entry PropertyID is required")
	}

	if len(e.Vector) == 0 {
		return fmt.Errorf("embedding entry Vector is required")
	}

	return nil
}
