package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Property is an ingested listing record. It is immutable once created; ID
// is the join key between the index, the database and the catalog.
type Property struct {
	ID          string
	Title       string
	Description string
	SingleLine  string // one-line location, e.g. "12 Harbour St, Lisbon"
	CreatedAt   time.Time
}

// NewProperty creates a Property with a canonical identifier.
func NewProperty(id, title, description, singleLine string) *Property {
	return &Property{
		ID:          CanonicalID(id),
		Title:       title,
		Description: description,
		SingleLine:  singleLine,
		CreatedAt:   time.Now().UTC(),
	}
}

// ValidateProperty validates a Property instance
func ValidateProperty(p *Property) error {
	if p == nil {
		return ErrInvalidProperty.Wrap(fmt.Errorf("property cannot be nil"))
	}

	if _, err := uuid.Parse(p.ID); err != nil {
		return ErrInvalidProperty.Wrap(fmt.Errorf("property ID %q is not a UUID", p.ID))
	}

	if strings.TrimSpace(p.Title) == "" {
		return ErrInvalidProperty.Wrap(fmt.Errorf("property Title is required"))
	}

	return nil
}

// CanonicalID returns the lower-case hyphenated form of a UUID, or the input
// unchanged when it does not parse.
func CanonicalID(id string) string {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return id
	}
	return parsed.String()
}

// MediaFile is an image or document attached to a catalog listing.
type MediaFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ListedProperty is the presentable form of a property as held by the
// external catalog. SerialID is the short display code shown to users.
type ListedProperty struct {
	ID          string      `json:"id"`
	SerialID    string      `json:"serialId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Media       []MediaFile `json:"media"`
}
