package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/propertybot/internal/domain"
)

// placeholderFormat is the form the system prompt asks the model to use.
const placeholderFormat = `{"id": "%s"}`

// Placeholder returns the canonical placeholder for an identifier.
func Placeholder(id string) string {
	return fmt.Sprintf(placeholderFormat, id)
}

// ResponseComposer substitutes identifier placeholders with display codes.
type ResponseComposer struct {
	extractor *IdentifierExtractor
}

// NewResponseComposer creates a new ResponseComposer
func NewResponseComposer(extractor *IdentifierExtractor) *ResponseComposer {
	return &ResponseComposer{extractor: extractor}
}

// Compose replaces every placeholder of a resolved record with the record's
// display code. Placeholders of unresolved identifiers, and of records with
// no display code, are left verbatim. Applying Compose twice gives the same
// text as applying it once.
func (c *ResponseComposer) Compose(raw string, records []domain.ListedProperty) (string, []domain.ListedProperty) {
	if len(records) == 0 {
		return raw, []domain.ListedProperty{}
	}

	codes := make(map[string]string, len(records))
	text := raw
	for _, rec := range records {
		if rec.SerialID == "" {
			continue
		}
		codes[domain.CanonicalID(rec.ID)] = rec.SerialID
		text = strings.ReplaceAll(text, Placeholder(rec.ID), rec.SerialID)
	}

	// Same placeholders written with other spacing or letter case.
	for _, f := range c.extractor.ExtractFragments(text) {
		if f.ID == "" {
			continue
		}
		if code, ok := codes[f.ID]; ok {
			text = strings.ReplaceAll(text, f.Raw, code)
		}
	}

	return text, records
}
