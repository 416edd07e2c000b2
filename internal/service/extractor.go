package service

import (
	"encoding/json"
	"log"
	"regexp"

	"github.com/google/uuid"
)

var (
	uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	// Fragment ids must be the hyphenated form the direct scan also sees,
	// so both scans agree on position.
	canonicalPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// Single-level objects only; nested braces never match as a whole.
	fragmentPattern = regexp.MustCompile(`\{[^{}]*\}`)
)

// Fragment is a JSON-like placeholder found in generated text.
type Fragment struct {
	Raw string // exact matched text, e.g. {"id": "54d5...38bd"}
	ID  string // canonical identifier, empty when the fragment carried none
}

// IdentifierExtractor finds property identifiers in generated answers.
type IdentifierExtractor struct {
	debug bool
}

// NewIdentifierExtractor creates a new IdentifierExtractor. With debug set,
// fragments that fail to decode are logged.
func NewIdentifierExtractor(debug bool) *IdentifierExtractor {
	return &IdentifierExtractor{debug: debug}
}

// Extract returns the canonical identifiers found in text, in first-seen
// order and without duplicates. It combines a direct UUID scan with the
// fragment scan so that identifiers the model forgot to wrap still resolve.
func (e *IdentifierExtractor) Extract(text string) []string {
	ids := make([]string, 0)
	if text == "" {
		return ids
	}

	seen := make(map[string]struct{})
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, candidate := range uuidPattern.FindAllString(text, -1) {
		parsed, err := uuid.Parse(candidate)
		if err != nil {
			continue
		}
		add(parsed.String())
	}

	for _, f := range e.ExtractFragments(text) {
		if f.ID != "" {
			add(f.ID)
		}
	}

	return ids
}

// ExtractFragments returns every single-level {...} fragment in text. A
// fragment that is not valid JSON, or whose id is missing or not a
// hyphenated UUID, is returned with an empty ID.
func (e *IdentifierExtractor) ExtractFragments(text string) []Fragment {
	matches := fragmentPattern.FindAllString(text, -1)
	fragments := make([]Fragment, 0, len(matches))

	for _, raw := range matches {
		fragments = append(fragments, Fragment{Raw: raw, ID: e.fragmentID(raw)})
	}

	return fragments
}

func (e *IdentifierExtractor) fragmentID(raw string) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		if e.debug {
			log.Printf("extractor: skipping malformed fragment %q: %v", raw, err)
		}
		return ""
	}

	value, ok := obj["id"].(string)
	if !ok {
		return ""
	}

	if !canonicalPattern.MatchString(value) {
		if e.debug {
			log.Printf("extractor: fragment id %q is not a UUID", value)
		}
		return ""
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return ""
	}

	return parsed.String()
}
