package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	idA = "54d5dbc8-f2d1-49a5-985a-bde311a438bd"
	idB = "0f8b7e0a-3c1d-4a9e-9b6f-2f1c0d9e8a71"
	idC = "a3c6e4f2-9d21-4b0e-8f7a-11d2c3b4e5f6"
)

func TestExtract_PlaceholdersAndBareIDs(t *testing.T) {
	e := NewIdentifierExtractor(false)

	text := `Try {"id": "` + idA + `"} near the park, or ` + idB + ` by the sea.`
	assert.Equal(t, []string{idA, idB}, e.Extract(text))
}

func TestExtract_DeduplicatesInFirstSeenOrder(t *testing.T) {
	e := NewIdentifierExtractor(false)

	text := idB + ` then {"id": "` + idA + `"} and again {"id":"` + idB + `"} and ` + idA
	assert.Equal(t, []string{idB, idA}, e.Extract(text))
}

func TestExtract_CanonicalisesCase(t *testing.T) {
	e := NewIdentifierExtractor(false)

	ids := e.Extract(`{"id": "` + strings.ToUpper(idA) + `"} and ` + idA)
	assert.Equal(t, []string{idA}, ids)
}

func TestExtract_UnhyphenatedFragmentDoesNotJumpAhead(t *testing.T) {
	e := NewIdentifierExtractor(false)

	text := `First {"id": "54d5dbc8f2d149a5985abde311a438bd"} then ` + idB + `.`
	assert.Equal(t, []string{idB}, e.Extract(text))

	fragments := e.ExtractFragments(text)
	require.Len(t, fragments, 1)
	assert.Empty(t, fragments[0].ID)
}

func TestExtract_KeepsTextOrderAcrossForms(t *testing.T) {
	e := NewIdentifierExtractor(false)

	for _, wrapped := range []string{"{" + idC + "}", "urn:uuid:" + idC} {
		text := `{"id": "` + wrapped + `"} then ` + idB + ` then {"id": "` + idA + `"}`
		assert.Equal(t, []string{idC, idB, idA}, e.Extract(text), wrapped)
	}
}

func TestExtract_NoIdentifiers(t *testing.T) {
	e := NewIdentifierExtractor(true)

	for _, text := range []string{
		"",
		"I don't know, the team will contact you.",
		"{}",
		"{{{{",
		"}}}{",
		`{"id": 42}`,
		`{"id": "not-a-uuid"}`,
		`{"name": "flat"}`,
		"54d5dbc8-f2d1-49a5-985a",
	} {
		ids := e.Extract(text)
		require.NotNil(t, ids, "input %q", text)
		assert.Empty(t, ids, "input %q", text)
	}
}

func TestExtract_MalformedFragmentDoesNotHideOthers(t *testing.T) {
	e := NewIdentifierExtractor(true)

	text := `{"id": "` + idA + `", broken} and {"id": "` + idB + `"}`
	ids := e.Extract(text)

	// The bare scan still sees idA inside the broken fragment.
	assert.Equal(t, []string{idA, idB}, ids)

	fragments := e.ExtractFragments(text)
	require.Len(t, fragments, 2)
	assert.Empty(t, fragments[0].ID)
	assert.Equal(t, idB, fragments[1].ID)
}

func TestExtract_NestedFragmentsMatchInnermostOnly(t *testing.T) {
	e := NewIdentifierExtractor(false)

	text := `{"outer": {"id": "` + idC + `"}}`
	fragments := e.ExtractFragments(text)

	require.Len(t, fragments, 1)
	assert.Equal(t, `{"id": "`+idC+`"}`, fragments[0].Raw)
	assert.Equal(t, idC, fragments[0].ID)
	assert.Equal(t, []string{idC}, e.Extract(text))
}

func TestExtractFragments_KeepsRawText(t *testing.T) {
	e := NewIdentifierExtractor(false)

	raw := `{ "ID": "x", "id" :"` + strings.ToUpper(idA) + `" }`
	fragments := e.ExtractFragments("see " + raw + " here")

	require.Len(t, fragments, 1)
	assert.Equal(t, raw, fragments[0].Raw)
	assert.Equal(t, idA, fragments[0].ID)
}

func TestExtract_ArbitraryInputNeverPanics(t *testing.T) {
	e := NewIdentifierExtractor(true)

	inputs := []string{
		strings.Repeat("{", 500) + strings.Repeat("}", 500),
		"\x00\xff{\"id\":\"\xff\"}",
		`{"id": null}`,
		`{"id": ["` + idA + `"]}`,
		strings.Repeat(idA, 50),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { e.Extract(in) })
	}
}
