package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEmbeddingEntry(t *testing.T) {
	p := NewProperty("54d5dbc8-f2d1-49a5-985a-bde311a438bd", "Flat", "Bright", "Porto")
	e := NewEmbeddingEntry(p, "Bright Location - Porto", []float32{0.1, 0.2})

	assert.Equal(t, p.ID, e.PropertyID)
	assert.Equal(t, "Bright Location - Porto", e.Text)
	assert.Equal(t, EmbeddingMetadata{ID: p.ID, Title: "Flat", SingleLine: "Porto"}, e.Metadata)
	assert.NoError(t, ValidateEmbeddingEntry(e))
}

func TestValidateEmbeddingEntry(t *testing.T) {
	assert.Error(t, ValidateEmbeddingEntry(nil))
	assert.Error(t, ValidateEmbeddingEntry(&EmbeddingEntry{Vector: []float32{1}}))
	assert.Error(t, ValidateEmbeddingEntry(&EmbeddingEntry{PropertyID: "p1"}))
}

func TestChatTurn_Advance(t *testing.T) {
	turn := &ChatTurn{Stage: TurnStageReceived}

	turn.Advance(TurnStageGenerated)
	assert.Equal(t, TurnStageGenerated, turn.Stage)

	turn.Advance(TurnStageEmbedded)
	assert.Equal(t, TurnStageGenerated, turn.Stage, "stages never move backwards")

	turn.Advance(TurnStageDelivered)
	assert.Equal(t, TurnStageDelivered, turn.Stage)
}
