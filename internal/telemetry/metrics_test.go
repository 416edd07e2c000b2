package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_RecordsAndExposes(t *testing.T) {
	m := NewMetrics()

	m.Turn(OutcomeDelivered, 1500*time.Millisecond)
	m.Turn(OutcomeGenerationFailed, time.Second)
	m.ExtractedIDs(3)
	m.ResolutionMisses(1)
	m.CatalogFailure()
	m.ImportRows(RowImported, 10)
	m.ImportRows(RowSkipped, 2)
	m.SessionOpened()

	body := scrape(t, m)

	assert.Contains(t, body, `propertybot_chat_turns_total{outcome="delivered"} 1`)
	assert.Contains(t, body, `propertybot_chat_turns_total{outcome="generation_failed"} 1`)
	assert.Contains(t, body, "propertybot_chat_extracted_ids_total 3")
	assert.Contains(t, body, "propertybot_catalog_resolution_misses_total 1")
	assert.Contains(t, body, "propertybot_catalog_failures_total 1")
	assert.Contains(t, body, `propertybot_import_rows_total{outcome="imported"} 10`)
	assert.Contains(t, body, `propertybot_import_rows_total{outcome="skipped"} 2`)
	assert.Contains(t, body, "propertybot_chat_active_sessions 1")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Turn(OutcomeDelivered, time.Second)
		m.ExtractedIDs(1)
		m.ResolutionMisses(1)
		m.CatalogFailure()
		m.ImportRows(RowFailed, 1)
		m.SessionOpened()
		m.SessionClosed()
	})

	assert.NotNil(t, m.Handler())
}
