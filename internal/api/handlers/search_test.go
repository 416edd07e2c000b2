package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSearchHandler_Search(t *testing.T) {
	svc := new(MockPropertySearcher)
	handler := NewSearchHandler(svc)

	svc.On("Find", mock.Anything, "sea view").Return([]*domain.Property{
		{ID: listingID, Title: "Sea house", Description: "Large house", SingleLine: "Jurmala"},
	}, nil)

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{"query":"sea view"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"id":"`+listingID+`","title":"Sea house","description":"Large house","single_line":"Jurmala"}]}`, w.Body.String())
}

func TestSearchHandler_NoMatchesIsEmptyList(t *testing.T) {
	svc := new(MockPropertySearcher)
	handler := NewSearchHandler(svc)
	svc.On("Find", mock.Anything, "castle").Return([]*domain.Property{}, nil)

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{"query":"castle"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestSearchHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"invalid body", `not json`, nil, http.StatusBadRequest},
		{"empty query", `{"query":""}`, domain.ErrEmptyQuery, http.StatusBadRequest},
		{"embedding failure", `{"query":"q"}`, domain.ErrEmbeddingFailed, http.StatusBadGateway},
		{"index failure", `{"query":"q"}`, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPropertySearcher)
			svc.On("Find", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := httptest.NewRecorder()
			NewSearchHandler(svc).Search(w, httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
