package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPropertyHandler_Create(t *testing.T) {
	svc := new(MockPropertyImporter)
	handler := NewPropertyHandler(svc)

	svc.On("ImportProperty", mock.Anything, service.PropertyInput{
		ID: listingID, Title: "Park flat", Description: "Two rooms", SingleLine: "Riga",
	}).Return(true, nil)

	body := `{"id":"` + listingID + `","title":"Park flat","description":"Two rooms","single_line":"Riga"}`
	w := httptest.NewRecorder()
	handler.Create(w, httptest.NewRequest(http.MethodPost, "/properties", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"data":{"imported":true}}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestPropertyHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"invalid body", `{`, "invalid request body"},
		{"missing id", `{"title":"x"}`, "id is required"},
		{"missing title", `{"id":"` + listingID + `"}`, "title is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPropertyImporter)
			w := httptest.NewRecorder()
			NewPropertyHandler(svc).Create(w, httptest.NewRequest(http.MethodPost, "/properties", bytes.NewBufferString(tt.body)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			svc.AssertNotCalled(t, "ImportProperty", mock.Anything, mock.Anything)
		})
	}
}

func TestPropertyHandler_Create_Duplicate(t *testing.T) {
	svc := new(MockPropertyImporter)
	svc.On("ImportProperty", mock.Anything, mock.Anything).Return(false, domain.ErrPropertyAlreadyExists)

	body := `{"id":"` + listingID + `","title":"Park flat"}`
	w := httptest.NewRecorder()
	NewPropertyHandler(svc).Create(w, httptest.NewRequest(http.MethodPost, "/properties", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPropertyHandler_Import(t *testing.T) {
	svc := new(MockPropertyImporter)
	report := &service.ImportReport{Source: "s3://listings/all.csv", Read: 3, Imported: 2, Skipped: 1}
	svc.On("ImportFile", mock.Anything, "s3://listings/all.csv", mock.Anything).Return(report, nil)

	w := httptest.NewRecorder()
	NewPropertyHandler(svc).Import(w, httptest.NewRequest(http.MethodPost, "/imports", bytes.NewBufferString(`{"source":"s3://listings/all.csv"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"source":"s3://listings/all.csv","read":3,"imported":2,"skipped":1,"failed":0}}`, w.Body.String())
}

func TestPropertyHandler_Import_MissingSource(t *testing.T) {
	svc := new(MockPropertyImporter)
	svc.On("ImportFile", mock.Anything, "gone.csv", mock.Anything).Return(nil, domain.ErrImportSourceMissing)

	w := httptest.NewRecorder()
	NewPropertyHandler(svc).Import(w, httptest.NewRequest(http.MethodPost, "/imports", bytes.NewBufferString(`{"source":"gone.csv"}`)))

	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	NewPropertyHandler(svc).Import(w, httptest.NewRequest(http.MethodPost, "/imports", bytes.NewBufferString(`{"source":" "}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
