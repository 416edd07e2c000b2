package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/propertybot/internal/api"
	"github.com/cloo-solutions/propertybot/internal/service"
)

type PropertyImporter interface {
	ImportProperty(ctx context.Context, input service.PropertyInput) (bool, error)
	ImportFile(ctx context.Context, source string, progress service.ImportProgressFunc) (*service.ImportReport, error)
}

type PropertyHandler struct {
	svc PropertyImporter
}

func NewPropertyHandler(svc PropertyImporter) *PropertyHandler {
	return &PropertyHandler{svc: svc}
}

type CreatePropertyRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SingleLine  string `json:"single_line"`
}

type ImportRequest struct {
	Source string `json:"source"`
}

// Create handles POST /properties.
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.ID) == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	imported, err := h.svc.ImportProperty(r.Context(), service.PropertyInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		SingleLine:  req.SingleLine,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, map[string]bool{"imported": imported})
}

// Import handles POST /imports. The import runs within the request.
func (h *PropertyHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Source) == "" {
		api.Error(w, http.StatusBadRequest, "source is required")
		return
	}

	report, err := h.svc.ImportFile(r.Context(), req.Source, nil)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, report)
}
