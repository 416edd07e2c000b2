package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/propertybot/internal/api"
	"github.com/cloo-solutions/propertybot/internal/domain"
)

type PropertySearcher interface {
	Find(ctx context.Context, query string) ([]*domain.Property, error)
}

type SearchHandler struct {
	svc PropertySearcher
}

func NewSearchHandler(svc PropertySearcher) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query string `json:"query"`
}

type PropertyResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SingleLine  string `json:"single_line,omitempty"`
}

func propertyToResponse(p *domain.Property) *PropertyResponse {
	return &PropertyResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		SingleLine:  p.SingleLine,
	}
}

// Search handles POST /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	properties, err := h.svc.Find(r.Context(), req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]*PropertyResponse, 0, len(properties))
	for _, p := range properties {
		results = append(results, propertyToResponse(p))
	}

	api.Success(w, http.StatusOK, results)
}
