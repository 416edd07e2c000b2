package server

import (
	"net/http"

	"github.com/cloo-solutions/propertybot/internal/api"
	"github.com/cloo-solutions/propertybot/internal/api/handlers"
	"github.com/cloo-solutions/propertybot/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	ChatHandler   *handlers.ChatHandler
	SearchHandler *handlers.SearchHandler
	// PropertyHandler and AuthValidator enable the ingestion endpoints
	// when both are set.
	PropertyHandler *handlers.PropertyHandler
	AuthValidator   middleware.AuthValidator
	Metrics         http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Get("/chatbot", cfg.ChatHandler.Stream)
	r.Post("/chat/open", cfg.ChatHandler.Open)
	r.Post("/chat", cfg.ChatHandler.Message)
	r.Post("/search", cfg.SearchHandler.Search)

	if cfg.PropertyHandler != nil && cfg.AuthValidator != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

			r.Post("/properties", cfg.PropertyHandler.Create)
			r.Post("/imports", cfg.PropertyHandler.Import)
		})
	}

	return r
}
