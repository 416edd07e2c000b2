package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "PROPERTYBOT"

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// fixedEmbeddingDimensions lists embedding models whose output size cannot
// be changed by request.
var fixedEmbeddingDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
}

// DefaultEmbeddingDimensions returns the embedding size used by provider
// when EMBEDDING_DIMENSIONS is unset.
func DefaultEmbeddingDimensions(provider string) int {
	if strings.EqualFold(provider, ProviderOllama) {
		return 768
	}
	return 1536
}

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	// MemoryIndex serves searches from an in-memory copy of the stored
	// embeddings instead of querying pgvector.
	MemoryIndex bool `envconfig:"MEMORY_INDEX" default:"false"`

	Provider string `envconfig:"PROVIDER" default:"openai"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envconfig:"OPENAI_BASE_URL"`
	OpenAIChatModel      string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	// EmbeddingDimensions defaults to the active provider's embedding size
	// and must match the pgvector column.
	EmbeddingDimensions int `envconfig:"EMBEDDING_DIMENSIONS"`

	OllamaURL            string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OllamaChatModel      string `envconfig:"OLLAMA_CHAT_MODEL" default:"mistral"`
	OllamaEmbeddingModel string `envconfig:"OLLAMA_EMBEDDING_MODEL" default:"nomic-embed-text:latest"`

	CatalogURL     string        `envconfig:"CATALOG_URL"`
	CatalogToken   string        `envconfig:"CATALOG_TOKEN"`
	CatalogTimeout time.Duration `envconfig:"CATALOG_TIMEOUT" default:"30s"`

	SearchMinScore   float64 `envconfig:"SEARCH_MIN_SCORE" default:"0.8"`
	SearchMaxResults int     `envconfig:"SEARCH_MAX_RESULTS" default:"5"`
	RAGMinScore      float64 `envconfig:"RAG_MIN_SCORE" default:"0.9"`
	RAGMaxResults    int     `envconfig:"RAG_MAX_RESULTS" default:"5"`

	ImportBatchSize int           `envconfig:"IMPORT_BATCH_SIZE" default:"1000"`
	ImportFile      string        `envconfig:"IMPORT_FILE"`
	ImportInterval  time.Duration `envconfig:"IMPORT_INTERVAL" default:"0s"`
	EmbedRateLimit  float64       `envconfig:"EMBED_RATE_LIMIT" default:"10"`

	// AdminAPIKey guards the ingestion endpoints; empty disables them.
	AdminAPIKey string `envconfig:"ADMIN_API_KEY"`

	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"true"`

	SentryDSN        string  `envconfig:"SENTRY_DSN"`
	Environment      string  `envconfig:"ENVIRONMENT" default:"development"`
	TracesSampleRate float64 `envconfig:"TRACES_SAMPLE_RATE" default:"1.0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.EmbeddingDimensions == 0 {
		cfg.EmbeddingDimensions = DefaultEmbeddingDimensions(cfg.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderOllama, c.Provider))
	}

	for name, score := range map[string]float64{
		"SEARCH_MIN_SCORE": c.SearchMinScore,
		"RAG_MIN_SCORE":    c.RAGMinScore,
	} {
		if score <= 0 || score > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0, 1], got %v", name, score))
		}
	}
	if c.RAGMinScore <= c.SearchMinScore {
		errs = append(errs, fmt.Errorf("RAG_MIN_SCORE (%v) must be above SEARCH_MIN_SCORE (%v)", c.RAGMinScore, c.SearchMinScore))
	}

	if c.EmbeddingDimensions <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSIONS must be positive"))
	} else if model := c.EmbeddingModel(); fixedEmbeddingDimensions[model] > 0 && fixedEmbeddingDimensions[model] != c.EmbeddingDimensions {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSIONS is %d but %s produces %d-dimensional embeddings",
			c.EmbeddingDimensions, model, fixedEmbeddingDimensions[model]))
	}

	if c.SearchMaxResults <= 0 || c.RAGMaxResults <= 0 {
		errs = append(errs, errors.New("SEARCH_MAX_RESULTS and RAG_MAX_RESULTS must be positive"))
	}
	if c.ImportBatchSize <= 0 {
		errs = append(errs, errors.New("IMPORT_BATCH_SIZE must be positive"))
	}
	if c.EmbedRateLimit < 0 {
		errs = append(errs, errors.New("EMBED_RATE_LIMIT must not be negative"))
	}
	if c.ImportInterval < 0 {
		errs = append(errs, errors.New("IMPORT_INTERVAL must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasOllama() bool {
	return strings.EqualFold(c.Provider, ProviderOllama)
}

// EmbeddingModel returns the active provider's embedding model without
// any ollama tag suffix.
func (c *Config) EmbeddingModel() string {
	if c.HasOllama() {
		name, _, _ := strings.Cut(c.OllamaEmbeddingModel, ":")
		return name
	}
	return c.OpenAIEmbeddingModel
}

func (c *Config) HasCatalog() bool {
	return c.CatalogURL != ""
}

func (c *Config) HasAdminKey() bool {
	return c.AdminAPIKey != ""
}

// HasScheduledImport reports whether the daemon should import on its own.
func (c *Config) HasScheduledImport() bool {
	return c.ImportFile != ""
}
