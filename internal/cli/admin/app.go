package admin

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cloo-solutions/propertybot/internal/catalog"
	"github.com/cloo-solutions/propertybot/internal/config"
	"github.com/cloo-solutions/propertybot/internal/database"
	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/index"
	"github.com/cloo-solutions/propertybot/internal/jobs"
	"github.com/cloo-solutions/propertybot/internal/ollama"
	"github.com/cloo-solutions/propertybot/internal/openai"
	"github.com/cloo-solutions/propertybot/internal/repository"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/cloo-solutions/propertybot/internal/storage"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
)

// Provider embeds text and generates answers.
type Provider interface {
	service.EmbeddingClient
	service.Generator
}

// app holds the services shared by serve and import.
type app struct {
	cfg        *config.Config
	pool       *pgxpool.Pool
	metrics    *telemetry.Metrics
	properties *repository.PropertyRepository
	embeddings *repository.EmbeddingRepository
	// searchIndex answers similarity queries: pgvector, or an in-memory
	// copy of it when MEMORY_INDEX is set.
	searchIndex service.EmbeddingIndex
	memory      *index.Memory

	assistant *service.Assistant
	search    *service.SearchService
	importer  *service.ImportService
	sessions  *service.SessionRegistry
}

type appOptions struct {
	migrate bool
	// chat builds the assistant and needs the generation model.
	chat bool
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")

	if opts.migrate {
		if err := database.Migrate(cfg.DatabaseURL, database.DefaultMigrationsSource); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if err := database.EnsureEmbeddingDimensions(ctx, pool, cfg.EmbeddingDimensions); err != nil {
		pool.Close()
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		pool:       pool,
		metrics:    telemetry.NewMetrics(),
		properties: repository.NewPropertyRepository(pool),
		embeddings: repository.NewEmbeddingRepository(pool),
	}
	a.searchIndex = a.embeddings

	if cfg.MemoryIndex {
		a.memory = index.NewMemory()
		if err := jobs.NewIndexWarmJob(a.embeddings, a.memory).ProcessJobs(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.searchIndex = a.memory
	}

	provider, err := newProvider(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	opener, err := newSourceOpener(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.importer = service.NewImportService(
		provider,
		a.properties,
		repository.NewTxRunner(pool),
		opener,
		a.metrics,
		service.ImportConfig{BatchSize: cfg.ImportBatchSize, EmbedRateLimit: cfg.EmbedRateLimit},
	)
	if a.memory != nil {
		a.importer.WithSearchCache(a.memory)
	}

	a.search = service.NewSearchService(provider, a.searchIndex, a.properties, service.SearchConfig{
		MinScore:   cfg.SearchMinScore,
		MaxResults: cfg.SearchMaxResults,
	})

	if opts.chat {
		extractor := service.NewIdentifierExtractor(cfg.Debug)
		a.assistant = service.NewAssistant(
			provider,
			a.searchIndex,
			provider,
			extractor,
			service.NewRecordResolver(newCatalog(cfg), a.metrics),
			a.metrics,
			service.AssistantConfig{MinScore: cfg.RAGMinScore, MaxResults: cfg.RAGMaxResults},
		)
		a.sessions = service.NewSessionRegistry(a.metrics)
	}

	return a, nil
}

func (a *app) Close() {
	a.pool.Close()
}

func newProvider(cfg *config.Config) (Provider, error) {
	if cfg.HasOllama() {
		client, err := ollama.NewClient(ollama.Config{
			ServerURL:      cfg.OllamaURL,
			ChatModel:      cfg.OllamaChatModel,
			EmbeddingModel: cfg.OllamaEmbeddingModel,
			Dimensions:     cfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		log.Printf("provider: ollama at %s (chat %s, embeddings %s)", cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbeddingModel)
		return client, nil
	}

	if !cfg.HasOpenAI() {
		return nil, openai.ErrNoAPIKey
	}
	log.Printf("provider: openai (chat %s, embeddings %s)", cfg.OpenAIChatModel, cfg.OpenAIEmbeddingModel)
	return openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.OpenAIEmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChatModel:           cfg.OpenAIChatModel,
	}), nil
}

func newSourceOpener(ctx context.Context, cfg *config.Config) (*storage.SourceOpener, error) {
	baseDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	var s3Client *storage.S3Client
	if cfg.HasS3() {
		s3Client, err = storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		log.Printf("import sources: s3 at %s", cfg.S3Endpoint)
	}

	return storage.NewSourceOpener(s3Client, baseDir), nil
}

func newCatalog(cfg *config.Config) service.CatalogClient {
	if !cfg.HasCatalog() {
		log.Println("catalog: CATALOG_URL not set, identifiers in answers stay unresolved")
		return noCatalog{}
	}
	return catalog.NewClient(catalog.Config{
		URL:     cfg.CatalogURL,
		Token:   cfg.CatalogToken,
		Timeout: cfg.CatalogTimeout,
	})
}

// noCatalog resolves nothing, leaving placeholders in answers untouched.
type noCatalog struct{}

func (noCatalog) Properties(ctx context.Context, ids []string) ([]domain.ListedProperty, error) {
	return nil, nil
}
