package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
)

const (
	// DefaultRAGMinScore is the similarity floor for passages fed to the model.
	// It is stricter than DefaultSearchMinScore so only close matches reach
	// the prompt.
	DefaultRAGMinScore   = 0.9
	DefaultRAGMaxResults = 5
)

// Generator produces the model's answer for a system prompt and user
// message. history holds earlier messages of the conversation, oldest
// first, and is nil for one-off questions.
type Generator interface {
	Complete(ctx context.Context, systemPrompt string, history []domain.ChatMessage, userMessage string) (string, error)
}

// AssistantConfig tunes retrieval for chat turns.
type AssistantConfig struct {
	MinScore     float64
	MaxResults   int
	SystemPrompt string
}

func (c AssistantConfig) withDefaults() AssistantConfig {
	if c.MinScore <= 0 {
		c.MinScore = DefaultRAGMinScore
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultRAGMaxResults
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	return c
}

// Assistant runs the retrieval-augmented chat pipeline, one turn at a time.
// It holds no per-turn state and is safe for concurrent use.
type Assistant struct {
	embedder  EmbeddingClient
	index     EmbeddingIndex
	generator Generator
	extractor *IdentifierExtractor
	resolver  *RecordResolver
	composer  *ResponseComposer
	metrics   *telemetry.Metrics
	uuidGen   UUIDGenerator
	cfg       AssistantConfig
}

// NewAssistant creates a new Assistant instance
func NewAssistant(
	embedder EmbeddingClient,
	index EmbeddingIndex,
	generator Generator,
	extractor *IdentifierExtractor,
	resolver *RecordResolver,
	metrics *telemetry.Metrics,
	cfg AssistantConfig,
) *Assistant {
	return NewAssistantWithUUIDGen(embedder, index, generator, extractor, resolver, metrics, cfg, &DefaultUUIDGenerator{})
}

// NewAssistantWithUUIDGen creates a new Assistant with custom UUID generator (for testing)
func NewAssistantWithUUIDGen(
	embedder EmbeddingClient,
	index EmbeddingIndex,
	generator Generator,
	extractor *IdentifierExtractor,
	resolver *RecordResolver,
	metrics *telemetry.Metrics,
	cfg AssistantConfig,
	uuidGen UUIDGenerator,
) *Assistant {
	return &Assistant{
		embedder:  embedder,
		index:     index,
		generator: generator,
		extractor: extractor,
		resolver:  resolver,
		composer:  NewResponseComposer(extractor),
		metrics:   metrics,
		uuidGen:   uuidGen,
		cfg:       cfg.withDefaults(),
	}
}

// OpenTurn returns the greeting turn sent when a conversation starts.
func (a *Assistant) OpenTurn() *domain.ChatTurn {
	return &domain.ChatTurn{
		ID:      a.uuidGen.NewString(),
		Answer:  domain.Greeting,
		Records: []domain.ListedProperty{},
		Stage:   domain.TurnStageDelivered,
	}
}

// Ask answers a question without conversation history. Failing to embed the
// question or to generate an answer aborts the turn; everything after
// generation degrades instead of failing, so a delivered answer may still
// contain unresolved placeholders.
func (a *Assistant) Ask(ctx context.Context, question string) (*domain.ChatTurn, error) {
	return a.ask(ctx, question, nil)
}

// AskInSession answers a question with the session's earlier messages as
// history and remembers the exchange once it is delivered.
func (a *Assistant) AskInSession(ctx context.Context, session *ChatSession, question string) (*domain.ChatTurn, error) {
	turn, err := a.ask(ctx, question, session.History())
	if err != nil {
		return nil, err
	}
	session.Remember(question, turn.RawAnswer)
	return turn, nil
}

func (a *Assistant) ask(ctx context.Context, question string, history []domain.ChatMessage) (*domain.ChatTurn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	turn := &domain.ChatTurn{
		ID:       a.uuidGen.NewString(),
		Question: question,
		Stage:    domain.TurnStageReceived,
	}

	ctx, span := telemetry.StartSpan(ctx, "Assistant.Ask", telemetry.SpanAttributes{
		TurnID:    turn.ID,
		Operation: "chat",
	})
	defer span.End()

	start := time.Now()

	vector, err := a.embedder.GenerateEmbedding(ctx, question)
	if err != nil {
		a.metrics.Turn(telemetry.OutcomeEmbeddingFailed, time.Since(start))
		span.SetError(err)
		return nil, domain.ErrEmbeddingFailed.Wrap(err)
	}
	a.advance(ctx, turn, domain.TurnStageEmbedded)

	matches, err := a.index.Search(ctx, vector, a.cfg.MinScore, a.cfg.MaxResults)
	if err != nil {
		log.Printf("assistant: turn %s retrieval failed, answering without context: %v", turn.ID, err)
		matches = nil
	}
	turn.Context = matches
	a.advance(ctx, turn, domain.TurnStageRetrieved)

	raw, err := a.generator.Complete(ctx, a.cfg.SystemPrompt, history, BuildUserMessage(question, matches))
	if err != nil {
		a.metrics.Turn(telemetry.OutcomeGenerationFailed, time.Since(start))
		span.SetError(err)
		return nil, domain.ErrGenerationFailed.Wrap(err)
	}
	turn.RawAnswer = raw
	a.advance(ctx, turn, domain.TurnStageGenerated)

	turn.IDs = a.extractor.Extract(raw)
	a.metrics.ExtractedIDs(len(turn.IDs))
	a.advance(ctx, turn, domain.TurnStageExtracted)

	if len(turn.IDs) == 0 {
		turn.Answer = raw
		a.deliver(ctx, turn, start)
		return turn, nil
	}

	records := a.resolver.Resolve(ctx, turn.IDs)
	a.advance(ctx, turn, domain.TurnStageResolved)

	turn.Answer, turn.Records = a.composer.Compose(raw, records)
	a.advance(ctx, turn, domain.TurnStageComposed)

	a.deliver(ctx, turn, start)
	return turn, nil
}

func (a *Assistant) advance(ctx context.Context, turn *domain.ChatTurn, stage domain.TurnStage) {
	turn.Advance(stage)
	telemetry.AddBreadcrumb(ctx, "chat", string(stage)+" "+turn.ID)
}

func (a *Assistant) deliver(ctx context.Context, turn *domain.ChatTurn, start time.Time) {
	a.advance(ctx, turn, domain.TurnStageDelivered)
	a.metrics.Turn(telemetry.OutcomeDelivered, time.Since(start))
}
