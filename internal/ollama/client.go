// Package ollama serves embeddings and chat completions from a local Ollama
// server through langchaingo.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	DefaultServerURL      = "http://localhost:11434"
	DefaultChatModel      = "mistral"
	DefaultEmbeddingModel = "nomic-embed-text:latest"
	DefaultTemperature    = 0.2
)

var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrNoEmbedding     = errors.New("no embedding returned")
	ErrEmptyCompletion = errors.New("completion returned no content")
)

// contentGenerator is the subset of llms.Model used for chat turns.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// embeddingCreator is implemented by *ollama.LLM.
type embeddingCreator interface {
	CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error)
}

type Config struct {
	ServerURL      string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	// Dimensions, when set, is checked against every embedding.
	Dimensions int
}

func (c Config) withDefaults() Config {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.Temperature <= 0 || c.Temperature > 1 {
		c.Temperature = DefaultTemperature
	}
	return c
}

// Client embeds text and answers chat turns using two Ollama models.
type Client struct {
	chat       contentGenerator
	embedder   embeddingCreator
	temp       float64
	dimensions int
}

// NewClient creates a Client for the configured server and models.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	chat, err := ollama.New(ollama.WithModel(cfg.ChatModel), ollama.WithServerURL(cfg.ServerURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}

	emb, err := ollama.New(ollama.WithModel(cfg.EmbeddingModel), ollama.WithServerURL(cfg.ServerURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}

	return &Client{chat: chat, embedder: emb, temp: cfg.Temperature, dimensions: cfg.Dimensions}, nil
}

// GenerateEmbedding embeds a single text.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	vectors, err := c.embedder.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrNoEmbedding
	}
	if c.dimensions > 0 && len(vectors[0]) != c.dimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(vectors[0]), c.dimensions)
	}

	return vectors[0], nil
}

// Complete answers userMessage under systemPrompt after replaying history.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []domain.ChatMessage, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", ErrEmptyText
	}

	content := make([]llms.MessageContent, 0, len(history)+2)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, m := range history {
		role := llms.ChatMessageTypeHuman
		if m.Role == domain.ChatRoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, userMessage))

	resp, err := c.chat.GenerateContent(ctx, content, llms.WithTemperature(c.temp))
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Content, nil
}
