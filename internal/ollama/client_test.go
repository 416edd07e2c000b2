package ollama

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeChat struct {
	messages []llms.MessageContent
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeChat) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

type fakeEmbedder struct {
	inputs  []string
	vectors [][]float32
	err     error
}

func (f *fakeEmbedder) CreateEmbedding(ctx context.Context, inputTexts []string) ([][]float32, error) {
	f.inputs = inputTexts
	return f.vectors, f.err
}

func TestClient_Complete(t *testing.T) {
	chat := &fakeChat{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Try REF-1"}}}}
	client := &Client{chat: chat, temp: DefaultTemperature}

	answer, err := client.Complete(context.Background(), "be Bob", nil, "flat?")

	require.NoError(t, err)
	assert.Equal(t, "Try REF-1", answer)
	require.Len(t, chat.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, chat.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, chat.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: "flat?"}, chat.messages[1].Parts[0])
}

func TestClient_Complete_ReplaysHistory(t *testing.T) {
	chat := &fakeChat{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Yes"}}}}
	client := &Client{chat: chat, temp: DefaultTemperature}

	history := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "flat?"},
		{Role: domain.ChatRoleAssistant, Content: "Try REF-1"},
	}
	_, err := client.Complete(context.Background(), "be Bob", history, "furnished?")

	require.NoError(t, err)
	require.Len(t, chat.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeHuman, chat.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, chat.messages[2].Role)
	assert.Equal(t, llms.TextContent{Text: "Try REF-1"}, chat.messages[2].Parts[0])
	assert.Equal(t, llms.TextContent{Text: "furnished?"}, chat.messages[3].Parts[0])
}

func TestClient_Complete_Errors(t *testing.T) {
	client := &Client{chat: &fakeChat{err: errors.New("connection refused")}}
	_, err := client.Complete(context.Background(), "s", nil, "q")
	assert.Contains(t, err.Error(), "chat error")

	client = &Client{chat: &fakeChat{resp: &llms.ContentResponse{}}}
	_, err = client.Complete(context.Background(), "s", nil, "q")
	assert.ErrorIs(t, err, ErrEmptyCompletion)

	_, err = client.Complete(context.Background(), "s", nil, "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestClient_GenerateEmbedding(t *testing.T) {
	emb := &fakeEmbedder{vectors: [][]float32{{0.1, 0.2}}}
	client := &Client{embedder: emb}

	v, err := client.GenerateEmbedding(context.Background(), "flat")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, v)
	assert.Equal(t, []string{"flat"}, emb.inputs)
}

func TestClient_GenerateEmbedding_Errors(t *testing.T) {
	client := &Client{embedder: &fakeEmbedder{vectors: [][]float32{}}}
	_, err := client.GenerateEmbedding(context.Background(), "flat")
	assert.ErrorIs(t, err, ErrNoEmbedding)

	client = &Client{embedder: &fakeEmbedder{vectors: [][]float32{{1, 2}}}, dimensions: 3}
	_, err = client.GenerateEmbedding(context.Background(), "flat")
	assert.Error(t, err)

	client = &Client{embedder: &fakeEmbedder{err: errors.New("model not found")}}
	_, err = client.GenerateEmbedding(context.Background(), "flat")
	assert.Contains(t, err.Error(), "failed to create embedding")

	_, err = client.GenerateEmbedding(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{Temperature: 5}.withDefaults()

	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, DefaultChatModel, cfg.ChatModel)
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	assert.Equal(t, DefaultTemperature, cfg.Temperature)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{ServerURL: "http://127.0.0.1:1"})

	require.NoError(t, err)
	assert.NotNil(t, client.chat)
	assert.NotNil(t, client.embedder)
}
