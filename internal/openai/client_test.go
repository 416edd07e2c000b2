package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOpenAIAPI is a mock for the OpenAI API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockOpenAIAPI) CreateChatCompletion(ctx context.Context, systemPrompt string, history []domain.ChatMessage, userMessage string) (string, error) {
	args := m.Called(ctx, systemPrompt, history, userMessage)
	return args.String(0), args.Error(1)
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	text := "Sunny two-room flat next to the park. Location - Riga ID - 54d5dbc8-f2d1-49a5-985a-bde311a438bd"
	expectedEmbedding := make([]float32, 1536)
	for i := range expectedEmbedding {
		expectedEmbedding[i] = float32(i) * 0.001
	}

	mockAPI.On("CreateEmbeddings", ctx, text).Return(expectedEmbedding, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Len(t, embedding, 1536)
	assert.Equal(t, expectedEmbedding, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := NewClient("")

	embedding, err := client.GenerateEmbedding(context.Background(), "")

	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI}

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, "Test text").Return(nil, errors.New("API rate limit exceeded"))

	embedding, err := client.GenerateEmbedding(ctx, "Test text")

	assert.Nil(t, embedding)
	assert.Contains(t, err.Error(), "failed to create embedding")
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536}

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, "Test text").Return(make([]float32, 512), nil)

	embedding, err := client.GenerateEmbedding(ctx, "Test text")

	assert.Nil(t, embedding)
	assert.ErrorIs(t, err, ErrWrongDimensions)
}

func TestClient_GenerateEmbedding_CustomDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 3}

	ctx := context.Background()
	mockAPI.On("CreateEmbeddings", ctx, "x").Return([]float32{1, 2, 3}, nil)

	embedding, err := client.GenerateEmbedding(ctx, "x")

	require.NoError(t, err)
	assert.Len(t, embedding, 3)
}

func TestClient_Complete(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{chat: mockAPI}

	ctx := context.Background()
	mockAPI.On("CreateChatCompletion", ctx, "system", mock.Anything, "question").Return("answer", nil).Once()
	mockAPI.On("CreateChatCompletion", ctx, "system", mock.Anything, "quiet").Return("", nil).Once()
	mockAPI.On("CreateChatCompletion", ctx, "system", mock.Anything, "broken").Return("", errors.New("overloaded")).Once()

	answer, err := client.Complete(ctx, "system", nil, "question")
	require.NoError(t, err)
	assert.Equal(t, "answer", answer)

	_, err = client.Complete(ctx, "system", nil, "quiet")
	assert.ErrorIs(t, err, ErrEmptyCompletion)

	_, err = client.Complete(ctx, "system", nil, "broken")
	assert.Contains(t, err.Error(), "failed to create chat completion")

	_, err = client.Complete(ctx, "system", nil, " ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOpenAIAdapter_AgainstFakeServer(t *testing.T) {
	var chatRequest struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/embeddings":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"text-embedding-ada-002"}`))
		case "/chat/completions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&chatRequest))
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Try REF-1"},"finish_reason":"stop"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClientWithConfig(Config{APIKey: "sk-test", BaseURL: server.URL + "/", EmbeddingDimensions: 3})

	embedding, err := client.GenerateEmbedding(context.Background(), "flat")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)

	answer, err := client.Complete(context.Background(), "be Bob", nil, "flat?")
	require.NoError(t, err)
	assert.Equal(t, "Try REF-1", answer)
	assert.Equal(t, DefaultChatModel, chatRequest.Model)
	require.Len(t, chatRequest.Messages, 2)
	assert.Equal(t, "system", chatRequest.Messages[0].Role)
	assert.Equal(t, "flat?", chatRequest.Messages[1].Content)

	history := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "flat?"},
		{Role: domain.ChatRoleAssistant, Content: "Try REF-1"},
	}
	_, err = client.Complete(context.Background(), "be Bob", history, "is it furnished?")
	require.NoError(t, err)
	require.Len(t, chatRequest.Messages, 4)
	assert.Equal(t, "user", chatRequest.Messages[1].Role)
	assert.Equal(t, "assistant", chatRequest.Messages[2].Role)
	assert.Equal(t, "Try REF-1", chatRequest.Messages[2].Content)
	assert.Equal(t, "user", chatRequest.Messages[3].Role)
	assert.Equal(t, "is it furnished?", chatRequest.Messages[3].Content)
}

func TestNewClientFromEnv_NoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv()

	assert.Nil(t, client)
	assert.Equal(t, ErrNoAPIKey, err)
}

func TestNewClientFromEnv_WithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-api-key")

	client, err := NewClientFromEnv()

	assert.NotNil(t, client)
	assert.NoError(t, err)
}
