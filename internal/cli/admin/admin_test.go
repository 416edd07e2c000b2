package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cloo-solutions/propertybot/internal/catalog"
	"github.com/cloo-solutions/propertybot/internal/config"
	"github.com/cloo-solutions/propertybot/internal/ollama"
	"github.com/cloo-solutions/propertybot/internal/openai"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("openai without key", func(t *testing.T) {
		_, err := newProvider(&config.Config{Provider: config.ProviderOpenAI})
		assert.ErrorIs(t, err, openai.ErrNoAPIKey)
	})

	t.Run("openai", func(t *testing.T) {
		p, err := newProvider(&config.Config{
			Provider:             config.ProviderOpenAI,
			OpenAIAPIKey:         "sk-test",
			OpenAIEmbeddingModel: "text-embedding-ada-002",
			OpenAIChatModel:      "gpt-4o-mini",
			EmbeddingDimensions:  1536,
		})
		require.NoError(t, err)
		assert.IsType(t, &openai.Client{}, p)
	})

	t.Run("ollama", func(t *testing.T) {
		p, err := newProvider(&config.Config{
			Provider:             config.ProviderOllama,
			OllamaURL:            "http://localhost:11434",
			OllamaChatModel:      "mistral",
			OllamaEmbeddingModel: "nomic-embed-text:latest",
		})
		require.NoError(t, err)
		assert.IsType(t, &ollama.Client{}, p)
	})
}

func TestNewCatalog(t *testing.T) {
	t.Run("unconfigured resolves nothing", func(t *testing.T) {
		c := newCatalog(&config.Config{})
		records, err := c.Properties(context.Background(), []string{"54d5dbc8-f2d1-49a5-985a-bde311a438bd"})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("configured", func(t *testing.T) {
		c := newCatalog(&config.Config{CatalogURL: "http://catalog.local/graphql"})
		assert.IsType(t, &catalog.Client{}, c)
	})
}

func TestNewSourceOpener_WithoutS3(t *testing.T) {
	opener, err := newSourceOpener(context.Background(), &config.Config{})
	require.NoError(t, err)

	_, err = opener.Open(context.Background(), "s3://bucket/props.csv")
	assert.Error(t, err)
}

func TestPrintImportReport(t *testing.T) {
	color.NoColor = true
	report := &service.ImportReport{Source: "props.csv", Read: 5, Imported: 3, Skipped: 1, Failed: 1}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printImportReport(&buf, report, false))
		out := buf.String()
		assert.Contains(t, out, "Imported: 3")
		assert.Contains(t, out, "Skipped:  1")
		assert.Contains(t, out, "Rows read: 5")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printImportReport(&buf, report, true))

		var decoded service.ImportReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, *report, decoded)
	})
}

func TestKeygenCmd(t *testing.T) {
	cmd := KeygenCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	key := strings.TrimSpace(buf.String())
	assert.True(t, service.IsValidAPIToken(key))
}
