package embed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/util"
)

// OpenAIProvider embeds text with the OpenAI embeddings API
type OpenAIProvider struct {
	client        *openai.Client
	model         string
	maxInputChars int
	timeout       time.Duration
}

// Config configures a single embedding provider
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxInputChars int
	Timeout       time.Duration

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// httpClient returns a client that honours the proxy settings
func (c Config) httpClient(fallbackTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   defaultDuration(c.Timeout, fallbackTimeout),
		Transport: util.NewTransport(c.HTTPProxy, c.HTTPSProxy, c.NoProxy),
	}
}

// NewOpenAIProvider creates an OpenAI embedding provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = config.httpClient(30 * time.Second)

	modelName := config.Model
	if modelName == "" {
		modelName = string(openai.SmallEmbedding3)
	}

	return &OpenAIProvider{
		client:        openai.NewClientWithConfig(clientConfig),
		model:         modelName,
		maxInputChars: defaultInt(config.MaxInputChars, 8000),
		timeout:       defaultDuration(config.Timeout, 30*time.Second),
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the embedding model
func (p *OpenAIProvider) Model() string {
	return p.model
}

// MaxInputChars returns the input cap
func (p *OpenAIProvider) MaxInputChars() int {
	return p.maxInputChars
}

// Embed returns the embedding of text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) (model.EmbeddingVector, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctxWithTimeout, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: []string{text},
	})
	if err != nil {
		return model.EmbeddingVector{}, mapOpenAIError(p.Name(), err)
	}

	if len(resp.Data) == 0 {
		return model.EmbeddingVector{}, ErrEmptyEmbedding
	}

	return newVector(p.Name(), resp.Data[0].Embedding)
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func defaultDuration(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
