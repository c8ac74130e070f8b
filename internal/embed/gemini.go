package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"google.golang.org/genai"
)

// GeminiProvider embeds text with the Gemini API
type GeminiProvider struct {
	client        *genai.Client
	model         string
	maxInputChars int
	timeout       time.Duration
}

// NewGeminiProvider creates a Gemini embedding provider
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.httpClient(30 * time.Second),
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	modelName := config.Model
	if modelName == "" {
		modelName = "text-embedding-004"
	}

	return &GeminiProvider{
		client:        client,
		model:         modelName,
		maxInputChars: defaultInt(config.MaxInputChars, 8000),
		timeout:       defaultDuration(config.Timeout, 30*time.Second),
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the embedding model
func (p *GeminiProvider) Model() string {
	return p.model
}

// MaxInputChars returns the input cap
func (p *GeminiProvider) MaxInputChars() int {
	return p.maxInputChars
}

// Embed returns the embedding of text
func (p *GeminiProvider) Embed(ctx context.Context, text string) (model.EmbeddingVector, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := p.client.Models.EmbedContent(ctxWithTimeout, p.model, contents, nil)
	if err != nil {
		return model.EmbeddingVector{}, mapGeminiError(p.Name(), err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return model.EmbeddingVector{}, ErrEmptyEmbedding
	}

	return newVector(p.Name(), resp.Embeddings[0].Values)
}
