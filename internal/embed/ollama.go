package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// OllamaProvider embeds text with a local Ollama server
type OllamaProvider struct {
	baseURL       string
	model         string
	maxInputChars int
	httpClient    *http.Client
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates an Ollama embedding provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	modelName := config.Model
	if modelName == "" {
		modelName = "nomic-embed-text"
	}

	return &OllamaProvider{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		model:         modelName,
		maxInputChars: defaultInt(config.MaxInputChars, 8000),
		// Local models can be slow to load
		httpClient: config.httpClient(60 * time.Second),
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the embedding model
func (p *OllamaProvider) Model() string {
	return p.model
}

// MaxInputChars returns the input cap
func (p *OllamaProvider) MaxInputChars() int {
	return p.maxInputChars
}

// Embed returns the embedding of text
func (p *OllamaProvider) Embed(ctx context.Context, text string) (model.EmbeddingVector, error) {
	body, err := json.Marshal(ollamaEmbeddingRequest{Model: p.model, Prompt: text})
	if err != nil {
		return model.EmbeddingVector{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embeddings", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.EmbeddingVector{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return model.EmbeddingVector{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return model.EmbeddingVector{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		message := string(respBody)
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return model.EmbeddingVector{}, newStatusError(p.Name(), httpResp.StatusCode, message)
	}

	var resp ollamaEmbeddingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return model.EmbeddingVector{}, fmt.Errorf("unmarshal response: %w", err)
	}

	values := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		values[i] = float32(v)
	}

	return newVector(p.Name(), values)
}
