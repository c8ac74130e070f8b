package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	// XAIBaseURL is the OpenAI-compatible endpoint for Grok models
	XAIBaseURL = "https://api.x.ai/v1"

	defaultGrokModel = "grok-3-mini"
)

// OpenAIProvider classifies with the Chat Completions API. It also serves
// OpenAI-compatible endpoints such as xAI's Grok.
type OpenAIProvider struct {
	client       *openai.Client
	name         string
	defaultModel string
	jsonMode     bool
	config       Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required: %w", ErrProviderUnavailable)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = config.httpClient()

	name := config.Name
	if name == "" {
		name = "openai"
	}

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(clientConfig),
		name:         name,
		defaultModel: openai.GPT4oMini,
		jsonMode:     true,
		config:       config,
	}, nil
}

// NewGrokProvider creates a provider for xAI's OpenAI-compatible API
func NewGrokProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("xAI API key is required: %w", ErrProviderUnavailable)
	}
	if config.BaseURL == "" {
		config.BaseURL = XAIBaseURL
	}
	config.Name = "grok"

	p, err := NewOpenAIProvider(config)
	if err != nil {
		return nil, err
	}
	p.defaultModel = defaultGrokModel
	return p, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Complete sends the request to the Chat Completions API
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       p.config.model(req, p.defaultModel),
		Messages:    messages,
		MaxTokens:   p.config.maxTokens(req),
		Temperature: float32(req.Temperature),
	}
	if p.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", p.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response: %w", p.name, ErrMalformedResponse)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newStatusError(p.name, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newStatusError(p.name, reqErr.HTTPStatusCode, reqErr.Error())
	}

	return wrapTransportError(p.name, err)
}
