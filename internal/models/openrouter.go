package models

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	appReferer        = "https://custom-chats.app"
	appTitle          = "Custom Chats"
)

// NewOpenRouterModel returns an OpenRouter-backed model.LLM.
func NewOpenRouterModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	return newOpenAICompatibleModel("OpenRouter", modelName, openRouterBaseURL, cfg,
		option.WithHeader("HTTP-Referer", appReferer),
		option.WithHeader("X-Title", appTitle),
	)
}

// OpenRouterProvider sends chat completions through OpenRouter.
type OpenRouterProvider struct {
	llm model.LLM
}

// NewOpenRouterProvider creates an OpenRouter provider.
func NewOpenRouterProvider(ctx context.Context, apiKey string, opts Options) (*OpenRouterProvider, error) {
	llm, err := NewOpenRouterModel(ctx, "", &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPClient:  opts.httpClient(),
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.OpenRouterBaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create openrouter model: %w", err)
	}
	return &OpenRouterProvider{llm: llm}, nil
}

func (p *OpenRouterProvider) Name() string {
	return "OpenRouter"
}

func (p *OpenRouterProvider) Send(ctx context.Context, req *Request) (string, error) {
	slog.Debug("sending openrouter request", "model", req.Model, "turns", len(req.Turns))
	return firstText(p.Name(), p.llm.GenerateContent(ctx, buildLLMRequest(req), false))
}

// firstText returns the text of the first response yielded by seq.
func firstText(provider string, seq iter.Seq2[*model.LLMResponse, error]) (string, error) {
	for resp, err := range seq {
		if err != nil {
			return "", err
		}
		var text string
		if resp != nil {
			text = contentText(resp.Content)
		}
		if text == "" {
			return "", responseError(provider, "%s API returned empty content", provider)
		}
		return text, nil
	}
	return "", responseError(provider, "%s API returned no response", provider)
}
