// Package models 提供各家模型提供方的适配器实现。
package models

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/easeaico/custom-chats/internal/types"
)

// Generation defaults applied when settings leave a value unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
	DefaultTopP        = 0.95
	DefaultTopK        = 40
)

// Provider sends one prepared request to an LLM backend.
type Provider interface {
	Name() string
	Send(ctx context.Context, req *Request) (string, error)
}

// Request is a fully assembled generation request.
type Request struct {
	Model            string
	SystemPrompt     string
	Turns            []types.Turn
	UserMessage      string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	TopK             int
	FrequencyPenalty float64
	PresencePenalty  float64
}

// NewRequest fills generation parameters from settings.
func NewRequest(settings types.APISettings, systemPrompt string, turns []types.Turn, userMessage string) *Request {
	req := &Request{
		Model:            settings.SelectedModel,
		SystemPrompt:     systemPrompt,
		Turns:            turns,
		UserMessage:      userMessage,
		Temperature:      settings.Temperature,
		MaxTokens:        settings.MaxTokens,
		TopP:             settings.TopP,
		TopK:             settings.TopK,
		FrequencyPenalty: settings.FrequencyPenalty,
		PresencePenalty:  settings.PresencePenalty,
	}
	if req.Temperature <= 0 {
		req.Temperature = DefaultTemperature
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	return req
}

// Conversation returns the turns to send, appending the user message unless
// the last turn is already a user turn containing it.
func (r *Request) Conversation() []types.Turn {
	turns := append([]types.Turn(nil), r.Turns...)
	if r.UserMessage == "" {
		return turns
	}
	if n := len(turns); n > 0 && turns[n-1].Role == types.RoleUser && strings.Contains(turns[n-1].Content, r.UserMessage) {
		return turns
	}
	return append(turns, types.Turn{Role: types.RoleUser, Content: r.UserMessage})
}

// Options configures provider construction.
type Options struct {
	GeminiBaseURL     string
	OpenRouterBaseURL string
	HTTPClient        *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// NewProvider returns the provider selected by settings. It fails with an
// api_key ProviderError when the provider's credential is missing.
func NewProvider(ctx context.Context, settings types.APISettings, opts Options) (Provider, error) {
	switch settings.Provider {
	case types.ProviderOpenRouter:
		if settings.OpenRouterAPIKey == "" {
			return nil, missingCredentials("OpenRouter")
		}
		return NewOpenRouterProvider(ctx, settings.OpenRouterAPIKey, opts)
	case types.ProviderProxy:
		if settings.ProxyURL == "" {
			return nil, missingCredentials("Proxy")
		}
		return NewProxyProvider(settings.ProxyURL, settings.ProxyAPIKey, opts), nil
	case types.ProviderGemini, "":
		if settings.GeminiAPIKey == "" {
			return nil, missingCredentials("Gemini")
		}
		return NewGeminiProvider(settings.GeminiAPIKey, opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", settings.Provider)
	}
}
