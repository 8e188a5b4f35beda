package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

var errSDKUnavailable = errors.New("gemini sdk unavailable")

// GeminiProvider calls Gemini through the genai SDK and falls back to the
// REST generateContent endpoint when the SDK cannot reach the API.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	newSDKModel func(ctx context.Context, modelName string) (model.LLM, error)
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(apiKey string, opts Options) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    geminiBaseURL,
		httpClient: opts.httpClient(),
	}
	if opts.GeminiBaseURL != "" {
		p.baseURL = strings.TrimRight(opts.GeminiBaseURL, "/")
	}
	p.newSDKModel = func(ctx context.Context, modelName string) (model.LLM, error) {
		cfg := &genai.ClientConfig{
			APIKey:     p.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: p.httpClient,
		}
		if opts.GeminiBaseURL != "" {
			cfg.HTTPOptions.BaseURL = opts.GeminiBaseURL
		}
		return gemini.NewModel(ctx, modelName, cfg)
	}
	return p
}

func (p *GeminiProvider) Name() string {
	return "Gemini"
}

func (p *GeminiProvider) Send(ctx context.Context, req *Request) (string, error) {
	r := *req
	r.Model = geminiModelName(req.Model)
	if r.TopP <= 0 {
		r.TopP = DefaultTopP
	}
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}

	text, err := p.sendSDK(ctx, &r)
	if err == nil {
		return text, nil
	}
	if !p.shouldFallback(ctx, err) {
		return "", p.wrapSDKError(ctx, err)
	}

	slog.Warn("gemini sdk request failed, using REST fallback", "model", r.Model, "error", err.Error())
	return p.sendREST(ctx, &r)
}

func (p *GeminiProvider) sendSDK(ctx context.Context, req *Request) (string, error) {
	llm, err := p.newSDKModel(ctx, req.Model)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errSDKUnavailable, err)
	}
	return firstText(p.Name(), llm.GenerateContent(ctx, buildLLMRequest(req), false))
}

// shouldFallback limits the REST fallback to failures where the SDK never
// got an answer from the API.
func (p *GeminiProvider) shouldFallback(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if _, ok := asAPIError(err); ok {
		return false
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return false
	}
	return errors.Is(err, errSDKUnavailable) || isTransportFailure(err)
}

func (p *GeminiProvider) wrapSDKError(ctx context.Context, err error) error {
	if apiErr, ok := asAPIError(err); ok {
		perr := statusError(p.Name(), apiErr.Code, fmt.Sprintf("Gemini API error: %d %s - %s", apiErr.Code, http.StatusText(apiErr.Code), apiErr.Message))
		perr.Err = err
		return perr
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	if ctx.Err() != nil {
		return transportError(p.Name(), ctx.Err())
	}
	return &ProviderError{Provider: p.Name(), Message: "Gemini request failed", Err: err}
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

// geminiModelName strips the catalogue's "google/" prefix.
func geminiModelName(id string) string {
	id = strings.TrimPrefix(strings.TrimSpace(id), "google/")
	if id == "" {
		return "gemini-2.5-flash"
	}
	return id
}
