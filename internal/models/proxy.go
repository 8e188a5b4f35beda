package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// proxyResponsePaths are tried in order to find the reply text, since the
// proxy's response shape is not fixed.
var proxyResponsePaths = []string{
	"choices.0.message.content",
	"candidates.0.content.parts.0.text",
	"content",
	"text",
}

// ProxyProvider posts OpenAI-style chat requests to a user supplied URL.
type ProxyProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewProxyProvider creates a proxy provider. apiKey is optional.
func NewProxyProvider(url, apiKey string, opts Options) *ProxyProvider {
	return &ProxyProvider{
		url:        strings.TrimSpace(url),
		apiKey:     apiKey,
		httpClient: opts.httpClient(),
	}
}

func (p *ProxyProvider) Name() string {
	return "Proxy"
}

func (p *ProxyProvider) Send(ctx context.Context, req *Request) (string, error) {
	body := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
		MaxTokens   int           `json:"max_tokens"`
	}{
		Model:       req.Model,
		Messages:    chatMessages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal proxy request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", transportError(p.Name(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(p.Name(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(p.Name(), resp.StatusCode, fmt.Sprintf("Proxy API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	return parseProxyResponse(data)
}

func parseProxyResponse(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", responseError("Proxy", "Proxy API returned invalid JSON: %s", string(data))
	}
	for _, path := range proxyResponsePaths {
		if v := gjson.GetBytes(data, path); v.Type == gjson.String {
			return v.String(), nil
		}
	}
	return string(data), nil
}
