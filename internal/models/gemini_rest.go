package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type restRequest struct {
	Contents          []restContent        `json:"contents"`
	SystemInstruction *restContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  restGenerationConfig `json:"generationConfig"`
}

func (p *GeminiProvider) sendREST(ctx context.Context, req *Request) (string, error) {
	turns := req.Conversation()
	body := restRequest{
		Contents: make([]restContent, 0, len(turns)),
		GenerationConfig: restGenerationConfig{
			Temperature:     req.Temperature,
			TopK:            req.TopK,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	for _, turn := range turns {
		body.Contents = append(body.Contents, restContent{Role: turn.Role, Parts: []restPart{{Text: turn.Content}}})
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &restContent{Parts: []restPart{{Text: req.SystemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, url.PathEscape(req.Model), url.QueryEscape(p.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		detail := gjson.GetBytes(data, "error.message").String()
		return "", statusError(p.Name(), resp.StatusCode, fmt.Sprintf("Gemini API error: %d %s - %s", resp.StatusCode, http.StatusText(resp.StatusCode), detail))
	}

	return parseGeminiResponse(data)
}

// parseGeminiResponse extracts the first candidate's text, reporting blocked
// prompts, API errors and empty candidates distinctly.
func parseGeminiResponse(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", responseError("Gemini", "Gemini API returned invalid JSON: %s", string(data))
	}

	candidates := gjson.GetBytes(data, "candidates").Array()
	if len(candidates) == 0 {
		if feedback := gjson.GetBytes(data, "promptFeedback"); feedback.Exists() {
			return "", responseError("Gemini", "Gemini API blocked the response: %s", feedback.Raw)
		}
		if apiErr := gjson.GetBytes(data, "error"); apiErr.Exists() {
			msg := apiErr.Get("message").String()
			if msg == "" {
				msg = apiErr.Raw
			}
			return "", responseError("Gemini", "Gemini API error: %s", msg)
		}
		return "", responseError("Gemini", "Gemini API returned unexpected response structure: %s", string(data))
	}

	candidate := candidates[0]
	parts := candidate.Get("content.parts").Array()
	if len(parts) == 0 {
		return "", responseError("Gemini", "Gemini API returned empty content: %s", candidate.Raw)
	}
	return parts[0].Get("text").String(), nil
}
