package models

import (
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/custom-chats/internal/types"
)

// buildOpenAIParams converts ADK request to OpenAI parameters
func buildOpenAIParams(req *model.LLMRequest, model string) *openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
	}
	if req.Model == "" {
		params.Model = model
	}

	var contents []*genai.Content
	if req.Config != nil && req.Config.SystemInstruction != nil {
		system := *req.Config.SystemInstruction
		system.Role = "system"
		contents = append(contents, &system)
	}
	contents = append(contents, req.Contents...)

	messages := convertContentsToMessages(contents)
	if len(messages) > 0 {
		params.Messages = messages
	}

	if req.Config != nil {
		if req.Config.Temperature != nil {
			params.Temperature = openai.Float(float64(*req.Config.Temperature))
		}
		if req.Config.MaxOutputTokens > 0 {
			params.MaxTokens = openai.Int(int64(req.Config.MaxOutputTokens))
		}
		if req.Config.TopP != nil {
			params.TopP = openai.Float(float64(*req.Config.TopP))
		}
		if req.Config.FrequencyPenalty != nil {
			params.FrequencyPenalty = openai.Float(float64(*req.Config.FrequencyPenalty))
		}
		if req.Config.PresencePenalty != nil {
			params.PresencePenalty = openai.Float(float64(*req.Config.PresencePenalty))
		}
	}

	return &params
}

// convertContentsToMessages converts genai.Content to OpenAI messages
func convertContentsToMessages(contents []*genai.Content) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	for _, content := range contents {
		if content == nil {
			continue
		}
		textContent := contentText(content)

		switch content.Role {
		case "user":
			messages = append(messages, openai.UserMessage(textContent))
		case "model":
			messages = append(messages, openai.AssistantMessage(textContent))
		case "system":
			messages = append(messages, openai.SystemMessage(textContent))
		default:
			messages = append(messages, openai.UserMessage(textContent))
		}
	}

	return messages
}

// buildLLMRequest converts a Request into the adk request shape shared by
// every model.LLM backed provider.
func buildLLMRequest(req *Request) *model.LLMRequest {
	turns := req.Conversation()
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		contents = append(contents, genai.NewContentFromText(turn.Content, genai.Role(turn.Role)))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(req.TopP))
	}
	if req.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(req.TopK))
	}
	if req.FrequencyPenalty != 0 {
		cfg.FrequencyPenalty = genai.Ptr(float32(req.FrequencyPenalty))
	}
	if req.PresencePenalty != 0 {
		cfg.PresencePenalty = genai.Ptr(float32(req.PresencePenalty))
	}

	return &model.LLMRequest{
		Model:    req.Model,
		Contents: contents,
		Config:   cfg,
	}
}

// chatMessage is the OpenAI-style message used on the wire by REST providers.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatMessages prepends the system prompt and maps the model role to
// assistant.
func chatMessages(req *Request) []chatMessage {
	turns := req.Conversation()
	messages := make([]chatMessage, 0, len(turns)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, turn := range turns {
		role := turn.Role
		if role == types.RoleModel {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Content})
	}
	return messages
}

func contentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
