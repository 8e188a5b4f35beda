package models

import "github.com/easeaico/custom-chats/internal/types"

// ModelInfo describes a selectable model.
type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

var geminiModels = []ModelInfo{
	{ID: "gemini-2.5-pro", Name: "Google: Gemini 2.5 Pro", Provider: types.ProviderGemini},
	{ID: "gemini-2.5-flash", Name: "Google: Gemini 2.5 Flash", Provider: types.ProviderGemini},
	{ID: "gemini-2.5-flash-lite", Name: "Google: Gemini 2.5 Flash Lite", Provider: types.ProviderGemini},
}

var openRouterModels = []ModelInfo{
	{ID: "deepseek/deepseek-chat-v3.1:free", Name: "DeepSeek: DeepSeek V3.1 (free)", Provider: types.ProviderOpenRouter},
	{ID: "deepseek/deepseek-r1-0528:free", Name: "DeepSeek: R1 0528 (free)", Provider: types.ProviderOpenRouter},
	{ID: "deepseek/deepseek-chat-v3-0324:free", Name: "DeepSeek: DeepSeek V3 0324 (free)", Provider: types.ProviderOpenRouter},
	{ID: "deepseek/deepseek-r1:free", Name: "DeepSeek: R1 (free)", Provider: types.ProviderOpenRouter},
	{ID: "qwen/qwen3-coder:free", Name: "Qwen: Qwen3 Coder (free)", Provider: types.ProviderOpenRouter},
	{ID: "tngtech/deepseek-r1t2-chimera:free", Name: "TNG: DeepSeek R1T2 Chimera (free)", Provider: types.ProviderOpenRouter},
	{ID: "z-ai/glm-4.5-air:free", Name: "Z.AI: GLM 4.5 Air (free)", Provider: types.ProviderOpenRouter},
	{ID: "tngtech/deepseek-r1t-chimera:free", Name: "TNG: DeepSeek R1T Chimera (free)", Provider: types.ProviderOpenRouter},
	{ID: "moonshotai/kimi-k2:free", Name: "MoonshotAI: Kimi K2 (free)", Provider: types.ProviderOpenRouter},
	{ID: "qwen/qwen3-235b-a22b:free", Name: "Qwen: Qwen3 235B A22B (free)", Provider: types.ProviderOpenRouter},
	{ID: "google/gemini-2.0-flash-exp:free", Name: "Google: Gemini 2.0 Flash Experimental (free)", Provider: types.ProviderOpenRouter},
	{ID: "meta-llama/llama-3.3-70b-instruct:free", Name: "Meta: Llama 3.3 70B Instruct (free)", Provider: types.ProviderOpenRouter},
	{ID: "anthropic/claude-3.5-sonnet", Name: "Anthropic: Claude 3.5 Sonnet (paid)", Provider: types.ProviderOpenRouter},
}

// Catalogue lists the known models of a provider. The proxy accepts any id
// and has no catalogue.
func Catalogue(provider string) []ModelInfo {
	switch provider {
	case types.ProviderGemini:
		return append([]ModelInfo(nil), geminiModels...)
	case types.ProviderOpenRouter:
		return append([]ModelInfo(nil), openRouterModels...)
	default:
		return nil
	}
}

// DisplayName returns the catalogue name of id, or id itself.
func DisplayName(id string) string {
	for _, list := range [][]ModelInfo{geminiModels, openRouterModels} {
		for _, m := range list {
			if m.ID == id {
				return m.Name
			}
		}
	}
	return id
}
