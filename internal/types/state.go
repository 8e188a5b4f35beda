package types

import "time"

// Providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderProxy      = "proxy"
)

// APISettings selects the provider and its credentials.
type APISettings struct {
	Provider         string  `json:"provider"`
	GeminiAPIKey     string  `json:"geminiApiKey,omitempty"`
	OpenRouterAPIKey string  `json:"openRouterApiKey,omitempty"`
	ProxyURL         string  `json:"proxyUrl,omitempty"`
	ProxyAPIKey      string  `json:"proxyApiKey,omitempty"`
	SelectedModel    string  `json:"selectedModel"`
	Temperature      float64 `json:"temperature,omitempty"`
	MaxTokens        int     `json:"maxTokens,omitempty"`
	TopP             float64 `json:"topP,omitempty"`
	TopK             int     `json:"topK,omitempty"`
	FrequencyPenalty float64 `json:"frequencyPenalty,omitempty"`
	PresencePenalty  float64 `json:"presencePenalty,omitempty"`
}

// HasCredentials reports whether the selected provider can be called.
// Only the proxy key is optional.
func (s APISettings) HasCredentials() bool {
	switch s.Provider {
	case ProviderOpenRouter:
		return s.OpenRouterAPIKey != ""
	case ProviderProxy:
		return s.ProxyURL != ""
	default:
		return s.GeminiAPIKey != ""
	}
}

// DisplaySettings is opaque UI configuration.
type DisplaySettings struct {
	PrimaryColor      string `json:"primaryColor"`
	PrimaryLightColor string `json:"primaryLightColor"`
	TextSize          string `json:"textSize"`
}

// CustomPrompt replaces the default system prompt when enabled.
type CustomPrompt struct {
	Enabled                bool   `json:"enabled"`
	Content                string `json:"content"`
	UseStructuredPrompting bool   `json:"useStructuredPrompting"`
}

// EmotionState is the last emotion observed for a character.
type EmotionState struct {
	CurrentEmotion string    `json:"currentEmotion"`
	Timestamp      time.Time `json:"timestamp"`
}

// State is the persisted document.
type State struct {
	Messages           []Message            `json:"messages"`
	Conversations      map[string][]Message `json:"conversations"`
	CurrentCharacter   Character            `json:"currentCharacter"`
	CurrentUser        User                 `json:"currentUser"`
	Characters         map[string]Character `json:"characters"`
	APISettings        APISettings          `json:"apiSettings"`
	DisplaySettings    DisplaySettings      `json:"displaySettings"`
	CustomSystemPrompt CustomPrompt         `json:"customSystemPrompt"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Messages = CloneMessages(s.Messages)
	out.CurrentCharacter = s.CurrentCharacter.Clone()
	if s.Conversations != nil {
		out.Conversations = make(map[string][]Message, len(s.Conversations))
		for id, msgs := range s.Conversations {
			out.Conversations[id] = CloneMessages(msgs)
		}
	}
	if s.Characters != nil {
		out.Characters = make(map[string]Character, len(s.Characters))
		for id, c := range s.Characters {
			out.Characters[id] = c.Clone()
		}
	}
	return out
}

// ExportVersion is written into every export document.
const ExportVersion = "1.0"

// ExportDocument is the full-data export format.
type ExportDocument struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	State
}

// ImportDocument mirrors ExportDocument with every section optional.
type ImportDocument struct {
	Version            string               `json:"version"`
	Messages           []Message            `json:"messages"`
	Conversations      map[string][]Message `json:"conversations"`
	CurrentCharacter   *Character           `json:"currentCharacter"`
	CurrentUser        *User                `json:"currentUser"`
	Characters         map[string]Character `json:"characters"`
	APISettings        *APISettings         `json:"apiSettings"`
	DisplaySettings    *DisplaySettings     `json:"displaySettings"`
	CustomSystemPrompt *CustomPrompt        `json:"customSystemPrompt"`
}

// CharacterExport is the single-character export format.
type CharacterExport struct {
	Version   string    `json:"version"`
	Timestamp string    `json:"timestamp"`
	Character Character `json:"character"`
}
