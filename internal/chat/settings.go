package chat

import (
	"context"
	"strings"

	"github.com/easeaico/custom-chats/internal/prompt"
	"github.com/easeaico/custom-chats/internal/types"
)

// UpdateUser replaces the user persona.
func (s *Store) UpdateUser(ctx context.Context, user types.User) error {
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		user.Name = types.DefaultUser().Name
	}
	s.mu.Lock()
	s.state.CurrentUser = user
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// UpdateAPISettings replaces the provider settings.
func (s *Store) UpdateAPISettings(ctx context.Context, settings types.APISettings) error {
	switch settings.Provider {
	case types.ProviderGemini, types.ProviderOpenRouter, types.ProviderProxy:
	default:
		return ErrInvalidProvider
	}
	s.mu.Lock()
	s.state.APISettings = settings
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// UpdateDisplaySettings replaces the display settings.
func (s *Store) UpdateDisplaySettings(ctx context.Context, display types.DisplaySettings) error {
	s.mu.Lock()
	s.state.DisplaySettings = display
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// UpdateCustomPrompt replaces the custom system prompt.
func (s *Store) UpdateCustomPrompt(ctx context.Context, custom types.CustomPrompt) error {
	s.mu.Lock()
	s.state.CustomSystemPrompt = custom
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// PromptPreview is the system prompt that a message would be sent with.
type PromptPreview struct {
	SystemPrompt string                `json:"systemPrompt"`
	Lore         []types.LorebookEntry `json:"lore"`
	Turns        []types.Turn          `json:"turns"`
}

// PreviewPrompt assembles the prompt for userMessage without calling a
// provider.
func (s *Store) PreviewPrompt(userMessage string) (PromptPreview, error) {
	s.mu.Lock()
	t := s.newTurnLocked(userMessage, s.state.Messages)
	s.mu.Unlock()

	lore := prompt.MatchLorebook(t.userMessage, &t.character)
	system, err := s.prompts.SystemPrompt(prompt.Input{
		Character: &t.character,
		User:      t.user,
		Lore:      lore,
		Custom:    t.custom,
	})
	if err != nil {
		return PromptPreview{}, err
	}
	return PromptPreview{SystemPrompt: system, Lore: lore, Turns: s.prompts.Context(t.history)}, nil
}
