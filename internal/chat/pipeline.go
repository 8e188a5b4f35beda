package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/easeaico/custom-chats/internal/models"
	"github.com/easeaico/custom-chats/internal/prompt"
	"github.com/easeaico/custom-chats/internal/retry"
	"github.com/easeaico/custom-chats/internal/types"
)

type operation int

const (
	opSend operation = iota
	opRegenerate
	opEdit
)

// turn captures everything a generation needs so the provider call can run
// without holding the store lock.
type turn struct {
	characterID string
	character   types.Character
	user        types.User
	settings    types.APISettings
	custom      types.CustomPrompt
	history     []types.Message
	userMessage string
}

func (s *Store) newTurnLocked(userMessage string, history []types.Message) turn {
	return turn{
		characterID: s.state.CurrentCharacter.ID,
		character:   s.state.CurrentCharacter.Clone(),
		user:        s.state.CurrentUser,
		settings:    s.state.APISettings,
		custom:      s.state.CustomSystemPrompt,
		history:     history,
		userMessage: userMessage,
	}
}

// generate runs lore matching, prompt assembly and the provider call with
// retries.
func (s *Store) generate(ctx context.Context, t turn) (string, error) {
	if !t.settings.HasCredentials() {
		return "", fmt.Errorf("%s: %w", t.settings.Provider, models.ErrNoCredentials)
	}
	provider, err := s.providers(ctx, t.settings)
	if err != nil {
		return "", err
	}

	lore := prompt.MatchLorebook(t.userMessage, &t.character)
	system, err := s.prompts.SystemPrompt(prompt.Input{
		Character: &t.character,
		User:      t.user,
		Lore:      lore,
		Custom:    t.custom,
	})
	if err != nil {
		return "", fmt.Errorf("build system prompt: %w", err)
	}
	req := models.NewRequest(t.settings, system, s.prompts.Context(t.history), t.userMessage)

	slog.Info("generating character response",
		"character_id", t.characterID,
		"provider", provider.Name(),
		"model", req.Model,
		"lore_matches", len(lore),
		"turns", len(req.Turns))

	return retry.Do(ctx, s.opts.Retry, func(ctx context.Context) (string, error) {
		return provider.Send(ctx, req)
	}, s.retryOpts...)
}

// completeTurn appends the response, or its error message, to the
// conversation the turn was started on.
func (s *Store) completeTurn(t turn, response string, err error, op operation) {
	msg := types.Message{
		ID:        newID("msg"),
		Type:      types.MessageTypeCharacter,
		Sender:    t.character.Name,
		CreatedAt: s.nowFunc(),
	}
	if err != nil {
		category := models.Categorize(err)
		msg.Content = errorCopy(category, op)
		msg.IsError = true
		msg.ErrorType = category
		slog.Error("generation failed", "character_id", t.characterID, "category", category, "error", err.Error())
	} else {
		msg.Content = response
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setConversationLocked(t.characterID, appendMessage(s.conversationLocked(t.characterID), msg))
	if err == nil {
		s.recordResponseLocked(t.characterID, response)
	}
}

func (s *Store) recordResponseLocked(characterID, response string) {
	s.status.LastLLMResponse = response
	if detected := s.emotions.UpdateFromResponse(characterID, response); detected != "" {
		slog.Debug("emotion detected", "character_id", characterID, "emotion", detected)
	}
}

func (s *Store) finishTyping(ctx context.Context) {
	s.mu.Lock()
	s.status.Typing = false
	s.mu.Unlock()
	s.flush(ctx)
}

// errorCopy returns the user-facing text for a failed generation.
func errorCopy(category types.ErrorType, op operation) string {
	switch category {
	case types.ErrorTypeAPIKey:
		return "Please configure your API key in settings."
	case types.ErrorTypeRateLimit:
		return "Rate limit exceeded. Please wait a moment before trying again."
	case types.ErrorTypeNetwork:
		return "Network error. Please check your connection and try again."
	case types.ErrorTypeQuota:
		return "API quota exceeded. Please check your billing settings."
	case types.ErrorTypeTimeout:
		return "Request timed out. Please try again."
	}
	switch op {
	case opRegenerate:
		return "Sorry, I encountered an error while regenerating."
	case opEdit:
		return "Sorry, I encountered an error while regenerating the response."
	default:
		return "Sorry, I encountered an error."
	}
}
