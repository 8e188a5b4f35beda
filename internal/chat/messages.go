package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/easeaico/custom-chats/internal/types"
)

// MaxMessageLength is the longest user message accepted, in characters.
const MaxMessageLength = 2000

// ValidateMessage trims text and checks it is sendable.
func ValidateMessage(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: message cannot be empty", ErrInvalidMessage)
	}
	if messageLength(trimmed) > MaxMessageLength {
		return "", fmt.Errorf("%w: message cannot exceed %d characters", ErrInvalidMessage, MaxMessageLength)
	}
	return trimmed, nil
}

// messageLength counts UTF-16 code units; characters outside the BMP count
// twice.
func messageLength(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// SendMessage appends a user message and the character's reply. Provider
// failures become error messages in the conversation; the returned error is
// reserved for refusals, which leave the state untouched.
func (s *Store) SendMessage(ctx context.Context, text string) error {
	content, err := ValidateMessage(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	msg := types.Message{
		ID:        newID("msg"),
		Type:      types.MessageTypeUser,
		Content:   content,
		Sender:    s.userNameLocked(),
		CreatedAt: s.nowFunc(),
	}
	msgs := appendMessage(s.state.Messages, msg)
	s.setMessagesLocked(msgs)
	s.status.Typing = true
	t := s.newTurnLocked(content, msgs)
	s.mu.Unlock()

	defer s.finishTyping(ctx)
	s.flush(ctx)

	response, genErr := s.generate(ctx, t)
	s.completeTurn(t, response, genErr, opSend)
	return nil
}

// RegenerateLastMessage drops the trailing character reply and generates a
// new one for the same user message.
func (s *Store) RegenerateLastMessage(ctx context.Context) error {
	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	msgs := s.state.Messages
	if len(msgs) == 0 {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	last := msgs[len(msgs)-1]
	if last.Type != types.MessageTypeCharacter || last.IsError {
		s.mu.Unlock()
		return ErrNotCharacterMessage
	}
	parent := parentUserMessage(msgs, len(msgs)-1)
	if parent < 0 {
		s.mu.Unlock()
		return ErrNoParentMessage
	}
	history := slices.Clone(msgs[:len(msgs)-1])
	s.setMessagesLocked(history)
	s.status.Typing = true
	t := s.newTurnLocked(msgs[parent].Content, history)
	s.mu.Unlock()

	defer s.finishTyping(ctx)
	s.flush(ctx)

	response, err := s.generate(ctx, t)
	s.completeTurn(t, response, err, opRegenerate)
	return nil
}

// EnableMessageEdit marks the latest user message as being edited.
func (s *Store) EnableMessageEdit(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.status.Typing {
		s.mu.Unlock()
		return ErrBusy
	}
	msgs := s.state.Messages
	idx := indexOfMessage(msgs, id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	if msgs[idx].Type != types.MessageTypeUser {
		s.mu.Unlock()
		return ErrNotUserMessage
	}
	if lastUserMessage(msgs) != idx {
		s.mu.Unlock()
		return ErrNotLatest
	}
	msg := msgs[idx].Clone()
	msg.IsEditing = true
	s.setMessagesLocked(replaceMessage(msgs, idx, msg))
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// CancelMessageEdit clears the editing flag of a message.
func (s *Store) CancelMessageEdit(ctx context.Context, id string) error {
	s.mu.Lock()
	msgs := s.state.Messages
	idx := indexOfMessage(msgs, id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	if !msgs[idx].IsEditing {
		s.mu.Unlock()
		return nil
	}
	msg := msgs[idx].Clone()
	msg.IsEditing = false
	s.setMessagesLocked(replaceMessage(msgs, idx, msg))
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// EditLastUserMessage rewrites the latest user message, drops everything
// after it and generates a fresh reply. Unchanged content only ends the
// edit.
func (s *Store) EditLastUserMessage(ctx context.Context, text string) error {
	content, err := ValidateMessage(text)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	msgs := s.state.Messages
	idx := lastUserMessage(msgs)
	if idx < 0 {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	current := msgs[idx]
	edited := current.Clone()
	edited.IsEditing = false
	if current.Content == content {
		s.setMessagesLocked(replaceMessage(msgs, idx, edited))
		s.mu.Unlock()
		s.flush(ctx)
		return nil
	}
	if !current.IsEdited {
		edited.OriginalContent = current.Content
	}
	edited.Content = content
	edited.IsEdited = true

	history := appendMessage(msgs[:idx], edited)
	s.setMessagesLocked(history)
	s.status.Typing = true
	t := s.newTurnLocked(content, history)
	s.mu.Unlock()

	slog.Info("user message edited", "message_id", current.ID, "dropped", len(msgs)-idx-1)

	defer s.finishTyping(ctx)
	s.flush(ctx)

	response, genErr := s.generate(ctx, t)
	s.completeTurn(t, response, genErr, opEdit)
	return nil
}

// DeleteUserMessage removes the user message at index together with every
// later message. The character's welcome message survives the cut.
func (s *Store) DeleteUserMessage(ctx context.Context, index int) error {
	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	msgs := s.state.Messages
	if index < 0 || index >= len(msgs) {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	if msgs[index].Type != types.MessageTypeUser {
		s.mu.Unlock()
		return ErrNotUserMessage
	}

	kept := slices.Clone(msgs[:index])
	for _, m := range msgs[index:] {
		if s.state.CurrentCharacter.IsWelcome(m) {
			kept = append(kept, m)
			break
		}
	}
	s.setMessagesLocked(kept)
	s.mu.Unlock()

	slog.Info("user message deleted", "index", index, "removed", len(msgs)-len(kept))
	s.flush(ctx)
	return nil
}

// ClearMessages resets the active conversation to its welcome message.
func (s *Store) ClearMessages(ctx context.Context) error {
	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.setMessagesLocked(nil)
	s.seedWelcomeLocked()
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

func (s *Store) userNameLocked() string {
	if s.state.CurrentUser.Name != "" {
		return s.state.CurrentUser.Name
	}
	return types.DefaultUser().Name
}

// parentUserMessage returns the index of the last user message before idx.
func parentUserMessage(msgs []types.Message, idx int) int {
	for i := idx - 1; i >= 0; i-- {
		if msgs[i].Type == types.MessageTypeUser {
			return i
		}
	}
	return -1
}

func lastUserMessage(msgs []types.Message) int {
	return parentUserMessage(msgs, len(msgs))
}
