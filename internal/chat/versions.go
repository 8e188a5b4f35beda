package chat

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/easeaico/custom-chats/internal/models"
	"github.com/easeaico/custom-chats/internal/types"
)

const regenerationTimedOut = "Regeneration timed out. Please try again."

// RegenerateMessageWithVersions adds a new version to the latest character
// message instead of replacing it. Failures are recorded as error versions.
func (s *Store) RegenerateMessageWithVersions(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	msgs := s.state.Messages
	idx := indexOfMessage(msgs, id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	if msgs[idx].Type != types.MessageTypeCharacter {
		s.mu.Unlock()
		return ErrNotCharacterMessage
	}
	if slices.ContainsFunc(msgs[idx+1:], func(m types.Message) bool { return m.Type == types.MessageTypeCharacter }) {
		s.mu.Unlock()
		return ErrNotLatest
	}
	parent := parentUserMessage(msgs, idx)
	if parent < 0 {
		s.mu.Unlock()
		return ErrNoParentMessage
	}

	t := s.newTurnLocked(msgs[parent].Content, slices.Clone(msgs[:idx]))
	if !t.settings.HasCredentials() {
		s.applyVersionLocked(t.characterID, id, s.errorVersion(types.ErrorTypeAPIKey))
		s.mu.Unlock()
		s.flush(ctx)
		return nil
	}
	s.status.Regenerating = true
	s.status.RegeneratingMessageID = id
	start := s.nowFunc()
	s.mu.Unlock()

	defer s.finishRegenerating(ctx, start)

	rctx, cancel := context.WithTimeout(ctx, s.opts.RegenerateTimeout)
	response, err := s.generateWithin(rctx, t)
	watchdog := err != nil && ctx.Err() == nil && errors.Is(rctx.Err(), context.DeadlineExceeded)
	cancel()

	var version types.Version
	switch {
	case err == nil:
		version = types.Version{ID: newID("ver"), Content: response, CreatedAt: s.nowFunc()}
	case watchdog:
		slog.Warn("regeneration timed out", "message_id", id, "timeout", s.opts.RegenerateTimeout)
		version = types.Version{
			ID:        newID("ver"),
			Content:   regenerationTimedOut,
			CreatedAt: s.nowFunc(),
			IsError:   true,
			ErrorType: types.ErrorTypeTimeout,
		}
	default:
		slog.Error("regeneration failed", "message_id", id, "error", err.Error())
		version = s.errorVersion(models.Categorize(err))
	}

	s.mu.Lock()
	s.applyVersionLocked(t.characterID, id, version)
	if err == nil {
		s.recordResponseLocked(t.characterID, response)
	}
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// ChangeMessageVersion moves the selected version one step in direction's
// sign. Out-of-range moves are ignored.
func (s *Store) ChangeMessageVersion(ctx context.Context, id string, direction int) error {
	s.mu.Lock()
	msgs := s.state.Messages
	idx := indexOfMessage(msgs, id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	shifted, changed := msgs[idx].ShiftVersion(direction)
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.setMessagesLocked(replaceMessage(msgs, idx, shifted))
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

type generation struct {
	response string
	err      error
}

// generateWithin returns once ctx is done even if the provider ignores it.
// A late response is dropped.
func (s *Store) generateWithin(ctx context.Context, t turn) (string, error) {
	done := make(chan generation, 1)
	go func() {
		response, err := s.generate(ctx, t)
		done <- generation{response: response, err: err}
	}()
	select {
	case g := <-done:
		return g.response, g.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Store) errorVersion(category types.ErrorType) types.Version {
	return types.Version{
		ID:        newID("ver"),
		Content:   errorCopy(category, opRegenerate),
		CreatedAt: s.nowFunc(),
		IsError:   true,
		ErrorType: category,
	}
}

// applyVersionLocked looks the message up again by id since the
// conversation may have changed while the provider was called.
func (s *Store) applyVersionLocked(characterID, messageID string, v types.Version) {
	msgs := s.conversationLocked(characterID)
	idx := indexOfMessage(msgs, messageID)
	if idx < 0 {
		slog.Warn("regenerated message disappeared", "character_id", characterID, "message_id", messageID)
		return
	}
	s.setConversationLocked(characterID, replaceMessage(msgs, idx, msgs[idx].AddVersion(v)))
}

// finishRegenerating keeps the regenerating state visible for at least the
// configured minimum before clearing it.
func (s *Store) finishRegenerating(ctx context.Context, start time.Time) {
	if remaining := s.opts.MinRegenerateDuration - s.nowFunc().Sub(start); remaining > 0 {
		s.sleepFunc(ctx, remaining)
	}
	s.mu.Lock()
	s.status.Regenerating = false
	s.status.RegeneratingMessageID = ""
	s.mu.Unlock()
}
