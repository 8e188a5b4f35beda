package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/easeaico/custom-chats/internal/types"
)

// StorageQuota is the size the storage usage percentage is measured against.
const StorageQuota = 5 * 1024 * 1024

// StorageUsage reports the serialized size of the state.
type StorageUsage struct {
	Bytes      int    `json:"bytes"`
	MB         string `json:"mb"`
	Percentage int    `json:"percentage"`
}

func (s *Store) timestamp() string {
	return s.nowFunc().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// ExportAllData returns the full backup document.
func (s *Store) ExportAllData() types.ExportDocument {
	return types.ExportDocument{
		Version:   types.ExportVersion,
		Timestamp: s.timestamp(),
		State:     s.Snapshot(),
	}
}

// ImportAllData replaces the state with a backup. Sections missing from the
// backup keep their current values, except messages and conversations which
// are reset.
func (s *Store) ImportAllData(ctx context.Context, data []byte) error {
	var doc types.ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if doc.Version == "" {
		return ErrInvalidImport
	}

	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	next := s.state.Clone()
	next.Messages = doc.Messages
	next.Conversations = doc.Conversations
	if doc.Characters != nil {
		next.Characters = doc.Characters
	}
	if doc.CurrentCharacter != nil {
		next.CurrentCharacter = *doc.CurrentCharacter
	}
	if doc.CurrentUser != nil {
		next.CurrentUser = *doc.CurrentUser
	}
	if doc.APISettings != nil {
		next.APISettings = *doc.APISettings
	}
	if doc.DisplaySettings != nil {
		next.DisplaySettings = *doc.DisplaySettings
	}
	if doc.CustomSystemPrompt != nil {
		next.CustomSystemPrompt = *doc.CustomSystemPrompt
	}
	normalizeState(&next)
	s.state = next
	s.mu.Unlock()

	slog.Info("backup imported", "version", doc.Version, "characters", len(next.Characters), "messages", len(next.Messages))
	s.flush(ctx)
	return nil
}

// ClearAllData resets everything except the user persona to defaults.
func (s *Store) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	user := s.state.CurrentUser
	s.state = types.DefaultState(s.opts.DefaultSettings)
	s.state.CurrentUser = user
	s.seedWelcomeLocked()
	s.status.LastLLMResponse = ""
	s.mu.Unlock()

	s.emotions.Reset()
	slog.Info("all data cleared", "profile_id", s.opts.ProfileID)
	s.flush(ctx)
	return nil
}

// ClearConversations drops every conversation, leaving the active character
// with its welcome message.
func (s *Store) ClearConversations(ctx context.Context) error {
	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state.Conversations = map[string][]types.Message{}
	s.setMessagesLocked(nil)
	s.seedWelcomeLocked()
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// ClearCharacters removes every character and restores the default one.
func (s *Store) ClearCharacters(ctx context.Context) error {
	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	def := types.DefaultCharacter()
	kept := s.state.Conversations[def.ID]
	s.state.Characters = map[string]types.Character{def.ID: def}
	s.state.Conversations = map[string][]types.Message{}
	s.state.CurrentCharacter = def.Clone()
	s.setMessagesLocked(kept)
	s.seedWelcomeLocked()
	s.mu.Unlock()

	s.emotions.Reset()
	s.flush(ctx)
	return nil
}

// StorageUsage measures the state as it would be stored, ignoring images
// referenced by URL.
func (s *Store) StorageUsage() (StorageUsage, error) {
	isURL := func(img types.Image) bool { return img.IsURL }
	st := s.Snapshot()
	for id, c := range st.Characters {
		c.ImageGallery.Images = slices.DeleteFunc(c.ImageGallery.Images, isURL)
		st.Characters[id] = c
	}
	st.CurrentCharacter.ImageGallery.Images = slices.DeleteFunc(st.CurrentCharacter.ImageGallery.Images, isURL)
	data, err := json.Marshal(st)
	if err != nil {
		return StorageUsage{}, err
	}
	size := len(data)
	return StorageUsage{
		Bytes:      size,
		MB:         fmt.Sprintf("%.2f", float64(size)/(1024*1024)),
		Percentage: int(float64(size)/StorageQuota*100 + 0.5),
	}, nil
}
