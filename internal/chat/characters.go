package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/easeaico/custom-chats/internal/prompt"
	"github.com/easeaico/custom-chats/internal/types"
)

// Characters lists every character ordered by name.
func (s *Store) Characters() []types.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Character, 0, len(s.state.Characters))
	for _, c := range s.state.Characters {
		out = append(out, c.Clone())
	}
	slices.SortFunc(out, func(a, b types.Character) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Character returns one character by id.
func (s *Store) Character(id string) (types.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.Characters[id]
	if !ok {
		return types.Character{}, ErrCharacterNotFound
	}
	return c.Clone(), nil
}

// SelectCharacter stashes the active conversation and switches to id,
// seeding its welcome message when the conversation is empty.
func (s *Store) SelectCharacter(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}
	if err := s.selectLocked(id); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	slog.Info("character selected", "character_id", id)
	s.flush(ctx)
	return nil
}

func (s *Store) selectLocked(id string) error {
	c, ok := s.state.Characters[id]
	if !ok {
		return ErrCharacterNotFound
	}
	conversations := maps.Clone(s.state.Conversations)
	if conversations == nil {
		conversations = make(map[string][]types.Message)
	}
	if _, exists := s.state.Characters[s.state.CurrentCharacter.ID]; exists {
		conversations[s.state.CurrentCharacter.ID] = s.state.Messages
	}
	s.state.Conversations = conversations
	s.state.CurrentCharacter = c.Clone()
	s.setMessagesLocked(conversations[id])
	s.seedWelcomeLocked()
	return nil
}

// CreateCharacter adds a character. An empty id is generated.
func (s *Store) CreateCharacter(ctx context.Context, c types.Character) (types.Character, error) {
	if strings.TrimSpace(c.Name) == "" {
		return types.Character{}, ErrInvalidCharacter
	}
	c = prepareCharacter(c)
	if c.ID == "" {
		c.ID = newID("char")
	}

	s.mu.Lock()
	if _, exists := s.state.Characters[c.ID]; exists {
		s.mu.Unlock()
		return types.Character{}, ErrCharacterExists
	}
	s.putCharacterLocked(c)
	s.mu.Unlock()

	slog.Info("character created", "character_id", c.ID, "name", c.Name)
	s.flush(ctx)
	return c.Clone(), nil
}

// UpdateCharacter replaces the stored character with id, keeping the id.
func (s *Store) UpdateCharacter(ctx context.Context, id string, c types.Character) (types.Character, error) {
	if strings.TrimSpace(c.Name) == "" {
		return types.Character{}, ErrInvalidCharacter
	}
	c.ID = id
	c = prepareCharacter(c)

	s.mu.Lock()
	if _, exists := s.state.Characters[id]; !exists {
		s.mu.Unlock()
		return types.Character{}, ErrCharacterNotFound
	}
	s.putCharacterLocked(c)
	s.mu.Unlock()

	s.flush(ctx)
	return c.Clone(), nil
}

// DeleteCharacter removes a character and its conversation. Deleting the
// active character switches to the first remaining one.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, exists := s.state.Characters[id]; !exists {
		s.mu.Unlock()
		return ErrCharacterNotFound
	}
	if len(s.state.Characters) == 1 {
		s.mu.Unlock()
		return ErrLastCharacter
	}
	if id == s.state.CurrentCharacter.ID && s.busyLocked() {
		s.mu.Unlock()
		return ErrBusy
	}

	characters := maps.Clone(s.state.Characters)
	delete(characters, id)
	s.state.Characters = characters
	conversations := maps.Clone(s.state.Conversations)
	delete(conversations, id)
	s.state.Conversations = conversations
	s.emotions.Clear(id)

	if id == s.state.CurrentCharacter.ID {
		if err := s.selectLocked(firstCharacterID(characters)); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	slog.Info("character deleted", "character_id", id)
	s.flush(ctx)
	return nil
}

// ExportCharacter returns the single-character export document.
func (s *Store) ExportCharacter(id string) (types.CharacterExport, error) {
	c, err := s.Character(id)
	if err != nil {
		return types.CharacterExport{}, err
	}
	return types.CharacterExport{
		Version:   types.ExportVersion,
		Timestamp: s.timestamp(),
		Character: c,
	}, nil
}

// ImportCharacter adds a character from an export document, a bare character
// or a SillyTavern card. The import never collides with an existing id and
// is not selected.
func (s *Store) ImportCharacter(ctx context.Context, data []byte) (types.Character, error) {
	c, err := decodeCharacter(data)
	if err != nil {
		return types.Character{}, err
	}
	base := c.ID
	if base == "" {
		base = "char"
	}
	c.ID = fmt.Sprintf("%s_%d", base, s.nowFunc().UnixMilli())
	c.Name += " (Imported)"
	c = prepareCharacter(c)

	s.mu.Lock()
	s.putCharacterLocked(c)
	s.mu.Unlock()

	slog.Info("character imported", "character_id", c.ID, "name", c.Name)
	s.flush(ctx)
	return c.Clone(), nil
}

func decodeCharacter(data []byte) (types.Character, error) {
	if !gjson.ValidBytes(data) {
		return types.Character{}, fmt.Errorf("%w: malformed JSON", ErrInvalidImport)
	}
	doc := gjson.ParseBytes(data)

	var c types.Character
	switch {
	case doc.Get("character").IsObject():
		if err := json.Unmarshal([]byte(doc.Get("character").Raw), &c); err != nil {
			return c, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
	case doc.Get("data.first_mes").Exists():
		var wrapper types.V2CardWrapper
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return c, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		c = cardCharacter(wrapper.Data)
	case doc.Get("first_mes").Exists():
		var card types.CharactorCard
		if err := json.Unmarshal(data, &card); err != nil {
			return c, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		c = cardCharacter(card)
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
	}
	if strings.TrimSpace(c.Name) == "" {
		return c, fmt.Errorf("%w: character name is missing", ErrInvalidImport)
	}
	return c, nil
}

func cardCharacter(card types.CharactorCard) types.Character {
	card.Description = prompt.NormalizeCardText(card.Description)
	card.Personality = prompt.NormalizeCardText(card.Personality)
	card.Scenario = prompt.NormalizeCardText(card.Scenario)
	card.FirstMes = prompt.NormalizeCardText(card.FirstMes)
	card.MesExample = prompt.NormalizeCardText(card.MesExample)
	return card.ToCharacter()
}

// prepareCharacter normalizes c and gives its lorebook entries and images
// ids.
func prepareCharacter(c types.Character) types.Character {
	c = c.Clone()
	c.Normalize()
	for i := range c.Lorebook {
		if c.Lorebook[i].ID == "" {
			c.Lorebook[i].ID = newID("lore")
		}
	}
	for i := range c.ImageGallery.Images {
		if c.ImageGallery.Images[i].ID == "" {
			c.ImageGallery.Images[i].ID = newID("img")
		}
	}
	if limit := c.ImageGallery.Mode.MaxImages(); len(c.ImageGallery.Images) > limit {
		c.ImageGallery.Images = c.ImageGallery.Images[:limit]
		c.Normalize()
	}
	return c
}

// putCharacterLocked stores c and refreshes the active copy when c is the
// current character.
func (s *Store) putCharacterLocked(c types.Character) {
	characters := maps.Clone(s.state.Characters)
	if characters == nil {
		characters = make(map[string]types.Character)
	}
	characters[c.ID] = c
	s.state.Characters = characters
	if c.ID == s.state.CurrentCharacter.ID {
		s.state.CurrentCharacter = c.Clone()
	}
}

// updateCharacter applies fn to a copy of the character and stores it.
func (s *Store) updateCharacter(ctx context.Context, id string, fn func(c *types.Character) error) error {
	s.mu.Lock()
	stored, ok := s.state.Characters[id]
	if !ok {
		s.mu.Unlock()
		return ErrCharacterNotFound
	}
	c := stored.Clone()
	if err := fn(&c); err != nil {
		s.mu.Unlock()
		return err
	}
	s.putCharacterLocked(c)
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// AddLorebookEntry appends an entry to a character's lorebook.
func (s *Store) AddLorebookEntry(ctx context.Context, characterID string, entry types.LorebookEntry) (types.LorebookEntry, error) {
	entry.ID = newID("lore")
	entry.Triggers = slices.Clone(entry.Triggers)
	err := s.updateCharacter(ctx, characterID, func(c *types.Character) error {
		c.Lorebook = append(c.Lorebook, entry)
		return nil
	})
	return entry, err
}

// UpdateLorebookEntry replaces an entry, keeping its id.
func (s *Store) UpdateLorebookEntry(ctx context.Context, characterID, entryID string, entry types.LorebookEntry) error {
	entry.ID = entryID
	entry.Triggers = slices.Clone(entry.Triggers)
	return s.updateCharacter(ctx, characterID, func(c *types.Character) error {
		idx := slices.IndexFunc(c.Lorebook, func(e types.LorebookEntry) bool { return e.ID == entryID })
		if idx < 0 {
			return ErrLoreEntryNotFound
		}
		c.Lorebook[idx] = entry
		return nil
	})
}

// DeleteLorebookEntry removes an entry.
func (s *Store) DeleteLorebookEntry(ctx context.Context, characterID, entryID string) error {
	return s.updateCharacter(ctx, characterID, func(c *types.Character) error {
		idx := slices.IndexFunc(c.Lorebook, func(e types.LorebookEntry) bool { return e.ID == entryID })
		if idx < 0 {
			return ErrLoreEntryNotFound
		}
		c.Lorebook = slices.Delete(c.Lorebook, idx, idx+1)
		return nil
	})
}
