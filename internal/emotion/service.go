package emotion

import (
	"log/slog"
	"sync"
	"time"

	"github.com/easeaico/custom-chats/internal/types"
)

// Service tracks the last emotion shown by each character.
type Service struct {
	mu      sync.RWMutex
	states  map[string]types.EmotionState
	nowFunc func() time.Time
}

// NewService returns an empty emotion service.
func NewService() *Service {
	return &Service{
		states:  make(map[string]types.EmotionState),
		nowFunc: time.Now,
	}
}

// UpdateFromResponse records the emotion tagged in response for the
// character. It returns the detected emotion, or "" when the response carries
// no tag, in which case the stored state is left untouched.
func (s *Service) UpdateFromResponse(characterID, response string) string {
	emotion := DetectFromResponse(response)
	if emotion == "" || characterID == "" {
		return ""
	}
	s.Set(characterID, emotion)
	slog.Debug("character emotion updated", "character_id", characterID, "emotion", emotion)
	return emotion
}

// Set stores emotion for the character.
func (s *Service) Set(characterID, emotion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[characterID] = types.EmotionState{CurrentEmotion: emotion, Timestamp: s.nowFunc()}
}

// Get returns the stored state for the character.
func (s *Service) Get(characterID string) (types.EmotionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[characterID]
	return state, ok
}

// Clear forgets the character's emotion.
func (s *Service) Clear(characterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, characterID)
}

// Reset forgets every emotion.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]types.EmotionState)
}

// ResolveImage returns the image the character should currently show.
// Emotion galleries follow the stored emotion, falling back to the preferred
// default emotion; other modes use the active image.
func (s *Service) ResolveImage(character types.Character) string {
	gallery := character.ImageGallery
	if len(gallery.Images) == 0 {
		return character.Avatar
	}
	if gallery.Mode != types.GalleryModeEmotion {
		idx := gallery.ActiveImageIndex
		if idx < 0 || idx >= len(gallery.Images) {
			idx = 0
		}
		return gallery.Images[idx].PreviewURL
	}

	current := ""
	if state, ok := s.Get(character.ID); ok {
		current = state.CurrentEmotion
	}
	available := AvailableEmotions(gallery.Images)
	if !ValidateEmotion(current, available) {
		if _, ok := synonyms[current]; !ok {
			current = FallbackEmotion(available)
		}
	}
	return MapToImage(current, gallery.Images)
}
