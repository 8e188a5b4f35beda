// Package chat owns the conversation state and every operation that mutates it.
package chat

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/easeaico/custom-chats/internal/emotion"
	"github.com/easeaico/custom-chats/internal/models"
	"github.com/easeaico/custom-chats/internal/prompt"
	"github.com/easeaico/custom-chats/internal/retry"
	"github.com/easeaico/custom-chats/internal/types"
)

// StateRepo persists the state document of a profile.
type StateRepo interface {
	// Load returns nil, nil when the profile has no saved state.
	Load(ctx context.Context, profileID string) (*types.State, error)
	Save(ctx context.Context, profileID string, state *types.State) error
}

// ProviderFactory returns the provider selected by settings.
type ProviderFactory func(ctx context.Context, settings types.APISettings) (models.Provider, error)

// Options tunes the store.
type Options struct {
	ProfileID             string
	HistoryLimit          int
	Retry                 retry.Policy
	RegenerateTimeout     time.Duration
	MinRegenerateDuration time.Duration
	// DefaultSettings seeds apiSettings for new or cleared profiles.
	DefaultSettings types.APISettings
}

// Status reports the in-flight generation, if any.
type Status struct {
	Typing                bool   `json:"isTyping"`
	Regenerating          bool   `json:"isRegenerating"`
	RegeneratingMessageID string `json:"regeneratingMessageId,omitempty"`
	LastLLMResponse       string `json:"lastLlmResponse,omitempty"`
}

// Store serializes all mutations of one profile's state. Provider calls run
// outside the lock; the typing/regenerating flags act as the single
// in-flight token.
type Store struct {
	mu     sync.Mutex
	saveMu sync.Mutex
	state  types.State
	status Status

	repo      StateRepo
	providers ProviderFactory
	prompts   *prompt.Builder
	emotions  *emotion.Service
	opts      Options

	nowFunc   func() time.Time
	sleepFunc func(ctx context.Context, d time.Duration)
	retryOpts []retry.Option
}

// NewStore creates a store seeded with the default character. Call Init to
// load persisted state.
func NewStore(repo StateRepo, providers ProviderFactory, emotions *emotion.Service, opts Options) *Store {
	if opts.ProfileID == "" {
		opts.ProfileID = "default"
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.RegenerateTimeout <= 0 {
		opts.RegenerateTimeout = 30 * time.Second
	}
	if opts.MinRegenerateDuration <= 0 {
		opts.MinRegenerateDuration = 500 * time.Millisecond
	}
	if opts.DefaultSettings.Provider == "" {
		opts.DefaultSettings = types.DefaultAPISettings()
	}
	if emotions == nil {
		emotions = emotion.NewService()
	}

	s := &Store{
		repo:      repo,
		providers: providers,
		prompts:   prompt.NewBuilder(opts.HistoryLimit),
		emotions:  emotions,
		opts:      opts,
		nowFunc:   time.Now,
		sleepFunc: sleepContext,
	}
	s.state = types.DefaultState(opts.DefaultSettings)
	s.seedWelcomeLocked()
	return s
}

// Init loads the profile's state, seeding the default document when none
// exists, and makes sure the active conversation has its welcome message.
func (s *Store) Init(ctx context.Context) error {
	var loaded *types.State
	if s.repo != nil {
		st, err := s.repo.Load(ctx, s.opts.ProfileID)
		if err != nil {
			return err
		}
		loaded = st
	}

	s.mu.Lock()
	if loaded != nil {
		s.state = *loaded
		slog.Info("chat state loaded", "profile_id", s.opts.ProfileID, "characters", len(loaded.Characters), "messages", len(loaded.Messages))
	} else {
		s.state = types.DefaultState(s.opts.DefaultSettings)
		slog.Info("chat state seeded", "profile_id", s.opts.ProfileID)
	}
	normalizeState(&s.state)
	s.seedWelcomeLocked()
	s.mu.Unlock()

	s.flush(ctx)
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() types.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Status returns the in-flight flags.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) busyLocked() bool {
	return s.status.Typing || s.status.Regenerating
}

// setMessagesLocked replaces the active conversation in both the messages
// list and the conversation map.
func (s *Store) setMessagesLocked(msgs []types.Message) {
	if msgs == nil {
		msgs = []types.Message{}
	}
	conversations := maps.Clone(s.state.Conversations)
	if conversations == nil {
		conversations = make(map[string][]types.Message)
	}
	conversations[s.state.CurrentCharacter.ID] = msgs
	s.state.Conversations = conversations
	s.state.Messages = msgs
}

// conversationLocked returns the stored messages of a character.
func (s *Store) conversationLocked(characterID string) []types.Message {
	if characterID == s.state.CurrentCharacter.ID {
		return s.state.Messages
	}
	return s.state.Conversations[characterID]
}

// setConversationLocked replaces a character's messages, mirroring the
// active one into the messages list.
func (s *Store) setConversationLocked(characterID string, msgs []types.Message) {
	if characterID == s.state.CurrentCharacter.ID {
		s.setMessagesLocked(msgs)
		return
	}
	conversations := maps.Clone(s.state.Conversations)
	conversations[characterID] = msgs
	s.state.Conversations = conversations
}

func (s *Store) welcomeMessageLocked(character types.Character) types.Message {
	return types.Message{
		ID:        character.ID + "_welcome",
		Type:      types.MessageTypeCharacter,
		Content:   prompt.Expand(character.FirstMessage, prompt.VarsFor(&character, s.state.CurrentUser)),
		Sender:    character.Name,
		CreatedAt: s.nowFunc(),
	}
}

// seedWelcomeLocked starts an empty active conversation with the character's
// first message.
func (s *Store) seedWelcomeLocked() {
	if len(s.state.Messages) > 0 || s.state.CurrentCharacter.FirstMessage == "" {
		return
	}
	s.setMessagesLocked([]types.Message{s.welcomeMessageLocked(s.state.CurrentCharacter)})
}

// flush saves the latest state. Failures are logged; the in-memory state
// stays authoritative.
func (s *Store) flush(ctx context.Context) {
	if s.repo == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	snapshot := s.state.Clone()
	s.mu.Unlock()

	if err := s.repo.Save(context.WithoutCancel(ctx), s.opts.ProfileID, &snapshot); err != nil {
		slog.Error("failed to persist chat state", "profile_id", s.opts.ProfileID, "error", err.Error())
	}
}

func normalizeState(st *types.State) {
	if st.Messages == nil {
		st.Messages = []types.Message{}
	}
	if st.Conversations == nil {
		st.Conversations = make(map[string][]types.Message)
	}
	if len(st.Characters) == 0 {
		def := types.DefaultCharacter()
		st.Characters = map[string]types.Character{def.ID: def}
	}
	for id, c := range st.Characters {
		c.ID = id
		c.Normalize()
		st.Characters[id] = c
	}
	if c, ok := st.Characters[st.CurrentCharacter.ID]; ok {
		st.CurrentCharacter = c.Clone()
	} else {
		st.CurrentCharacter = st.Characters[firstCharacterID(st.Characters)].Clone()
		st.Messages = types.CloneMessages(st.Conversations[st.CurrentCharacter.ID])
		if st.Messages == nil {
			st.Messages = []types.Message{}
		}
	}
	if st.CurrentUser.Name == "" {
		st.CurrentUser = types.DefaultUser()
	}
	if st.APISettings.Provider == "" {
		st.APISettings.Provider = types.ProviderGemini
	}
	if st.DisplaySettings == (types.DisplaySettings{}) {
		st.DisplaySettings = types.DefaultDisplaySettings()
	}
}

func firstCharacterID(characters map[string]types.Character) string {
	ids := slices.Sorted(maps.Keys(characters))
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func indexOfMessage(msgs []types.Message, id string) int {
	return slices.IndexFunc(msgs, func(m types.Message) bool { return m.ID == id })
}

// appendMessage returns a new slice; the input is never written to.
func appendMessage(msgs []types.Message, msg types.Message) []types.Message {
	out := make([]types.Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, msg)
}

// replaceMessage returns a copy of msgs with msgs[idx] replaced.
func replaceMessage(msgs []types.Message, idx int, msg types.Message) []types.Message {
	out := slices.Clone(msgs)
	out[idx] = msg
	return out
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
