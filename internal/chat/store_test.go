package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/easeaico/custom-chats/internal/emotion"
	"github.com/easeaico/custom-chats/internal/models"
	"github.com/easeaico/custom-chats/internal/retry"
	"github.com/easeaico/custom-chats/internal/types"
)

type fakeProvider struct {
	mu       sync.Mutex
	requests []*models.Request
	send     func(ctx context.Context, req *models.Request) (string, error)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Send(ctx context.Context, req *models.Request) (string, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	send := p.send
	p.mu.Unlock()
	return send(ctx, req)
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *fakeProvider) last() *models.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

// reply answers every call with the next scripted response, repeating the
// last one.
func reply(responses ...string) func(context.Context, *models.Request) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(context.Context, *models.Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		r := responses[min(i, len(responses)-1)]
		i++
		return r, nil
	}
}

type memoryRepo struct {
	mu      sync.Mutex
	saved   *types.State
	saves   int
	saveErr error
}

func (r *memoryRepo) Load(ctx context.Context, profileID string) (*types.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		return nil, nil
	}
	st := r.saved.Clone()
	return &st, nil
}

func (r *memoryRepo) Save(ctx context.Context, profileID string, state *types.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	st := state.Clone()
	r.saved = &st
	return nil
}

type instantTimer struct {
	c chan time.Time
}

func (t *instantTimer) Start(time.Duration) { t.c <- time.Now() }
func (t *instantTimer) Stop()               {}
func (t *instantTimer) C() <-chan time.Time { return t.c }
func newInstantTimer() *instantTimer        { return &instantTimer{c: make(chan time.Time, 1)} }

func testSettings() types.APISettings {
	return types.APISettings{
		Provider:      types.ProviderGemini,
		GeminiAPIKey:  "test-key",
		SelectedModel: "gemini-2.5-flash",
		Temperature:   0.7,
		MaxTokens:     1024,
	}
}

func newTestStore(t *testing.T, p *fakeProvider, opts Options) (*Store, *memoryRepo) {
	t.Helper()
	if opts.DefaultSettings.Provider == "" {
		opts.DefaultSettings = testSettings()
	}
	repo := &memoryRepo{}
	factory := func(ctx context.Context, settings types.APISettings) (models.Provider, error) {
		return p, nil
	}
	s := NewStore(repo, factory, emotion.NewService(), opts)
	s.retryOpts = []retry.Option{retry.WithTimer(newInstantTimer())}
	s.sleepFunc = func(context.Context, time.Duration) {}
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s, repo
}

func TestInitSeedsWelcomeMessage(t *testing.T) {
	s, repo := newTestStore(t, &fakeProvider{}, Options{})

	st := s.Snapshot()
	if len(st.Messages) != 1 {
		t.Fatalf("expected welcome message, got %d messages", len(st.Messages))
	}
	welcome := st.Messages[0]
	if welcome.ID != "hayeon_welcome" || welcome.Sender != "Hayeon" || welcome.Type != types.MessageTypeCharacter {
		t.Fatalf("unexpected welcome message: %+v", welcome)
	}
	if len(st.Conversations["hayeon"]) != 1 {
		t.Fatalf("conversation map not synced: %+v", st.Conversations)
	}
	if repo.saved == nil {
		t.Fatalf("expected seeded state to be persisted")
	}
}

func TestInitLoadsPersistedState(t *testing.T) {
	repo := &memoryRepo{}
	st := types.DefaultState(testSettings())
	st.CurrentUser = types.User{Name: "Jun"}
	st.Messages = []types.Message{{ID: "m1", Type: types.MessageTypeUser, Content: "saved"}}
	repo.saved = &st

	s := NewStore(repo, nil, nil, Options{})
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	got := s.Snapshot()
	if got.CurrentUser.Name != "Jun" || len(got.Messages) != 1 || got.Messages[0].Content != "saved" {
		t.Fatalf("persisted state not loaded: %+v", got)
	}
}

func TestSendMessageAppendsReply(t *testing.T) {
	p := &fakeProvider{send: reply(`<Emotion="happy"> Nice to meet you!`)}
	s, _ := newTestStore(t, p, Options{})

	if err := s.SendMessage(context.Background(), "  hello  "); err != nil {
		t.Fatalf("send: %v", err)
	}

	st := s.Snapshot()
	if len(st.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(st.Messages))
	}
	user, bot := st.Messages[1], st.Messages[2]
	if user.Content != "hello" || user.Type != types.MessageTypeUser || user.Sender != "User" {
		t.Fatalf("unexpected user message: %+v", user)
	}
	if bot.Content != `<Emotion="happy"> Nice to meet you!` || bot.IsError || bot.Sender != "Hayeon" {
		t.Fatalf("unexpected reply: %+v", bot)
	}
	if req := p.last(); req.UserMessage != "hello" || !strings.Contains(req.SystemPrompt, "Hayeon") {
		t.Fatalf("unexpected request: %+v", req)
	}
	status := s.Status()
	if status.Typing || status.LastLLMResponse != bot.Content {
		t.Fatalf("unexpected status: %+v", status)
	}
	if state, ok := s.CharacterEmotion("hayeon"); !ok || state.CurrentEmotion != "happy" {
		t.Fatalf("emotion not recorded: %+v", state)
	}
}

func TestSendMessageRejectsInvalidText(t *testing.T) {
	p := &fakeProvider{send: reply("unused")}
	s, _ := newTestStore(t, p, Options{})

	for _, text := range []string{"", "   \n", strings.Repeat("a", MaxMessageLength+1)} {
		if err := s.SendMessage(context.Background(), text); !errors.Is(err, ErrInvalidMessage) {
			t.Fatalf("expected ErrInvalidMessage for %q, got %v", text[:min(len(text), 10)], err)
		}
	}
	if p.calls() != 0 || len(s.Snapshot().Messages) != 1 {
		t.Fatalf("invalid message must not change state")
	}
	if _, err := ValidateMessage(strings.Repeat("가", MaxMessageLength)); err != nil {
		t.Fatalf("limit counts characters, got %v", err)
	}
	if _, err := ValidateMessage(strings.Repeat("😀", MaxMessageLength/2)); err != nil {
		t.Fatalf("emoji at the limit rejected: %v", err)
	}
	if _, err := ValidateMessage(strings.Repeat("😀", MaxMessageLength/2+1)); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("emoji count as two code units, got %v", err)
	}
}

func TestSendMessageRetriesAndRecordsError(t *testing.T) {
	p := &fakeProvider{send: func(context.Context, *models.Request) (string, error) {
		return "", errors.New("OpenRouter API error: 429 - rate limit exceeded")
	}}
	s, _ := newTestStore(t, p, Options{})

	if err := s.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("provider failures are not returned, got %v", err)
	}
	if p.calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.calls())
	}
	last := s.Snapshot().Messages[2]
	if !last.IsError || last.ErrorType != types.ErrorTypeRateLimit {
		t.Fatalf("unexpected error message: %+v", last)
	}
	if last.Content != "Rate limit exceeded. Please wait a moment before trying again." {
		t.Fatalf("unexpected copy: %q", last.Content)
	}
}

func TestSendMessageWithoutCredentials(t *testing.T) {
	p := &fakeProvider{send: reply("unused")}
	s, _ := newTestStore(t, p, Options{DefaultSettings: types.APISettings{Provider: types.ProviderOpenRouter}})

	if err := s.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if p.calls() != 0 {
		t.Fatalf("provider must not be called without credentials")
	}
	last := s.Snapshot().Messages[2]
	if !last.IsError || last.ErrorType != types.ErrorTypeAPIKey || last.Content != "Please configure your API key in settings." {
		t.Fatalf("unexpected message: %+v", last)
	}
}

func TestErrorMessagesStayOutOfContext(t *testing.T) {
	calls := 0
	p := &fakeProvider{send: func(context.Context, *models.Request) (string, error) {
		calls++
		if calls <= 3 {
			return "", errors.New("boom")
		}
		return "ok", nil
	}}
	s, _ := newTestStore(t, p, Options{})

	_ = s.SendMessage(context.Background(), "first")
	_ = s.SendMessage(context.Background(), "second")

	for _, turn := range p.last().Turns {
		if strings.Contains(turn.Content, "Sorry") {
			t.Fatalf("error message leaked into context: %+v", p.last().Turns)
		}
	}
	if last := s.Snapshot().Messages; last[2].Content != "Sorry, I encountered an error." {
		t.Fatalf("unexpected generic copy: %q", last[2].Content)
	}
}

func TestOperationsRefusedWhileGenerating(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	p := &fakeProvider{send: func(ctx context.Context, req *models.Request) (string, error) {
		started <- struct{}{}
		<-release
		return "done", nil
	}}
	s, _ := newTestStore(t, p, Options{})

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "hello") }()
	<-started

	if !s.Status().Typing {
		t.Fatalf("expected typing status")
	}
	if err := s.SendMessage(context.Background(), "again"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := s.RegenerateLastMessage(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := s.RegenerateMessageWithVersions(context.Background(), "hayeon_welcome"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := s.DeleteUserMessage(context.Background(), 1); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := s.SelectCharacter(context.Background(), "hayeon"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("send: %v", err)
	}
	if s.Status().Typing {
		t.Fatalf("typing flag not cleared")
	}
	if got := len(s.Snapshot().Messages); got != 3 {
		t.Fatalf("expected 3 messages, got %d", got)
	}
}

func TestRegenerateLastMessage(t *testing.T) {
	p := &fakeProvider{send: reply("first", "second")}
	s, _ := newTestStore(t, p, Options{})

	if err := s.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := s.RegenerateLastMessage(context.Background()); err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	msgs := s.Snapshot().Messages
	if len(msgs) != 3 || msgs[2].Content != "second" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	req := p.last()
	if req.UserMessage != "hello" {
		t.Fatalf("expected parent user message, got %q", req.UserMessage)
	}
	for _, turn := range req.Turns {
		if turn.Content == "first" {
			t.Fatalf("replaced reply must not be in context")
		}
	}
}

func TestRegenerateLastMessageRequiresCharacterReply(t *testing.T) {
	p := &fakeProvider{send: func(context.Context, *models.Request) (string, error) { return "", errors.New("boom") }}
	s, _ := newTestStore(t, p, Options{})

	if err := s.RegenerateLastMessage(context.Background()); !errors.Is(err, ErrNoParentMessage) {
		t.Fatalf("welcome only: expected ErrNoParentMessage, got %v", err)
	}
	_ = s.SendMessage(context.Background(), "hello")
	if err := s.RegenerateLastMessage(context.Background()); !errors.Is(err, ErrNotCharacterMessage) {
		t.Fatalf("error reply: expected ErrNotCharacterMessage, got %v", err)
	}
}

func TestRegenerateWithVersions(t *testing.T) {
	p := &fakeProvider{send: reply("first", "second")}
	var slept []time.Duration
	s, _ := newTestStore(t, p, Options{})
	s.sleepFunc = func(ctx context.Context, d time.Duration) { slept = append(slept, d) }

	_ = s.SendMessage(context.Background(), "hello")
	id := s.Snapshot().Messages[2].ID

	if err := s.RegenerateMessageWithVersions(context.Background(), id); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	msg := s.Snapshot().Messages[2]
	if len(msg.Versions) != 2 || msg.CurrentVersionIndex != 2 || msg.Content != "second" {
		t.Fatalf("unexpected versions: %+v", msg)
	}
	if msg.Versions[0].Content != "first" || msg.Versions[0].ID != "ver_"+id+"_1" {
		t.Fatalf("original content not kept as version 1: %+v", msg.Versions[0])
	}
	if status := s.Status(); status.Regenerating || status.RegeneratingMessageID != "" {
		t.Fatalf("regenerating flags not cleared: %+v", status)
	}
	if len(slept) != 1 || slept[0] <= 0 || slept[0] > 500*time.Millisecond {
		t.Fatalf("expected minimum display wait, got %v", slept)
	}

	steps := []struct {
		direction int
		want      int
	}{
		{-1, 1},
		{-1, 1},
		{+5, 2},
		{+1, 2},
	}
	for _, step := range steps {
		if err := s.ChangeMessageVersion(context.Background(), id, step.direction); err != nil {
			t.Fatalf("change version: %v", err)
		}
		got := s.Snapshot().Messages[2]
		if got.CurrentVersionIndex != step.want || got.Content != got.Versions[step.want-1].Content {
			t.Fatalf("direction %d: expected version %d, got %+v", step.direction, step.want, got)
		}
	}
}

func TestRegenerateWithVersionsValidation(t *testing.T) {
	p := &fakeProvider{send: reply("one", "two")}
	s, _ := newTestStore(t, p, Options{})

	if err := s.RegenerateMessageWithVersions(context.Background(), "hayeon_welcome"); !errors.Is(err, ErrNoParentMessage) {
		t.Fatalf("expected ErrNoParentMessage, got %v", err)
	}
	_ = s.SendMessage(context.Background(), "a")
	_ = s.SendMessage(context.Background(), "b")
	msgs := s.Snapshot().Messages

	if err := s.RegenerateMessageWithVersions(context.Background(), msgs[2].ID); !errors.Is(err, ErrNotLatest) {
		t.Fatalf("expected ErrNotLatest, got %v", err)
	}
	if err := s.RegenerateMessageWithVersions(context.Background(), msgs[3].ID); !errors.Is(err, ErrNotCharacterMessage) {
		t.Fatalf("expected ErrNotCharacterMessage, got %v", err)
	}
	if err := s.RegenerateMessageWithVersions(context.Background(), "missing"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestRegenerateWithVersionsWithoutCredentials(t *testing.T) {
	p := &fakeProvider{send: reply("first")}
	s, _ := newTestStore(t, p, Options{})
	_ = s.SendMessage(context.Background(), "hello")
	id := s.Snapshot().Messages[2].ID

	settings := testSettings()
	settings.GeminiAPIKey = ""
	if err := s.UpdateAPISettings(context.Background(), settings); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if err := s.RegenerateMessageWithVersions(context.Background(), id); err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	msg := s.Snapshot().Messages[2]
	if len(msg.Versions) != 2 || !msg.IsError || msg.ErrorType != types.ErrorTypeAPIKey {
		t.Fatalf("expected api key error version: %+v", msg)
	}
	if p.calls() != 1 {
		t.Fatalf("provider must not be called, got %d calls", p.calls())
	}
}

func TestRegenerateWithVersionsTimesOut(t *testing.T) {
	first := true
	p := &fakeProvider{send: func(ctx context.Context, req *models.Request) (string, error) {
		if first {
			first = false
			return "first", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s, _ := newTestStore(t, p, Options{RegenerateTimeout: 20 * time.Millisecond})
	_ = s.SendMessage(context.Background(), "hello")
	id := s.Snapshot().Messages[2].ID

	if err := s.RegenerateMessageWithVersions(context.Background(), id); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	msg := s.Snapshot().Messages[2]
	if msg.Content != "Regeneration timed out. Please try again." || msg.ErrorType != types.ErrorTypeTimeout {
		t.Fatalf("expected timeout version, got %+v", msg)
	}
	if s.Status().Regenerating {
		t.Fatalf("regenerating flag not cleared")
	}
}

func TestRegenerateWithVersionsTimesOutWhenProviderHangs(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	first := true
	p := &fakeProvider{send: func(ctx context.Context, req *models.Request) (string, error) {
		if first {
			first = false
			return "first", nil
		}
		<-release
		return "too late", nil
	}}
	s, _ := newTestStore(t, p, Options{RegenerateTimeout: 20 * time.Millisecond})
	_ = s.SendMessage(context.Background(), "hello")
	id := s.Snapshot().Messages[2].ID

	if err := s.RegenerateMessageWithVersions(context.Background(), id); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	msg := s.Snapshot().Messages[2]
	if msg.ErrorType != types.ErrorTypeTimeout || len(msg.Versions) != 2 {
		t.Fatalf("expected timeout version, got %+v", msg)
	}
	if s.Status().Regenerating {
		t.Fatalf("regenerating flag not cleared")
	}
}

func TestEditLastUserMessage(t *testing.T) {
	p := &fakeProvider{send: reply("r1", "r2", "r3")}
	s, _ := newTestStore(t, p, Options{})
	_ = s.SendMessage(context.Background(), "hello")
	_ = s.SendMessage(context.Background(), "second")

	if err := s.EditLastUserMessage(context.Background(), "changed"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	msgs := s.Snapshot().Messages
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	edited := msgs[3]
	if edited.Content != "changed" || !edited.IsEdited || edited.OriginalContent != "second" || edited.IsEditing {
		t.Fatalf("unexpected edited message: %+v", edited)
	}
	if msgs[4].Content != "r3" {
		t.Fatalf("expected fresh reply, got %q", msgs[4].Content)
	}

	if err := s.EditLastUserMessage(context.Background(), "again"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := s.Snapshot().Messages[3].OriginalContent; got != "second" {
		t.Fatalf("original content must be kept from the first edit, got %q", got)
	}

	calls := p.calls()
	if err := s.EditLastUserMessage(context.Background(), " again "); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if p.calls() != calls {
		t.Fatalf("unchanged content must not regenerate")
	}
}

func TestEnableMessageEdit(t *testing.T) {
	p := &fakeProvider{send: reply("r")}
	s, _ := newTestStore(t, p, Options{})
	_ = s.SendMessage(context.Background(), "one")
	_ = s.SendMessage(context.Background(), "two")
	msgs := s.Snapshot().Messages

	if err := s.EnableMessageEdit(context.Background(), msgs[1].ID); !errors.Is(err, ErrNotLatest) {
		t.Fatalf("expected ErrNotLatest, got %v", err)
	}
	if err := s.EnableMessageEdit(context.Background(), msgs[2].ID); !errors.Is(err, ErrNotUserMessage) {
		t.Fatalf("expected ErrNotUserMessage, got %v", err)
	}
	if err := s.EnableMessageEdit(context.Background(), msgs[3].ID); err != nil {
		t.Fatalf("enable edit: %v", err)
	}
	if !s.Snapshot().Messages[3].IsEditing {
		t.Fatalf("editing flag not set")
	}
	if err := s.CancelMessageEdit(context.Background(), msgs[3].ID); err != nil {
		t.Fatalf("cancel edit: %v", err)
	}
	if s.Snapshot().Messages[3].IsEditing {
		t.Fatalf("editing flag not cleared")
	}
}

func TestDeleteUserMessageCascades(t *testing.T) {
	s, _ := newTestStore(t, &fakeProvider{}, Options{})
	welcome := s.Snapshot().Messages[0]

	s.mu.Lock()
	s.setMessagesLocked([]types.Message{
		{ID: "u1", Type: types.MessageTypeUser, Content: "first"},
		welcome,
		{ID: "u2", Type: types.MessageTypeUser, Content: "second"},
		{ID: "c2", Type: types.MessageTypeCharacter, Content: "reply"},
	})
	s.mu.Unlock()

	if err := s.DeleteUserMessage(context.Background(), 3); !errors.Is(err, ErrNotUserMessage) {
		t.Fatalf("expected ErrNotUserMessage, got %v", err)
	}
	if err := s.DeleteUserMessage(context.Background(), 9); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	if err := s.DeleteUserMessage(context.Background(), 0); err != nil {
		t.Fatalf("delete: %v", err)
	}

	st := s.Snapshot()
	if len(st.Messages) != 1 || st.Messages[0].ID != welcome.ID {
		t.Fatalf("expected only the welcome message, got %+v", st.Messages)
	}
	if len(st.Conversations["hayeon"]) != 1 {
		t.Fatalf("conversation map not synced")
	}
}

func TestDeleteUserMessageKeepsFirstMessageByContent(t *testing.T) {
	s, _ := newTestStore(t, &fakeProvider{}, Options{})
	first := s.Snapshot().CurrentCharacter.FirstMessage
	greet := types.Message{ID: "greet", Type: types.MessageTypeCharacter, Content: first}

	s.mu.Lock()
	s.setMessagesLocked([]types.Message{
		greet,
		{ID: "u1", Type: types.MessageTypeUser, Content: "user1"},
		{ID: "c1", Type: types.MessageTypeCharacter, Content: "char1"},
		{ID: "u2", Type: types.MessageTypeUser, Content: "user2"},
		{ID: "c2", Type: types.MessageTypeCharacter, Content: "char2"},
	})
	s.mu.Unlock()

	if err := s.DeleteUserMessage(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	msgs := s.Snapshot().Messages
	if len(msgs) != 1 || msgs[0].ID != "greet" {
		t.Fatalf("expected only the first message, got %+v", msgs)
	}

	s.mu.Lock()
	s.setMessagesLocked([]types.Message{
		{ID: "u0", Type: types.MessageTypeUser, Content: "user0"},
		{ID: "c0", Type: types.MessageTypeCharacter, Content: "char0"},
		greet,
		{ID: "u1", Type: types.MessageTypeUser, Content: "user1"},
		{ID: "c1", Type: types.MessageTypeCharacter, Content: "char1"},
	})
	s.mu.Unlock()

	if err := s.DeleteUserMessage(context.Background(), 0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	st := s.Snapshot()
	if len(st.Messages) != 1 || st.Messages[0].ID != "greet" {
		t.Fatalf("expected the first message to survive the deleted range, got %+v", st.Messages)
	}
	if len(st.Conversations["hayeon"]) != 1 {
		t.Fatalf("conversation map not synced")
	}
}

func TestPersistFailureKeepsState(t *testing.T) {
	p := &fakeProvider{send: reply("ok")}
	s, repo := newTestStore(t, p, Options{})
	repo.mu.Lock()
	repo.saveErr = errors.New("database is down")
	repo.mu.Unlock()

	if err := s.SendMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := len(s.Snapshot().Messages); got != 3 {
		t.Fatalf("expected in-memory state to advance, got %d messages", got)
	}
}

func TestPreviewPrompt(t *testing.T) {
	s, _ := newTestStore(t, &fakeProvider{}, Options{})
	if _, err := s.AddLorebookEntry(context.Background(), "hayeon", types.LorebookEntry{
		Name: "Seoul", Triggers: []string{"seoul"}, Description: "{{char}} grew up in Seoul.", IsActive: true,
	}); err != nil {
		t.Fatalf("add lore: %v", err)
	}

	preview, err := s.PreviewPrompt("Tell me about SEOUL")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Lore) != 1 || !strings.Contains(preview.SystemPrompt, "Hayeon grew up in Seoul.") {
		t.Fatalf("lore not injected: %+v", preview)
	}
}
