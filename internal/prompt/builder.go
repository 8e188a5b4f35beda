package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/easeaico/custom-chats/internal/emotion"
	"github.com/easeaico/custom-chats/internal/types"
)

// DefaultHistoryLimit is the number of messages sent as context.
const DefaultHistoryLimit = 10

// Input contains everything a system prompt is built from.
type Input struct {
	Character *types.Character
	User      types.User
	Lore      []types.LorebookEntry
	Custom    types.CustomPrompt
}

// Builder assembles system prompts and provider context.
type Builder struct {
	historyLimit int
}

// NewBuilder creates a prompt Builder.
func NewBuilder(historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Builder{historyLimit: historyLimit}
}

// HistoryLimit returns the context window in messages.
func (b *Builder) HistoryLimit() int {
	return b.historyLimit
}

// SystemPrompt builds the instruction text for one generation. A custom
// prompt with non-empty content replaces the default character prompt.
func (b *Builder) SystemPrompt(in Input) (string, error) {
	if in.Character == nil {
		return "", fmt.Errorf("character is required")
	}

	instructions := EmotionInstructions(availableEmotions(in.Character))

	if in.Custom.Enabled && in.Custom.Content != "" {
		vars := VarsFor(in.Character, in.User)
		vars.Lore = FormatLore(in.Lore, in.Character, in.User)
		vars.Emotions = instructions

		out := Expand(in.Custom.Content, vars)
		if instructions != "" && !strings.Contains(in.Custom.Content, "{{emotions}}") {
			out += "\n\n" + instructions
		}
		return out, nil
	}

	vars := VarsFor(in.Character, in.User)
	lore := make([]types.LorebookEntry, len(in.Lore))
	for i, entry := range in.Lore {
		entry.Description = Expand(entry.Description, vars)
		lore[i] = entry
	}

	data := struct {
		Name                string
		Description         string
		ExampleDialogue     string
		Lore                []types.LorebookEntry
		EmotionInstructions string
	}{
		Name:                in.Character.Name,
		Description:         in.Character.Description,
		ExampleDialogue:     in.Character.ExampleDialogue,
		Lore:                lore,
		EmotionInstructions: instructions,
	}

	var buf bytes.Buffer
	if err := defaultPromptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return buf.String(), nil
}

// Context converts stored messages into provider turns: error messages are
// dropped, only the last HistoryLimit messages are kept, characters become
// the model role and consecutive same-role turns are merged.
func (b *Builder) Context(messages []types.Message) []types.Turn {
	valid := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		if !msg.IsError {
			valid = append(valid, msg)
		}
	}
	if len(valid) > b.historyLimit {
		valid = valid[len(valid)-b.historyLimit:]
	}

	turns := make([]types.Turn, 0, len(valid))
	for _, msg := range valid {
		role := string(msg.Type)
		switch msg.Type {
		case types.MessageTypeUser:
			role = types.RoleUser
		case types.MessageTypeCharacter:
			role = types.RoleModel
		}

		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n\n" + msg.Content
			continue
		}
		turns = append(turns, types.Turn{Role: role, Content: msg.Content})
	}
	return turns
}

func availableEmotions(character *types.Character) []string {
	gallery := character.ImageGallery
	if gallery.Mode != types.GalleryModeEmotion || len(gallery.Images) == 0 {
		return nil
	}
	return emotion.AvailableEmotions(gallery.Images)
}
