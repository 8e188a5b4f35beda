package types

import "strings"

// CharactorCard 对应 SillyTavern 角色卡解码后的 JSON 结构
type CharactorCard struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Personality string `json:"personality"`
	Scenario    string `json:"scenario"`
	FirstMes    string `json:"first_mes"`
	MesExample  string `json:"mes_example"` // 对应 ST 的 "Example Dialogue"

	// V2 规范中可能包含的高级字段
	CreatorNotes            string `json:"creator_notes,omitempty"`
	SystemPrompt            string `json:"system_prompt,omitempty"`
	PostHistoryInstructions string `json:"post_history_instructions,omitempty"`

	CharacterBook *CardBook `json:"character_book,omitempty"`
}

// CardBook is the embedded lorebook of a V2 card.
type CardBook struct {
	Entries []CardBookEntry `json:"entries"`
}

// CardBookEntry is one lorebook entry of a V2 card.
type CardBookEntry struct {
	Name    string   `json:"name"`
	Comment string   `json:"comment"`
	Keys    []string `json:"keys"`
	Content string   `json:"content"`
	Enabled bool     `json:"enabled"`
}

// 对应 V2 Spec 的包装结构 (有的卡片包了一层 data 字段)
type V2CardWrapper struct {
	Data CharactorCard `json:"data"`
}

// ToCharacter converts a card into a Character. Personality and scenario are
// folded into the description since Character has no separate fields.
func (c CharactorCard) ToCharacter() Character {
	parts := []string{strings.TrimSpace(c.Description)}
	if p := strings.TrimSpace(c.Personality); p != "" {
		parts = append(parts, "Personality: "+p)
	}
	if s := strings.TrimSpace(c.Scenario); s != "" {
		parts = append(parts, "Scenario: "+s)
	}

	out := Character{
		Name:            strings.TrimSpace(c.Name),
		Description:     strings.TrimSpace(strings.Join(parts, "\n\n")),
		FirstMessage:    c.FirstMes,
		ExampleDialogue: c.MesExample,
	}
	if c.CharacterBook != nil {
		for _, entry := range c.CharacterBook.Entries {
			name := entry.Name
			if name == "" {
				name = entry.Comment
			}
			out.Lorebook = append(out.Lorebook, LorebookEntry{
				Name:        name,
				Triggers:    append([]string(nil), entry.Keys...),
				Description: entry.Content,
				IsActive:    entry.Enabled,
			})
		}
	}
	out.Normalize()
	return out
}
