package prompt

import (
	"strings"

	"github.com/easeaico/custom-chats/internal/types"
)

// MatchLorebook returns the active entries with at least one trigger
// contained in userMessage, case-insensitively, in lorebook order.
// Blank triggers never match.
func MatchLorebook(userMessage string, character *types.Character) []types.LorebookEntry {
	if character == nil || len(character.Lorebook) == 0 {
		return nil
	}
	text := strings.ToLower(userMessage)

	var matched []types.LorebookEntry
	for _, entry := range character.Lorebook {
		if !entry.IsActive {
			continue
		}
		for _, trigger := range entry.Triggers {
			trigger = strings.ToLower(strings.TrimSpace(trigger))
			if trigger != "" && strings.Contains(text, trigger) {
				matched = append(matched, entry)
				break
			}
		}
	}
	return matched
}

// FormatLore renders entries as "Name: description" lines with placeholders
// expanded, as used for the {{lore}} placeholder.
func FormatLore(entries []types.LorebookEntry, character *types.Character, user types.User) string {
	if len(entries) == 0 {
		return ""
	}
	vars := VarsFor(character, user)
	if vars.CharDescription == "" {
		vars.CharDescription = "Character description"
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Name+": "+Expand(entry.Description, vars))
	}
	return strings.Join(lines, "\n")
}
