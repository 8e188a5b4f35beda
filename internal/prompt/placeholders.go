package prompt

import (
	"strings"

	"github.com/easeaico/custom-chats/internal/types"
)

// Fallbacks used when an identity field is empty.
const (
	FallbackCharName        = "Character"
	FallbackUserName        = "User"
	FallbackUserDescription = "A curious person exploring conversations with AI characters."
)

// Vars are the values substituted for template placeholders.
type Vars struct {
	Char            string
	CharDescription string
	User            string
	UserDescription string
	Lore            string
	Emotions        string
}

// VarsFor returns the identity placeholders for a character and user.
func VarsFor(character *types.Character, user types.User) Vars {
	vars := Vars{User: user.Name, UserDescription: user.Description}
	if character != nil {
		vars.Char = character.Name
		vars.CharDescription = character.Description
	}
	return vars
}

// Expand replaces every {{char}}, {{char_description}}, {{user}},
// {{user_description}}, {{lore}} and {{emotions}} in text. Substituted values
// are not rescanned, so expanding twice is stable for brace-free values.
func Expand(text string, vars Vars) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	r := strings.NewReplacer(
		"{{char}}", orDefault(vars.Char, FallbackCharName),
		"{{char_description}}", vars.CharDescription,
		"{{user}}", orDefault(vars.User, FallbackUserName),
		"{{user_description}}", orDefault(vars.UserDescription, FallbackUserDescription),
		"{{lore}}", vars.Lore,
		"{{emotions}}", vars.Emotions,
	)
	return r.Replace(text)
}

// NormalizeCardText unescapes the literal newline and quote sequences found
// in exported character cards.
func NormalizeCardText(text string) string {
	text = strings.ReplaceAll(text, "\\r\\n", "\n")
	text = strings.ReplaceAll(text, "\\n", "\n")
	text = strings.ReplaceAll(text, "\\\"", "\"")
	return text
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
