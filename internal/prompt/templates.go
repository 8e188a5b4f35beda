package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

const defaultPromptTemplateText = `You are {{.Name}}. {{.Description}}
{{- if .ExampleDialogue}}

Example dialogue: {{.ExampleDialogue}}
{{- end}}
{{- if .Lore}}

Relevant Context:
{{- range .Lore}}
- {{.Name}}: {{.Description}}
{{- end}}
{{- end}}
{{- if .EmotionInstructions}}

{{.EmotionInstructions}}
{{- end}}`

var defaultPromptTemplate = template.Must(template.New("system").Parse(defaultPromptTemplateText))

const emotionInstructionFormat = `EMOTION INSTRUCTIONS: You must always indicate your current emotion at the end of each message using the format <Emotion="emotion_name">. Choose from these available emotions: %s. If none of these emotions match your current feeling, use <Emotion="neutral">. The emotion tag will be used to update your visual appearance and should not be displayed to the user.`

// EmotionInstructions returns the instruction block for the given emotions,
// or "" when there are none.
func EmotionInstructions(emotions []string) string {
	if len(emotions) == 0 {
		return ""
	}
	return fmt.Sprintf(emotionInstructionFormat, strings.Join(emotions, ", "))
}
