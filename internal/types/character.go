package types

import "strings"

// GalleryMode selects how a character's images are displayed.
type GalleryMode string

const (
	GalleryModeDefault  GalleryMode = "default"
	GalleryModeMultiple GalleryMode = "multiple"
	GalleryModeEmotion  GalleryMode = "emotion"
)

// MaxImages returns how many images the gallery mode accepts.
func (m GalleryMode) MaxImages() int {
	if m == GalleryModeDefault || m == "" {
		return 1
	}
	return 5
}

// Valid reports whether m is a known gallery mode.
func (m GalleryMode) Valid() bool {
	switch m {
	case GalleryModeDefault, GalleryModeMultiple, GalleryModeEmotion:
		return true
	default:
		return false
	}
}

// Image is one gallery entry. PreviewURL is either a remote URL or a data URL.
type Image struct {
	ID         string `json:"id"`
	PreviewURL string `json:"previewUrl"`
	Filename   string `json:"filename,omitempty"`
	Size       int64  `json:"size,omitempty"`
	UploadDate int64  `json:"uploadDate,omitempty"`
	IsURL      bool   `json:"isUrl,omitempty"`
}

// ImageGallery holds a character's images.
type ImageGallery struct {
	Mode             GalleryMode `json:"mode"`
	Images           []Image     `json:"images"`
	ActiveImageIndex int         `json:"activeImageIndex"`
}

// LorebookEntry is injected into the system prompt when one of its triggers
// appears in the user's message.
type LorebookEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Triggers    []string `json:"triggers"`
	Description string   `json:"description"`
	IsActive    bool     `json:"isActive"`
}

// Character is the persisted character profile.
type Character struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	FirstMessage    string          `json:"firstMessage"`
	ExampleDialogue string          `json:"exampleDialogue"`
	Avatar          string          `json:"avatar,omitempty"`
	Lorebook        []LorebookEntry `json:"lorebook"`
	ImageGallery    ImageGallery    `json:"imageGallery"`
}

// Clone returns a deep copy of c.
func (c Character) Clone() Character {
	out := c
	if c.Lorebook != nil {
		out.Lorebook = make([]LorebookEntry, len(c.Lorebook))
		for i, entry := range c.Lorebook {
			entry.Triggers = append([]string(nil), entry.Triggers...)
			out.Lorebook[i] = entry
		}
	}
	if c.ImageGallery.Images != nil {
		out.ImageGallery.Images = append([]Image(nil), c.ImageGallery.Images...)
	}
	return out
}

// Normalize fills the zero-valued collections and gallery mode.
func (c *Character) Normalize() {
	if c.Lorebook == nil {
		c.Lorebook = []LorebookEntry{}
	}
	if c.ImageGallery.Images == nil {
		c.ImageGallery.Images = []Image{}
	}
	if !c.ImageGallery.Mode.Valid() {
		c.ImageGallery.Mode = GalleryModeDefault
	}
	if c.ImageGallery.ActiveImageIndex < 0 || c.ImageGallery.ActiveImageIndex >= len(c.ImageGallery.Images) {
		c.ImageGallery.ActiveImageIndex = 0
	}
}

// IsWelcome reports whether msg is the seeded greeting of c.
func (c Character) IsWelcome(msg Message) bool {
	if msg.Type != MessageTypeCharacter {
		return false
	}
	return strings.HasSuffix(msg.ID, "welcome") || (c.FirstMessage != "" && msg.Content == c.FirstMessage)
}

// User is the local user persona.
type User struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Avatar      string `json:"avatar,omitempty"`
}
