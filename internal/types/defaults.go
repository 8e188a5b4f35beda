package types

// DefaultCharacterID is the id of the built-in character.
const DefaultCharacterID = "hayeon"

// DefaultCharacter returns the built-in character.
func DefaultCharacter() Character {
	return Character{
		ID:              DefaultCharacterID,
		Name:            "Hayeon",
		Description:     "A friendly AI assistant ready to chat with you. You help users with various topics in a casual conversation setting.",
		FirstMessage:    "Hello! I'm Hayeon, your friendly AI assistant. How can I help you today?",
		ExampleDialogue: "",
		Lorebook:        []LorebookEntry{},
		ImageGallery: ImageGallery{
			Mode:   GalleryModeDefault,
			Images: []Image{},
		},
	}
}

// DefaultUser returns the initial user persona.
func DefaultUser() User {
	return User{Name: "User", Description: "A curious person"}
}

// DefaultAPISettings returns provider settings used before the user
// configures anything.
func DefaultAPISettings() APISettings {
	return APISettings{
		Provider:      ProviderGemini,
		SelectedModel: "gemini-2.5-flash",
		Temperature:   0.7,
		MaxTokens:     1024,
	}
}

// DefaultDisplaySettings returns the initial UI settings.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		PrimaryColor:      "#5373cc",
		PrimaryLightColor: "#c0d1fc",
		TextSize:          "medium",
	}
}

// DefaultState returns a fresh document seeded with the default character.
func DefaultState(settings APISettings) State {
	c := DefaultCharacter()
	return State{
		Messages:           []Message{},
		Conversations:      map[string][]Message{},
		CurrentCharacter:   c.Clone(),
		CurrentUser:        DefaultUser(),
		Characters:         map[string]Character{c.ID: c},
		APISettings:        settings,
		DisplaySettings:    DefaultDisplaySettings(),
		CustomSystemPrompt: CustomPrompt{},
	}
}
