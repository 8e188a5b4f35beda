package chat

import "errors"

var (
	// ErrBusy is returned when another generation is in flight.
	ErrBusy = errors.New("a response is already being generated")

	ErrInvalidMessage      = errors.New("invalid message")
	ErrMessageNotFound     = errors.New("message not found")
	ErrNotUserMessage      = errors.New("message is not a user message")
	ErrNotCharacterMessage = errors.New("message is not a valid character message")
	ErrNotLatest           = errors.New("message is not the latest of its kind")
	ErrNoParentMessage     = errors.New("no preceding user message found")

	ErrCharacterNotFound = errors.New("character not found")
	ErrCharacterExists   = errors.New("character already exists")
	ErrInvalidCharacter  = errors.New("character name is required")
	ErrLastCharacter     = errors.New("cannot delete the last character")
	ErrLoreEntryNotFound = errors.New("lorebook entry not found")

	ErrInvalidGalleryMode = errors.New("invalid gallery mode")
	ErrGalleryFull        = errors.New("gallery is full")
	ErrImageNotFound      = errors.New("image not found")
	ErrInvalidImageIndex  = errors.New("invalid image index")

	ErrInvalidProvider = errors.New("unknown provider")
	ErrInvalidImport   = errors.New("invalid backup file")
)
