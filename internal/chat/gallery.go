package chat

import (
	"context"
	"slices"

	"github.com/easeaico/custom-chats/internal/types"
)

// Upload limits.
const (
	MaxImageSize        = 5 * 1024 * 1024
	MaxGalleryTotalSize = 25 * 1024 * 1024
)

var allowedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

// ImageUpload describes a file before it is added to a gallery.
type ImageUpload struct {
	Filename string `json:"filename"`
	MimeType string `json:"type"`
	Size     int64  `json:"size"`
}

// UploadValidation lists every problem found with an upload.
type UploadValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateImageUpload checks type, size and gallery capacity for mode.
func ValidateImageUpload(upload ImageUpload, mode types.GalleryMode, existing []types.Image) UploadValidation {
	errs := []string{}
	if !slices.Contains(allowedImageTypes, upload.MimeType) {
		errs = append(errs, "Please upload JPG, PNG, GIF, or WebP images only")
	}
	if upload.Size > MaxImageSize {
		errs = append(errs, "Image size must be less than 5MB")
	}

	switch mode {
	case types.GalleryModeDefault:
		if len(existing) >= 1 {
			errs = append(errs, "Only 1 image allowed in default mode")
		}
	case types.GalleryModeMultiple:
		if len(existing) >= 5 {
			errs = append(errs, "Maximum 5 images allowed in multiple mode")
		}
		total := upload.Size
		for _, img := range existing {
			total += img.Size
		}
		if total > MaxGalleryTotalSize {
			errs = append(errs, "Total images size must be less than 25MB")
		}
	}
	return UploadValidation{IsValid: len(errs) == 0, Errors: errs}
}

// SetGalleryMode switches the gallery mode and empties the gallery.
func (s *Store) SetGalleryMode(ctx context.Context, characterID string, mode types.GalleryMode) error {
	if !mode.Valid() {
		return ErrInvalidGalleryMode
	}
	return s.updateCharacter(ctx, characterID, func(c *types.Character) error {
		c.ImageGallery = types.ImageGallery{Mode: mode, Images: []types.Image{}, ActiveImageIndex: 0}
		return nil
	})
}

// AddImage appends an image when the mode's capacity allows it.
func (s *Store) AddImage(ctx context.Context, characterID string, img types.Image) (types.Image, error) {
	img.ID = newID("img")
	img.UploadDate = s.nowFunc().UnixMilli()
	err := s.updateCharacter(ctx, characterID, func(c *types.Character) error {
		gallery := &c.ImageGallery
		if len(gallery.Images) >= gallery.Mode.MaxImages() {
			return ErrGalleryFull
		}
		gallery.Images = append(gallery.Images, img)
		if len(gallery.Images) == 1 {
			gallery.ActiveImageIndex = 0
		}
		return nil
	})
	return img, err
}

// RemoveImage deletes an image, keeping the active index on the same image
// where possible.
func (s *Store) RemoveImage(ctx context.Context, characterID, imageID string) error {
	return s.updateCharacter(ctx, characterID, func(c *types.Character) error {
		gallery := &c.ImageGallery
		idx := slices.IndexFunc(gallery.Images, func(img types.Image) bool { return img.ID == imageID })
		if idx < 0 {
			return ErrImageNotFound
		}
		gallery.Images = slices.Delete(gallery.Images, idx, idx+1)
		switch {
		case len(gallery.Images) == 0:
			gallery.ActiveImageIndex = 0
		case idx <= gallery.ActiveImageIndex:
			gallery.ActiveImageIndex = max(0, gallery.ActiveImageIndex-1)
		}
		return nil
	})
}

// SetActiveImage selects the image shown outside emotion mode.
func (s *Store) SetActiveImage(ctx context.Context, characterID string, index int) error {
	return s.updateCharacter(ctx, characterID, func(c *types.Character) error {
		if index < 0 || index >= len(c.ImageGallery.Images) {
			return ErrInvalidImageIndex
		}
		c.ImageGallery.ActiveImageIndex = index
		return nil
	})
}

// CharacterImage resolves the image to show for a character.
func (s *Store) CharacterImage(characterID string) (string, error) {
	c, err := s.Character(characterID)
	if err != nil {
		return "", err
	}
	return s.emotions.ResolveImage(c), nil
}

// CharacterEmotion returns the last emotion detected for a character.
func (s *Store) CharacterEmotion(characterID string) (types.EmotionState, bool) {
	return s.emotions.Get(characterID)
}

// SetCharacterEmotion overrides the current emotion of a character.
func (s *Store) SetCharacterEmotion(characterID, emotion string) error {
	if _, err := s.Character(characterID); err != nil {
		return err
	}
	s.emotions.Set(characterID, emotion)
	return nil
}

// ClearCharacterEmotion forgets the emotion of a character.
func (s *Store) ClearCharacterEmotion(characterID string) {
	s.emotions.Clear(characterID)
}
