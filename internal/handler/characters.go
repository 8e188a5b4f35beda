package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/custom-chats/internal/chat"
	"github.com/easeaico/custom-chats/internal/types"
)

type loreRequest struct {
	Name        string   `json:"name"`
	Triggers    []string `json:"triggers"`
	Description string   `json:"description"`
	IsActive    *bool    `json:"isActive"`
}

func (r loreRequest) entry() types.LorebookEntry {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return types.LorebookEntry{
		Name:        r.Name,
		Triggers:    r.Triggers,
		Description: r.Description,
		IsActive:    active,
	}
}

type galleryModeRequest struct {
	Mode types.GalleryMode `json:"mode"`
}

type activeImageRequest struct {
	Index int `json:"index"`
}

type emotionRequest struct {
	Emotion string `json:"emotion"`
}

func (h *Handler) ListCharacters(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Characters())
}

func (h *Handler) GetCharacter(c *gin.Context) {
	character, err := h.store.Character(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *Handler) CreateCharacter(c *gin.Context) {
	var character types.Character
	if err := c.ShouldBindJSON(&character); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.store.CreateCharacter(c.Request.Context(), character)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateCharacter(c *gin.Context) {
	var character types.Character
	if err := c.ShouldBindJSON(&character); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.store.UpdateCharacter(c.Request.Context(), c.Param("id"), character)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteCharacter(c *gin.Context) {
	if err := h.store.DeleteCharacter(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) ClearCharacters(c *gin.Context) {
	if err := h.store.ClearCharacters(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) SelectCharacter(c *gin.Context) {
	if err := h.store.SelectCharacter(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) ExportCharacter(c *gin.Context) {
	export, err := h.store.ExportCharacter(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, export)
}

func (h *Handler) ImportCharacter(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	imported, err := h.store.ImportCharacter(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, imported)
}

func (h *Handler) AddLoreEntry(c *gin.Context) {
	var req loreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	entry, err := h.store.AddLorebookEntry(c.Request.Context(), c.Param("id"), req.entry())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) UpdateLoreEntry(c *gin.Context) {
	var req loreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.UpdateLorebookEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"), req.entry()); err != nil {
		writeError(c, err)
		return
	}
	h.respondCharacter(c, c.Param("id"))
}

func (h *Handler) DeleteLoreEntry(c *gin.Context) {
	if err := h.store.DeleteLorebookEntry(c.Request.Context(), c.Param("id"), c.Param("entryId")); err != nil {
		writeError(c, err)
		return
	}
	h.respondCharacter(c, c.Param("id"))
}

func (h *Handler) SetGalleryMode(c *gin.Context) {
	var req galleryModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetGalleryMode(c.Request.Context(), c.Param("id"), req.Mode); err != nil {
		writeError(c, err)
		return
	}
	h.respondCharacter(c, c.Param("id"))
}

func (h *Handler) SetActiveImage(c *gin.Context) {
	var req activeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetActiveImage(c.Request.Context(), c.Param("id"), req.Index); err != nil {
		writeError(c, err)
		return
	}
	h.respondCharacter(c, c.Param("id"))
}

func (h *Handler) ValidateUpload(c *gin.Context) {
	var upload chat.ImageUpload
	if err := c.ShouldBindJSON(&upload); err != nil {
		badRequest(c, err)
		return
	}
	character, err := h.store.Character(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	gallery := character.ImageGallery
	c.JSON(http.StatusOK, chat.ValidateImageUpload(upload, gallery.Mode, gallery.Images))
}

func (h *Handler) AddImage(c *gin.Context) {
	var img types.Image
	if err := c.ShouldBindJSON(&img); err != nil {
		badRequest(c, err)
		return
	}
	if img.PreviewURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "previewUrl is required"})
		return
	}
	added, err := h.store.AddImage(c.Request.Context(), c.Param("id"), img)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (h *Handler) RemoveImage(c *gin.Context) {
	if err := h.store.RemoveImage(c.Request.Context(), c.Param("id"), c.Param("imageId")); err != nil {
		writeError(c, err)
		return
	}
	h.respondCharacter(c, c.Param("id"))
}

func (h *Handler) GetEmotion(c *gin.Context) {
	id := c.Param("id")
	image, err := h.store.CharacterImage(id)
	if err != nil {
		writeError(c, err)
		return
	}
	state, _ := h.store.CharacterEmotion(id)
	c.JSON(http.StatusOK, gin.H{"emotion": state, "image": image})
}

func (h *Handler) SetEmotion(c *gin.Context) {
	var req emotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetCharacterEmotion(c.Param("id"), req.Emotion); err != nil {
		writeError(c, err)
		return
	}
	h.GetEmotion(c)
}

func (h *Handler) ClearEmotion(c *gin.Context) {
	h.store.ClearCharacterEmotion(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondCharacter(c *gin.Context, id string) {
	character, err := h.store.Character(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, character)
}
