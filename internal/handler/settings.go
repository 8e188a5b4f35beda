package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/custom-chats/internal/models"
	"github.com/easeaico/custom-chats/internal/types"
)

type previewRequest struct {
	Message string `json:"message"`
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var user types.User
	if err := c.ShouldBindJSON(&user); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot().CurrentUser)
}

func (h *Handler) UpdateAPISettings(c *gin.Context) {
	var settings types.APISettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.UpdateAPISettings(c.Request.Context(), settings); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) UpdateDisplaySettings(c *gin.Context) {
	var display types.DisplaySettings
	if err := c.ShouldBindJSON(&display); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.UpdateDisplaySettings(c.Request.Context(), display); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, display)
}

func (h *Handler) UpdateCustomPrompt(c *gin.Context) {
	var custom types.CustomPrompt
	if err := c.ShouldBindJSON(&custom); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.UpdateCustomPrompt(c.Request.Context(), custom); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, custom)
}

func (h *Handler) Models(c *gin.Context) {
	provider := c.Query("provider")
	if provider == "" {
		provider = h.store.Snapshot().APISettings.Provider
	}
	c.JSON(http.StatusOK, gin.H{"provider": provider, "models": models.Catalogue(provider)})
}

func (h *Handler) PreviewPrompt(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	preview, err := h.store.PreviewPrompt(req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *Handler) ExportData(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="custom-chats-backup.json"`)
	c.JSON(http.StatusOK, h.store.ExportAllData())
}

func (h *Handler) ImportData(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.ImportAllData(c.Request.Context(), data); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) ClearData(c *gin.Context) {
	if err := h.store.ClearAllData(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) ClearConversations(c *gin.Context) {
	if err := h.store.ClearConversations(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) StorageUsage(c *gin.Context) {
	usage, err := h.store.StorageUsage()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}
