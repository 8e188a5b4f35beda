// Package handler exposes the chat store over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/easeaico/custom-chats/internal/chat"
	"github.com/easeaico/custom-chats/internal/emotion"
	"github.com/easeaico/custom-chats/internal/types"
)

// Handler serves the chat API for one store.
type Handler struct {
	store *chat.Store
}

// NewRouter registers every route on a new gin engine.
func NewRouter(store *chat.Store) *gin.Engine {
	h := &Handler{store: store}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	{
		api.GET("/state", h.State)
		api.GET("/status", h.Status)

		// Conversation
		api.POST("/chat/send", h.Send)
		api.POST("/chat/regenerate", h.RegenerateLast)
		api.PUT("/chat/edit", h.EditLast)
		api.DELETE("/chat/history/:index", h.DeleteFrom)
		api.DELETE("/chat/messages", h.ClearMessages)
		api.POST("/messages/:id/versions", h.RegenerateVersion)
		api.PUT("/messages/:id/version", h.ChangeVersion)
		api.POST("/messages/:id/edit", h.EnableEdit)
		api.DELETE("/messages/:id/edit", h.CancelEdit)

		// Characters
		api.GET("/characters", h.ListCharacters)
		api.POST("/characters", h.CreateCharacter)
		api.DELETE("/characters", h.ClearCharacters)
		api.GET("/characters/:id", h.GetCharacter)
		api.PUT("/characters/:id", h.UpdateCharacter)
		api.DELETE("/characters/:id", h.DeleteCharacter)
		api.POST("/characters/:id/select", h.SelectCharacter)
		api.GET("/characters/:id/export", h.ExportCharacter)
		api.POST("/character-imports", h.ImportCharacter)

		api.POST("/characters/:id/lorebook", h.AddLoreEntry)
		api.PUT("/characters/:id/lorebook/:entryId", h.UpdateLoreEntry)
		api.DELETE("/characters/:id/lorebook/:entryId", h.DeleteLoreEntry)

		api.PUT("/characters/:id/gallery/mode", h.SetGalleryMode)
		api.PUT("/characters/:id/gallery/active", h.SetActiveImage)
		api.POST("/characters/:id/gallery/validate", h.ValidateUpload)
		api.POST("/characters/:id/gallery/images", h.AddImage)
		api.DELETE("/characters/:id/gallery/images/:imageId", h.RemoveImage)

		api.GET("/characters/:id/emotion", h.GetEmotion)
		api.PUT("/characters/:id/emotion", h.SetEmotion)
		api.DELETE("/characters/:id/emotion", h.ClearEmotion)

		// Settings
		api.PUT("/user", h.UpdateUser)
		api.PUT("/settings/api", h.UpdateAPISettings)
		api.PUT("/settings/display", h.UpdateDisplaySettings)
		api.PUT("/settings/prompt", h.UpdateCustomPrompt)
		api.GET("/models", h.Models)
		api.POST("/prompt/preview", h.PreviewPrompt)

		// Data
		api.GET("/data/export", h.ExportData)
		api.POST("/data/import", h.ImportData)
		api.DELETE("/data", h.ClearData)
		api.DELETE("/conversations", h.ClearConversations)
		api.GET("/storage/usage", h.StorageUsage)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// messageView adds the text shown to users, with emotion tags removed.
type messageView struct {
	types.Message
	DisplayContent string `json:"displayContent"`
}

type stateView struct {
	types.State
	Messages       []messageView `json:"messages"`
	CharacterImage string        `json:"characterImage"`
	Status         chat.Status   `json:"status"`
}

func messageViews(msgs []types.Message) []messageView {
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{Message: m, DisplayContent: emotion.RemoveTags(m.Content)})
	}
	return views
}

func (h *Handler) view() stateView {
	st := h.store.Snapshot()
	image, _ := h.store.CharacterImage(st.CurrentCharacter.ID)
	return stateView{
		State:          st,
		Messages:       messageViews(st.Messages),
		CharacterImage: image,
		Status:         h.store.Status(),
	}
}

var errorStatus = []struct {
	err    error
	status int
}{
	{chat.ErrBusy, http.StatusConflict},
	{chat.ErrNotLatest, http.StatusConflict},
	{chat.ErrCharacterExists, http.StatusConflict},
	{chat.ErrLastCharacter, http.StatusConflict},
	{chat.ErrGalleryFull, http.StatusConflict},
	{chat.ErrMessageNotFound, http.StatusNotFound},
	{chat.ErrCharacterNotFound, http.StatusNotFound},
	{chat.ErrLoreEntryNotFound, http.StatusNotFound},
	{chat.ErrImageNotFound, http.StatusNotFound},
	{chat.ErrInvalidMessage, http.StatusBadRequest},
	{chat.ErrNotUserMessage, http.StatusBadRequest},
	{chat.ErrNotCharacterMessage, http.StatusBadRequest},
	{chat.ErrNoParentMessage, http.StatusBadRequest},
	{chat.ErrInvalidCharacter, http.StatusBadRequest},
	{chat.ErrInvalidGalleryMode, http.StatusBadRequest},
	{chat.ErrInvalidImageIndex, http.StatusBadRequest},
	{chat.ErrInvalidProvider, http.StatusBadRequest},
	{chat.ErrInvalidImport, http.StatusBadRequest},
}

func writeError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": err.Error()})
			return
		}
	}
	slog.Error("request failed", "path", c.FullPath(), "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
