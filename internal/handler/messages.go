package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type contentRequest struct {
	Content string `json:"content"`
}

type versionRequest struct {
	Direction int `json:"direction"`
}

func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Status())
}

// generationContext keeps a generation running after the client goes away so
// its result still lands in the conversation.
func generationContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (h *Handler) Send(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SendMessage(generationContext(c), req.Content); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) RegenerateLast(c *gin.Context) {
	if err := h.store.RegenerateLastMessage(generationContext(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) EditLast(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.EditLastUserMessage(generationContext(c), req.Content); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) DeleteFrom(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	if err := h.store.DeleteUserMessage(c.Request.Context(), index); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) ClearMessages(c *gin.Context) {
	if err := h.store.ClearMessages(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) RegenerateVersion(c *gin.Context) {
	if err := h.store.RegenerateMessageWithVersions(generationContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) ChangeVersion(c *gin.Context) {
	var req versionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.ChangeMessageVersion(c.Request.Context(), c.Param("id"), req.Direction); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) EnableEdit(c *gin.Context) {
	if err := h.store.EnableMessageEdit(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}

func (h *Handler) CancelEdit(c *gin.Context) {
	if err := h.store.CancelMessageEdit(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view())
}
