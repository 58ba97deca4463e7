package handlers

import (
	"errors"
	"io"
	"net/http"
	"wardwatch/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	threads *services.ThreadService
}

func NewMessageHandler(threads *services.ThreadService) *MessageHandler {
	return &MessageHandler{threads: threads}
}

type postMessageRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/issue-reports/:token/messages
func (h *MessageHandler) List(c *gin.Context) {
	msgs, err := h.threads.List(c.Request.Context(), caller(c), c.Param("token"))
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Create handles POST /api/issue-reports/:token/messages
func (h *MessageHandler) Create(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RenderError(c, services.NewValidationError("body", "must be a JSON object"))
		return
	}

	msg, err := h.threads.Post(c.Request.Context(), caller(c), c.Param("token"), req.Content)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
