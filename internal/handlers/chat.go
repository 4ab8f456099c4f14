package handlers

import (
	"net/http"
	"strings"

	"github.com/atharvakonge/investment-navigator/internal/assistant"
	"github.com/gin-gonic/gin"
)

// maxQuestionLength bounds the question sent to the model
const maxQuestionLength = 2000

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat handles POST /api/chat. Provider failures come back as a 200 with
// the apology text and failed=true.
func (h *Handler) Chat(c *gin.Context) {
	if !h.chatLimiter.Allow() {
		h.respondError(c, errChatRateLimit)
		return
	}

	var req chatRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		h.respondError(c, errInvalidRequest.WithDetails(map[string]interface{}{"reason": "message is required"}))
		return
	}
	if len(req.Message) > maxQuestionLength {
		h.respondError(c, errInvalidRequest.WithDetails(map[string]interface{}{"reason": "message too long", "max": maxQuestionLength}))
		return
	}

	state := h.store.Load(c.Request.Context())
	c.JSON(http.StatusOK, h.assistant.Ask(c.Request.Context(), state, req.Message))
}

// ChatPrompts handles GET /api/chat/prompts
func (h *Handler) ChatPrompts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"greeting":     assistant.Greeting,
		"quickPrompts": assistant.QuickPrompts,
	})
}
