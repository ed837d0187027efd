package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConversationHandler serves /api/v1/conversations.
type ConversationHandler struct {
	svc ConversationService
}

func NewConversationHandler(svc ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// Create opens a conversation with the caller as its first participant.
func (h *ConversationHandler) Create(c *gin.Context) {
	conv, err := h.svc.Create(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "could not create conversation")
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ConversationHandler) List(c *gin.Context) {
	convs, err := h.svc.List(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "failed to load conversations")
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID, ok := intParam(c, "conversation_id")
	if !ok {
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), conversationID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "failed to load conversation")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	conversationID, ok := intParam(c, "conversation_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), conversationID, c.GetInt("userID")); err != nil {
		respondError(c, err, "could not delete conversation")
		return
	}
	c.Status(http.StatusNoContent)
}
