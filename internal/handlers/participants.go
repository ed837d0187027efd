package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ParticipantHandler serves /api/v1/participants.
type ParticipantHandler struct {
	svc ParticipantService
}

func NewParticipantHandler(svc ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{svc: svc}
}

func (h *ParticipantHandler) Add(c *gin.Context) {
	var req struct {
		ConversationID int `json:"conversation_id" binding:"required"`
		UserID         int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.svc.Add(c.Request.Context(), req.ConversationID, req.UserID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "could not add participant")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ParticipantHandler) ListByConversation(c *gin.Context) {
	conversationID, ok := intParam(c, "conversation_id")
	if !ok {
		return
	}
	participants, err := h.svc.List(c.Request.Context(), conversationID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "failed to load participants")
		return
	}
	c.JSON(http.StatusOK, participants)
}

// Remove deletes a participant; allowed for the participant or the creator.
func (h *ParticipantHandler) Remove(c *gin.Context) {
	participantID, ok := intParam(c, "participant_id")
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), participantID, c.GetInt("userID")); err != nil {
		respondError(c, err, "could not remove participant")
		return
	}
	c.Status(http.StatusNoContent)
}
