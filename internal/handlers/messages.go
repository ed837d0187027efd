package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"voicechat-service/internal/services"
)

// MessageHandler serves /api/v1/messages and /api/v1/translations.
type MessageHandler struct {
	svc MessageService
}

func NewMessageHandler(svc MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// Create accepts a multipart form with conversation_id, content_type,
// content and audio_file.
func (h *MessageHandler) Create(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.PostForm("conversation_id"))
	if err != nil || conversationID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation_id"})
		return
	}

	in := services.CreateMessageInput{
		ConversationID: conversationID,
		SenderID:       c.GetInt("userID"),
		ContentType:    c.PostForm("content_type"),
		Text:           c.PostForm("content"),
	}

	header, err := c.FormFile("audio_file")
	switch {
	case err == nil:
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio_file"})
			return
		}
		defer f.Close()
		in.Audio = uploadFromHeader(header, f)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "could not create message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListByConversation returns a page of messages ordered by creation time.
func (h *MessageHandler) ListByConversation(c *gin.Context) {
	conversationID, ok := intParam(c, "conversation_id")
	if !ok {
		return
	}
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	msgs, err := h.svc.List(c.Request.Context(), conversationID, c.GetInt("userID"), skip, limit)
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, ok := intParam(c, "message_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), messageID, c.GetInt("userID")); err != nil {
		respondError(c, err, "could not delete message")
		return
	}
	c.Status(http.StatusNoContent)
}

// Translation returns the translation of a message or null while none exists.
func (h *MessageHandler) Translation(c *gin.Context) {
	messageID, ok := intParam(c, "message_id")
	if !ok {
		return
	}
	tm, err := h.svc.Translation(c.Request.Context(), messageID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "failed to load translation")
		return
	}
	c.JSON(http.StatusOK, tm)
}

func uploadFromHeader(header *multipart.FileHeader, f multipart.File) *services.AudioUpload {
	return &services.AudioUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
}
