package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"voicechat-service/internal/models"
	"voicechat-service/internal/services"
)

// ConversationService is the conversation write path used by the HTTP layer.
type ConversationService interface {
	Create(ctx context.Context, userID int) (models.Conversation, error)
	List(ctx context.Context, userID int) ([]models.Conversation, error)
	Get(ctx context.Context, conversationID int, userID int) (models.ConversationDetail, error)
	Delete(ctx context.Context, conversationID int, userID int) error
}

type ParticipantService interface {
	Add(ctx context.Context, conversationID int, userID int, callerID int) (models.ParticipantWithUser, error)
	List(ctx context.Context, conversationID int, callerID int) ([]models.ParticipantWithUser, error)
	Remove(ctx context.Context, participantID int, callerID int) error
}

type MessageService interface {
	Create(ctx context.Context, in services.CreateMessageInput) (models.Message, error)
	List(ctx context.Context, conversationID int, userID int, skip, limit int) ([]models.MessageWithSender, error)
	Delete(ctx context.Context, messageID int, userID int) error
	Translation(ctx context.Context, messageID int, userID int) (*models.TranslatedMessage, error)
}

type ReferenceAudioService interface {
	Upload(ctx context.Context, userID int, audio *services.AudioUpload) (models.User, error)
	Delete(ctx context.Context, userID int) error
}

type UserService interface {
	Get(ctx context.Context, userID int) (models.User, error)
	List(ctx context.Context, skip, limit int) ([]models.User, error)
	Update(ctx context.Context, userID int, callerID int, in models.UserUpdate) (models.User, error)
}

var (
	_ UserService           = (*services.UserService)(nil)
	_ ConversationService   = (*services.ConversationService)(nil)
	_ ParticipantService    = (*services.ParticipantService)(nil)
	_ MessageService        = (*services.MessageService)(nil)
	_ ReferenceAudioService = (*services.ReferenceAudioService)(nil)
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrConversationNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrParticipantNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoReferenceAudio):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotSender),
		errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrContentRequired),
		errors.Is(err, services.ErrAudioRequired),
		errors.Is(err, services.ErrInvalidContentType),
		errors.Is(err, services.ErrInvalidAudio),
		errors.Is(err, services.ErrAudioTooLarge),
		errors.Is(err, services.ErrAlreadyParticipant),
		errors.Is(err, services.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUserTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the status mapped from a domain error. Unknown errors
// are logged and reported with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed path=%s request_id=%s err=%v", c.FullPath(), requestIDFromContext(c), err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
