package services

import (
	"context"
	"errors"

	"voicechat-service/internal/models"
)

// Domain errors returned by the write path. Handlers map them to HTTP statuses.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant in this conversation")
	ErrContentRequired      = errors.New("content is required for text messages")
	ErrAudioRequired        = errors.New("audio file is required for audio messages")
	ErrInvalidContentType   = errors.New("content_type must be text or audio")
	ErrInvalidAudio         = errors.New("file must be an audio file")
	ErrAudioTooLarge        = errors.New("audio file is too large")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotSender            = errors.New("you can only delete your own messages")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrAlreadyParticipant   = errors.New("user is already a participant in this conversation")
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("you are not allowed to perform this action")
	ErrNoReferenceAudio     = errors.New("user has no reference audio")
	ErrUserTaken            = errors.New("username or email already taken")
	ErrInvalidProfile       = errors.New("username and email cannot be blank")
)

// Notifier receives live update hooks after the write path commits.
type Notifier interface {
	MessageCreated(ctx context.Context, msg models.Message)
	MessageDeleted(ctx context.Context, conversationID int, messageID int)
	ParticipantRemoved(ctx context.Context, conversationID int, userID int)
	ConversationDeleted(ctx context.Context, conversationID int)
}

// TranslationScheduler hands a stored message to the translation pipeline.
type TranslationScheduler interface {
	Schedule(ctx context.Context, messageID int) error
}
