package services

import (
	"context"
	"errors"
	"fmt"

	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/storage"
	"voicechat-service/internal/telemetry"
)

type ConversationService struct {
	conversations repositories.ConversationRepository
	participants  repositories.ParticipantRepository
	messages      repositories.MessageRepository
	blobs         storage.BlobStore
	notifier      Notifier
	audit         *telemetry.AuditEmitter
}

func NewConversationService(
	conversations repositories.ConversationRepository,
	participants repositories.ParticipantRepository,
	messages repositories.MessageRepository,
	blobs storage.BlobStore,
	notifier Notifier,
	audit *telemetry.AuditEmitter,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		blobs:         blobs,
		notifier:      notifier,
		audit:         audit,
	}
}

// Create opens a conversation with userID as its first participant.
func (s *ConversationService) Create(ctx context.Context, userID int) (models.Conversation, error) {
	conv, err := s.conversations.Create(ctx, userID)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	s.audit.Emit(ctx, telemetry.ActionConversationCreated, userID, telemetry.AuditResource{Type: "conversation", ID: conv.ID})
	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, userID int) ([]models.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

// Get returns the conversation with its participants.
func (s *ConversationService) Get(ctx context.Context, conversationID int, userID int) (models.ConversationDetail, error) {
	if err := requireMember(ctx, s.conversations, s.participants, conversationID, userID); err != nil {
		return models.ConversationDetail{}, err
	}
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.ConversationDetail{}, ErrConversationNotFound
		}
		return models.ConversationDetail{}, err
	}
	participants, err := s.participants.ListByConversation(ctx, conversationID)
	if err != nil {
		return models.ConversationDetail{}, err
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	return models.ConversationDetail{Conversation: conv, Participants: participants}, nil
}

// Delete removes the conversation, its stored audio and its live connections.
func (s *ConversationService) Delete(ctx context.Context, conversationID int, userID int) error {
	if err := requireMember(ctx, s.conversations, s.participants, conversationID, userID); err != nil {
		return err
	}

	urls, err := s.messages.ListAudioURLs(ctx, conversationID)
	if err != nil {
		return err
	}

	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return ErrConversationNotFound
		}
		return err
	}

	for _, url := range urls {
		removeBlob(ctx, s.blobs, url)
	}

	s.notifier.ConversationDeleted(ctx, conversationID)
	s.audit.Emit(ctx, telemetry.ActionConversationDeleted, userID, telemetry.AuditResource{Type: "conversation", ID: conversationID})
	return nil
}
