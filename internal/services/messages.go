package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/storage"
	"voicechat-service/internal/telemetry"
)

// DefaultPageSize is used when a list request does not set a limit.
const DefaultPageSize = 100

// CreateMessageInput is a message submitted through the API.
type CreateMessageInput struct {
	ConversationID int
	SenderID       int
	ContentType    string
	Text           string
	Audio          *AudioUpload
}

// MessageService is the write path for messages.
type MessageService struct {
	conversations repositories.ConversationRepository
	participants  repositories.ParticipantRepository
	messages      repositories.MessageRepository
	translations  repositories.TranslatedMessageRepository
	users         repositories.UserRepository
	blobs         storage.BlobStore
	notifier      Notifier
	scheduler     TranslationScheduler
	audit         *telemetry.AuditEmitter
	maxAudioBytes int64
}

// MessageDeps groups MessageService collaborators.
type MessageDeps struct {
	Conversations repositories.ConversationRepository
	Participants  repositories.ParticipantRepository
	Messages      repositories.MessageRepository
	Translations  repositories.TranslatedMessageRepository
	Users         repositories.UserRepository
	Blobs         storage.BlobStore
	Notifier      Notifier
	Scheduler     TranslationScheduler
	Audit         *telemetry.AuditEmitter
	MaxAudioBytes int64
}

func NewMessageService(d MessageDeps) *MessageService {
	if d.MaxAudioBytes <= 0 {
		d.MaxAudioBytes = DefaultMaxAudioBytes
	}
	return &MessageService{
		conversations: d.Conversations,
		participants:  d.Participants,
		messages:      d.Messages,
		translations:  d.Translations,
		users:         d.Users,
		blobs:         d.Blobs,
		notifier:      d.Notifier,
		scheduler:     d.Scheduler,
		audit:         d.Audit,
		maxAudioBytes: d.MaxAudioBytes,
	}
}

// Create validates and stores a message, pushes it to live connections and
// schedules its translation. Live delivery and translation never fail the call.
func (s *MessageService) Create(ctx context.Context, in CreateMessageInput) (models.Message, error) {
	if err := requireMember(ctx, s.conversations, s.participants, in.ConversationID, in.SenderID); err != nil {
		return models.Message{}, err
	}

	kind, err := models.ParseContentKind(in.ContentType)
	if err != nil {
		return models.Message{}, ErrInvalidContentType
	}

	var (
		content models.Content
		blob    *storage.Location
	)
	switch kind {
	case models.ContentText:
		if strings.TrimSpace(in.Text) == "" {
			return models.Message{}, ErrContentRequired
		}
		content = models.TextContent{Text: in.Text}
	case models.ContentAudio:
		data, err := readAudio(in.Audio, s.maxAudioBytes)
		if err != nil {
			return models.Message{}, err
		}
		loc := storage.MessageAudio(in.ConversationID, storage.NewName(audioExt(in.Audio.Filename)))
		if err := s.blobs.Write(ctx, loc, data); err != nil {
			return models.Message{}, fmt.Errorf("store audio: %w", err)
		}
		blob = &loc
		content = models.AudioContent{MediaURL: loc.URL()}
	}

	msg, err := s.messages.Create(ctx, models.NewMessage{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        content,
	})
	if err != nil {
		if blob != nil {
			removeBlob(ctx, s.blobs, blob.URL())
		}
		return models.Message{}, fmt.Errorf("create message: %w", err)
	}

	s.notifier.MessageCreated(ctx, msg)
	if err := s.scheduler.Schedule(ctx, msg.ID); err != nil {
		log.Printf("messages: translation not scheduled message_id=%d err=%v", msg.ID, err)
	}
	return msg, nil
}

// List returns a page of the conversation and marks other senders' messages as read.
func (s *MessageService) List(ctx context.Context, conversationID int, userID int, skip, limit int) ([]models.MessageWithSender, error) {
	if err := requireMember(ctx, s.conversations, s.participants, conversationID, userID); err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	msgs, err := s.messages.ListByConversation(ctx, conversationID, skip, limit)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.MarkRead(ctx, conversationID, userID); err != nil {
		log.Printf("messages: mark read failed conversation_id=%d user_id=%d err=%v", conversationID, userID, err)
	}
	return s.withSenders(ctx, msgs), nil
}

// withSenders attaches each distinct sender once. Lookup failures leave the
// sender empty.
func (s *MessageService) withSenders(ctx context.Context, msgs []models.Message) []models.MessageWithSender {
	out := make([]models.MessageWithSender, len(msgs))
	senders := map[int]*models.User{}
	for i, m := range msgs {
		out[i].Message = m
		if m.SenderID == nil || s.users == nil {
			continue
		}
		id := *m.SenderID
		u, seen := senders[id]
		if !seen {
			user, err := s.users.Get(ctx, id)
			if err != nil {
				log.Printf("messages: sender lookup failed user_id=%d err=%v", id, err)
			} else {
				u = &user
			}
			senders[id] = u
		}
		out[i].Sender = u
	}
	return out
}

// Delete removes a message sent by userID along with its audio.
func (s *MessageService) Delete(ctx context.Context, messageID int, userID int) error {
	msg, err := s.messages.Get(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return ErrMessageNotFound
	}
	if err != nil {
		return err
	}

	member, err := s.participants.IsParticipant(ctx, msg.ConversationID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotParticipant
	}
	if msg.SenderID == nil || *msg.SenderID != userID {
		return ErrNotSender
	}

	translated, terr := s.translations.GetByOriginalMessageID(ctx, messageID)

	if err := s.messages.Delete(ctx, messageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if audio, ok := msg.Content.(models.AudioContent); ok {
		removeBlob(ctx, s.blobs, audio.MediaURL)
	}
	if terr == nil {
		if audio, ok := translated.Content.(models.AudioContent); ok {
			removeBlob(ctx, s.blobs, audio.MediaURL)
		}
	}

	s.notifier.MessageDeleted(ctx, msg.ConversationID, messageID)
	s.audit.Emit(ctx, telemetry.ActionMessageDeleted, userID, telemetry.AuditResource{Type: "message", ID: messageID})
	return nil
}

// Translation returns the translation of a message, or nil when none exists yet.
func (s *MessageService) Translation(ctx context.Context, messageID int, userID int) (*models.TranslatedMessage, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	member, err := s.participants.IsParticipant(ctx, msg.ConversationID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotParticipant
	}

	tm, err := s.translations.GetByOriginalMessageID(ctx, messageID)
	if errors.Is(err, repositories.ErrTranslationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func requireMember(ctx context.Context, conversations repositories.ConversationRepository, participants repositories.ParticipantRepository, conversationID, userID int) error {
	if _, err := conversations.Get(ctx, conversationID); err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	member, err := participants.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotParticipant
	}
	return nil
}

func removeBlob(ctx context.Context, blobs storage.BlobStore, url string) {
	loc, err := storage.ParseURL(url)
	if err != nil {
		log.Printf("storage: skip delete url=%s err=%v", url, err)
		return
	}
	if err := blobs.Delete(ctx, loc); err != nil {
		log.Printf("storage: delete failed url=%s err=%v", url, err)
	}
}
