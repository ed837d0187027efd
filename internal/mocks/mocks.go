package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"voicechat-service/internal/models"
	"voicechat-service/internal/rabbitmq"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/storage"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) Create(ctx context.Context, creatorID int) (models.Conversation, error) {
	args := m.Called(ctx, creatorID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) Delete(ctx context.Context, conversationID int) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

type ParticipantRepositoryMock struct {
	mock.Mock
}

func (m *ParticipantRepositoryMock) Add(ctx context.Context, conversationID int, userID int) (models.Participant, error) {
	args := m.Called(ctx, conversationID, userID)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ParticipantRepositoryMock) Get(ctx context.Context, participantID int) (models.Participant, error) {
	args := m.Called(ctx, participantID)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ParticipantRepositoryMock) GetByUserAndConversation(ctx context.Context, conversationID int, userID int) (models.Participant, error) {
	args := m.Called(ctx, conversationID, userID)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ParticipantRepositoryMock) ListByConversation(ctx context.Context, conversationID int) ([]models.Participant, error) {
	args := m.Called(ctx, conversationID)
	var list []models.Participant
	if val := args.Get(0); val != nil {
		list = val.([]models.Participant)
	}
	return list, args.Error(1)
}

func (m *ParticipantRepositoryMock) IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipantRepositoryMock) OtherParticipantLanguage(ctx context.Context, conversationID int, senderID int) (string, bool, error) {
	args := m.Called(ctx, conversationID, senderID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *ParticipantRepositoryMock) Remove(ctx context.Context, participantID int) error {
	args := m.Called(ctx, participantID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByConversation(ctx context.Context, conversationID int, skip, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, skip, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListAudioURLs(ctx context.Context, conversationID int) ([]string, error) {
	args := m.Called(ctx, conversationID)
	var urls []string
	if val := args.Get(0); val != nil {
		urls = val.([]string)
	}
	return urls, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, conversationID int, readerID int) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

type TranslatedMessageRepositoryMock struct {
	mock.Mock
}

func (m *TranslatedMessageRepositoryMock) Create(ctx context.Context, tm models.NewTranslatedMessage) (models.TranslatedMessage, error) {
	args := m.Called(ctx, tm)
	var out models.TranslatedMessage
	if val := args.Get(0); val != nil {
		out = val.(models.TranslatedMessage)
	}
	return out, args.Error(1)
}

func (m *TranslatedMessageRepositoryMock) GetByOriginalMessageID(ctx context.Context, messageID int) (models.TranslatedMessage, error) {
	args := m.Called(ctx, messageID)
	var out models.TranslatedMessage
	if val := args.Get(0); val != nil {
		out = val.(models.TranslatedMessage)
	}
	return out, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Get(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	args := m.Called(ctx, skip, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) Update(ctx context.Context, userID int, in models.UserUpdate) (models.User, error) {
	args := m.Called(ctx, userID, in)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) SetReferenceAudio(ctx context.Context, userID int, url *string) (models.User, error) {
	args := m.Called(ctx, userID, url)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) Exists(ctx context.Context, loc storage.Location) (bool, error) {
	args := m.Called(ctx, loc)
	return args.Bool(0), args.Error(1)
}

func (m *BlobStoreMock) Read(ctx context.Context, loc storage.Location) ([]byte, error) {
	args := m.Called(ctx, loc)
	var data []byte
	if val := args.Get(0); val != nil {
		data = val.([]byte)
	}
	return data, args.Error(1)
}

func (m *BlobStoreMock) Write(ctx context.Context, loc storage.Location, data []byte) error {
	args := m.Called(ctx, loc, data)
	return args.Error(0)
}

func (m *BlobStoreMock) Delete(ctx context.Context, loc storage.Location) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

// NotifierMock records the live update hooks of the write path.
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) MessageCreated(ctx context.Context, msg models.Message) {
	m.Called(ctx, msg)
}

func (m *NotifierMock) MessageDeleted(ctx context.Context, conversationID int, messageID int) {
	m.Called(ctx, conversationID, messageID)
}

func (m *NotifierMock) TranslationCreated(ctx context.Context, conversationID int, tm models.TranslatedMessage) {
	m.Called(ctx, conversationID, tm)
}

func (m *NotifierMock) ParticipantRemoved(ctx context.Context, conversationID int, userID int) {
	m.Called(ctx, conversationID, userID)
}

func (m *NotifierMock) ConversationDeleted(ctx context.Context, conversationID int) {
	m.Called(ctx, conversationID)
}

type SchedulerMock struct {
	mock.Mock
}

func (m *SchedulerMock) Schedule(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

type TextTranslatorMock struct {
	mock.Mock
}

func (m *TextTranslatorMock) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	args := m.Called(ctx, text, sourceLang, targetLang)
	return args.String(0), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) PublishJSON(ctx context.Context, routingKey string, message interface{}, headers map[string]string) error {
	args := m.Called(ctx, routingKey, message, headers)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.ParticipantRepository = (*ParticipantRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.TranslatedMessageRepository = (*TranslatedMessageRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ storage.BlobStore = (*BlobStoreMock)(nil)
var _ rabbitmq.Publisher = (*PublisherMock)(nil)
