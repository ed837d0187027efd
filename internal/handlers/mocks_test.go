package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"voicechat-service/internal/models"
	"voicechat-service/internal/services"
)

type conversationServiceMock struct {
	mock.Mock
}

func (m *conversationServiceMock) Create(ctx context.Context, userID int) (models.Conversation, error) {
	args := m.Called(ctx, userID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *conversationServiceMock) List(ctx context.Context, userID int) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *conversationServiceMock) Get(ctx context.Context, conversationID int, userID int) (models.ConversationDetail, error) {
	args := m.Called(ctx, conversationID, userID)
	var detail models.ConversationDetail
	if val := args.Get(0); val != nil {
		detail = val.(models.ConversationDetail)
	}
	return detail, args.Error(1)
}

func (m *conversationServiceMock) Delete(ctx context.Context, conversationID int, userID int) error {
	return m.Called(ctx, conversationID, userID).Error(0)
}

type participantServiceMock struct {
	mock.Mock
}

func (m *participantServiceMock) Add(ctx context.Context, conversationID int, userID int, callerID int) (models.ParticipantWithUser, error) {
	args := m.Called(ctx, conversationID, userID, callerID)
	var p models.ParticipantWithUser
	if val := args.Get(0); val != nil {
		p = val.(models.ParticipantWithUser)
	}
	return p, args.Error(1)
}

func (m *participantServiceMock) List(ctx context.Context, conversationID int, callerID int) ([]models.ParticipantWithUser, error) {
	args := m.Called(ctx, conversationID, callerID)
	var list []models.ParticipantWithUser
	if val := args.Get(0); val != nil {
		list = val.([]models.ParticipantWithUser)
	}
	return list, args.Error(1)
}

func (m *participantServiceMock) Remove(ctx context.Context, participantID int, callerID int) error {
	return m.Called(ctx, participantID, callerID).Error(0)
}

type messageServiceMock struct {
	mock.Mock
}

func (m *messageServiceMock) Create(ctx context.Context, in services.CreateMessageInput) (models.Message, error) {
	args := m.Called(ctx, in)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *messageServiceMock) List(ctx context.Context, conversationID int, userID int, skip, limit int) ([]models.MessageWithSender, error) {
	args := m.Called(ctx, conversationID, userID, skip, limit)
	var msgs []models.MessageWithSender
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageWithSender)
	}
	return msgs, args.Error(1)
}

func (m *messageServiceMock) Delete(ctx context.Context, messageID int, userID int) error {
	return m.Called(ctx, messageID, userID).Error(0)
}

func (m *messageServiceMock) Translation(ctx context.Context, messageID int, userID int) (*models.TranslatedMessage, error) {
	args := m.Called(ctx, messageID, userID)
	var tm *models.TranslatedMessage
	if val := args.Get(0); val != nil {
		tm = val.(*models.TranslatedMessage)
	}
	return tm, args.Error(1)
}

type referenceAudioServiceMock struct {
	mock.Mock
}

func (m *referenceAudioServiceMock) Upload(ctx context.Context, userID int, audio *services.AudioUpload) (models.User, error) {
	args := m.Called(ctx, userID, audio)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *referenceAudioServiceMock) Delete(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

type userServiceMock struct {
	mock.Mock
}

func (m *userServiceMock) Get(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *userServiceMock) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	args := m.Called(ctx, skip, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *userServiceMock) Update(ctx context.Context, userID int, callerID int, in models.UserUpdate) (models.User, error) {
	args := m.Called(ctx, userID, callerID, in)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}
