package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voicechat-service/internal/mocks"
	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/storage"
)

type messageFixture struct {
	conversations *mocks.ConversationRepositoryMock
	participants  *mocks.ParticipantRepositoryMock
	messages      *mocks.MessageRepositoryMock
	translations  *mocks.TranslatedMessageRepositoryMock
	users         *mocks.UserRepositoryMock
	blobs         *mocks.BlobStoreMock
	notifier      *mocks.NotifierMock
	scheduler     *mocks.SchedulerMock
	svc           *MessageService
}

func newMessageFixture() *messageFixture {
	f := &messageFixture{
		conversations: new(mocks.ConversationRepositoryMock),
		participants:  new(mocks.ParticipantRepositoryMock),
		messages:      new(mocks.MessageRepositoryMock),
		translations:  new(mocks.TranslatedMessageRepositoryMock),
		users:         new(mocks.UserRepositoryMock),
		blobs:         new(mocks.BlobStoreMock),
		notifier:      new(mocks.NotifierMock),
		scheduler:     new(mocks.SchedulerMock),
	}
	f.svc = NewMessageService(MessageDeps{
		Conversations: f.conversations,
		Participants:  f.participants,
		Messages:      f.messages,
		Translations:  f.translations,
		Users:         f.users,
		Blobs:         f.blobs,
		Notifier:      f.notifier,
		Scheduler:     f.scheduler,
		MaxAudioBytes: 16,
	})
	return f
}

func (f *messageFixture) member(convID, userID int) {
	f.conversations.On("Get", mock.Anything, convID).Return(models.Conversation{ID: convID}, nil)
	f.participants.On("IsParticipant", mock.Anything, convID, userID).Return(true, nil)
}

func intPtr(v int) *int { return &v }

func TestCreateTextMessage(t *testing.T) {
	f := newMessageFixture()
	f.member(3, 1)
	stored := models.Message{ID: 9, ConversationID: 3, SenderID: intPtr(1), Content: models.TextContent{Text: "hola"}}
	f.messages.On("Create", mock.Anything, models.NewMessage{ConversationID: 3, SenderID: 1, Content: models.TextContent{Text: "hola"}}).Return(stored, nil).Once()
	f.notifier.On("MessageCreated", mock.Anything, stored).Once()
	f.scheduler.On("Schedule", mock.Anything, 9).Return(nil).Once()

	msg, err := f.svc.Create(context.Background(), CreateMessageInput{ConversationID: 3, SenderID: 1, ContentType: "text", Text: "hola"})
	require.NoError(t, err)
	assert.Equal(t, 9, msg.ID)
	f.messages.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.scheduler.AssertExpectations(t)
}

func TestCreateMessageScheduleFailureIsNotFatal(t *testing.T) {
	f := newMessageFixture()
	f.member(3, 1)
	stored := models.Message{ID: 9, ConversationID: 3, Content: models.TextContent{Text: "hi"}}
	f.messages.On("Create", mock.Anything, mock.Anything).Return(stored, nil).Once()
	f.notifier.On("MessageCreated", mock.Anything, stored).Once()
	f.scheduler.On("Schedule", mock.Anything, 9).Return(assert.AnError).Once()

	_, err := f.svc.Create(context.Background(), CreateMessageInput{ConversationID: 3, SenderID: 1, ContentType: "text", Text: "hi"})
	require.NoError(t, err)
}

func TestCreateMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateMessageInput
		want error
	}{
		{name: "blank text", in: CreateMessageInput{ContentType: "text", Text: "  "}, want: ErrContentRequired},
		{name: "unknown type", in: CreateMessageInput{ContentType: "video"}, want: ErrInvalidContentType},
		{name: "missing audio", in: CreateMessageInput{ContentType: "audio"}, want: ErrAudioRequired},
		{name: "not audio", in: CreateMessageInput{ContentType: "audio", Audio: &AudioUpload{Filename: "a.txt", ContentType: "text/plain", Size: 3, Body: strings.NewReader("abc")}}, want: ErrInvalidAudio},
		{name: "declared too large", in: CreateMessageInput{ContentType: "audio", Audio: &AudioUpload{Filename: "a.wav", ContentType: "audio/wav", Size: 17, Body: strings.NewReader("x")}}, want: ErrAudioTooLarge},
		{name: "body too large", in: CreateMessageInput{ContentType: "audio", Audio: &AudioUpload{Filename: "a.wav", ContentType: "audio/wav", Size: -1, Body: bytes.NewReader(make([]byte, 17))}}, want: ErrAudioTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMessageFixture()
			f.member(3, 1)
			tt.in.ConversationID = 3
			tt.in.SenderID = 1
			_, err := f.svc.Create(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.want)
			f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateMessageMembership(t *testing.T) {
	f := newMessageFixture()
	f.conversations.On("Get", mock.Anything, 3).Return(nil, repositories.ErrConversationNotFound).Once()
	_, err := f.svc.Create(context.Background(), CreateMessageInput{ConversationID: 3, SenderID: 1, ContentType: "text", Text: "x"})
	require.ErrorIs(t, err, ErrConversationNotFound)

	f = newMessageFixture()
	f.conversations.On("Get", mock.Anything, 3).Return(models.Conversation{ID: 3}, nil).Once()
	f.participants.On("IsParticipant", mock.Anything, 3, 1).Return(false, nil).Once()
	_, err = f.svc.Create(context.Background(), CreateMessageInput{ConversationID: 3, SenderID: 1, ContentType: "text", Text: "x"})
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestCreateAudioMessageStoresBlob(t *testing.T) {
	f := newMessageFixture()
	f.member(3, 1)

	var written storage.Location
	f.blobs.On("Write", mock.Anything, mock.AnythingOfType("storage.Location"), []byte("RIFF")).
		Run(func(args mock.Arguments) { written = args.Get(1).(storage.Location) }).
		Return(nil).Once()
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(in models.NewMessage) bool {
		audio, ok := in.Content.(models.AudioContent)
		return ok && audio.MediaURL == written.URL()
	})).Return(models.Message{ID: 4, ConversationID: 3}, nil).Once()
	f.notifier.On("MessageCreated", mock.Anything, mock.Anything).Once()
	f.scheduler.On("Schedule", mock.Anything, 4).Return(nil).Once()

	_, err := f.svc.Create(context.Background(), CreateMessageInput{
		ConversationID: 3,
		SenderID:       1,
		ContentType:    "audio",
		Audio:          &AudioUpload{Filename: "Voice.MP3", ContentType: "audio/mpeg", Size: 4, Body: strings.NewReader("RIFF")},
	})
	require.NoError(t, err)
	assert.Equal(t, storage.CategoryMessages, written.Category)
	assert.Equal(t, 3, written.ConversationID)
	assert.True(t, strings.HasSuffix(written.Name, ".mp3"))
	f.blobs.AssertExpectations(t)
}

func TestCreateAudioMessageRemovesBlobWhenInsertFails(t *testing.T) {
	f := newMessageFixture()
	f.member(3, 1)
	f.blobs.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.blobs.On("Delete", mock.Anything, mock.AnythingOfType("storage.Location")).Return(nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	_, err := f.svc.Create(context.Background(), CreateMessageInput{
		ConversationID: 3,
		SenderID:       1,
		ContentType:    "audio",
		Audio:          &AudioUpload{Filename: "a.wav", ContentType: "audio/wav", Size: 2, Body: strings.NewReader("ok")},
	})
	require.ErrorIs(t, err, assert.AnError)
	f.blobs.AssertExpectations(t)
	f.notifier.AssertNotCalled(t, "MessageCreated", mock.Anything, mock.Anything)
}

func TestListMessagesMarksRead(t *testing.T) {
	f := newMessageFixture()
	f.member(3, 2)
	f.messages.On("ListByConversation", mock.Anything, 3, 0, DefaultPageSize).Return([]models.Message{{ID: 1}}, nil).Once()
	f.messages.On("MarkRead", mock.Anything, 3, 2).Return(int64(1), nil).Once()

	msgs, err := f.svc.List(context.Background(), 3, 2, -5, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].Sender)
	f.messages.AssertExpectations(t)
}

func TestListMessagesEmbedsSenders(t *testing.T) {
	f := newMessageFixture()
	f.member(3, 2)
	history := []models.Message{
		{ID: 1, SenderID: intPtr(2), Content: models.TextContent{Text: "hola"}},
		{ID: 2, SenderID: intPtr(4), Content: models.TextContent{Text: "hi"}},
		{ID: 3, SenderID: intPtr(2), Content: models.TextContent{Text: "que tal"}},
		{ID: 4, SenderID: intPtr(8), Content: models.TextContent{Text: "gone"}},
	}
	f.messages.On("ListByConversation", mock.Anything, 3, 0, DefaultPageSize).Return(history, nil).Once()
	f.messages.On("MarkRead", mock.Anything, 3, 2).Return(int64(0), nil).Once()
	f.users.On("Get", mock.Anything, 2).Return(models.User{ID: 2, Username: "ana"}, nil).Once()
	f.users.On("Get", mock.Anything, 4).Return(models.User{ID: 4, Username: "bob"}, nil).Once()
	f.users.On("Get", mock.Anything, 8).Return(nil, repositories.ErrUserNotFound).Once()

	msgs, err := f.svc.List(context.Background(), 3, 2, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "ana", msgs[0].Sender.Username)
	assert.Equal(t, "bob", msgs[1].Sender.Username)
	assert.Equal(t, "ana", msgs[2].Sender.Username)
	assert.Nil(t, msgs[3].Sender)
	f.users.AssertExpectations(t)

	raw, err := json.Marshal(msgs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `"hola"`, string(mustField(t, raw, "content")))
	assert.Equal(t, "ana", mustSender(t, raw))
}

func mustField(t *testing.T, raw []byte, key string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[key]
}

func mustSender(t *testing.T, raw []byte) string {
	t.Helper()
	var sender models.User
	require.NoError(t, json.Unmarshal(mustField(t, raw, "sender"), &sender))
	return sender.Username
}

func TestDeleteMessage(t *testing.T) {
	f := newMessageFixture()
	msg := models.Message{ID: 5, ConversationID: 3, SenderID: intPtr(1), Content: models.AudioContent{MediaURL: "/api/audio/messages/conv_3/a.wav"}}
	f.messages.On("Get", mock.Anything, 5).Return(msg, nil).Once()
	f.participants.On("IsParticipant", mock.Anything, 3, 1).Return(true, nil).Once()
	f.translations.On("GetByOriginalMessageID", mock.Anything, 5).Return(models.TranslatedMessage{Content: models.AudioContent{MediaURL: "/api/audio/translated/b.wav"}}, nil).Once()
	f.messages.On("Delete", mock.Anything, 5).Return(nil).Once()
	f.blobs.On("Delete", mock.Anything, storage.MessageAudio(3, "a.wav")).Return(nil).Once()
	f.blobs.On("Delete", mock.Anything, storage.TranslatedAudio("b.wav")).Return(nil).Once()
	f.notifier.On("MessageDeleted", mock.Anything, 3, 5).Once()

	require.NoError(t, f.svc.Delete(context.Background(), 5, 1))
	f.blobs.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestDeleteMessageRejectsOtherSender(t *testing.T) {
	f := newMessageFixture()
	f.messages.On("Get", mock.Anything, 5).Return(models.Message{ID: 5, ConversationID: 3, SenderID: intPtr(1)}, nil).Once()
	f.participants.On("IsParticipant", mock.Anything, 3, 2).Return(true, nil).Once()

	require.ErrorIs(t, f.svc.Delete(context.Background(), 5, 2), ErrNotSender)
	f.messages.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteMessageNotFound(t *testing.T) {
	f := newMessageFixture()
	f.messages.On("Get", mock.Anything, 5).Return(nil, repositories.ErrMessageNotFound).Once()
	require.ErrorIs(t, f.svc.Delete(context.Background(), 5, 1), ErrMessageNotFound)
}

func TestTranslationLookup(t *testing.T) {
	f := newMessageFixture()
	f.messages.On("Get", mock.Anything, 5).Return(models.Message{ID: 5, ConversationID: 3}, nil)
	f.participants.On("IsParticipant", mock.Anything, 3, 1).Return(true, nil)
	f.translations.On("GetByOriginalMessageID", mock.Anything, 5).Return(nil, repositories.ErrTranslationNotFound).Once()

	tm, err := f.svc.Translation(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Nil(t, tm)

	f.translations.On("GetByOriginalMessageID", mock.Anything, 5).Return(models.TranslatedMessage{ID: 8, OriginalMessageID: 5}, nil).Once()
	tm, err = f.svc.Translation(context.Background(), 5, 1)
	require.NoError(t, err)
	require.NotNil(t, tm)
	assert.Equal(t, 8, tm.ID)
}

func TestAudioExt(t *testing.T) {
	assert.Equal(t, ".ogg", audioExt("clip.OGG"))
	assert.Equal(t, ".wav", audioExt("noext"))
	assert.Equal(t, ".wav", audioExt("weird.w$v"))
	assert.Equal(t, ".wav", audioExt("long.extension"))
}
