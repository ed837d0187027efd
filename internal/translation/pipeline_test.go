package translation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voicechat-service/internal/mocks"
	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/storage"
)

type audioTranslatorFunc func(ctx context.Context, r AudioRequest) ([]byte, error)

func (f audioTranslatorFunc) TranslateAudio(ctx context.Context, r AudioRequest) ([]byte, error) {
	return f(ctx, r)
}

type pipelineFixture struct {
	users        *mocks.UserRepositoryMock
	participants *mocks.ParticipantRepositoryMock
	translations *mocks.TranslatedMessageRepositoryMock
	blobs        *mocks.BlobStoreMock
	text         *mocks.TextTranslatorMock
	notifier     *mocks.NotifierMock
	audioCalls   []AudioRequest
	audioOut     []byte
	pipeline     *Pipeline
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		users:        new(mocks.UserRepositoryMock),
		participants: new(mocks.ParticipantRepositoryMock),
		translations: new(mocks.TranslatedMessageRepositoryMock),
		blobs:        new(mocks.BlobStoreMock),
		text:         new(mocks.TextTranslatorMock),
		notifier:     new(mocks.NotifierMock),
		audioOut:     []byte("translated-wav"),
	}
	f.pipeline = NewPipeline(Deps{
		Users:        f.users,
		Languages:    f.participants,
		Translations: f.translations,
		Blobs:        f.blobs,
		Text:         f.text,
		Audio: audioTranslatorFunc(func(_ context.Context, r AudioRequest) ([]byte, error) {
			f.audioCalls = append(f.audioCalls, r)
			return f.audioOut, nil
		}),
		Notifier: f.notifier,
	})
	return f
}

func lang(v string) *string { return &v }

func senderID(id int) *int { return &id }

func textMessage(text string) models.Message {
	return models.Message{ID: 10, ConversationID: 3, SenderID: senderID(1), Content: models.TextContent{Text: text}}
}

func TestTranslatesTextToRecipientLanguage(t *testing.T) {
	f := newPipelineFixture()
	f.users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, PrimaryLanguage: lang("es")}, nil).Once()
	f.participants.On("OtherParticipantLanguage", mock.Anything, 3, 1).Return("en", true, nil).Once()
	f.translations.On("GetByOriginalMessageID", mock.Anything, 10).Return(nil, repositories.ErrTranslationNotFound).Once()
	f.text.On("Translate", mock.Anything, "hola", "es", "en").Return("hello", nil).Once()
	stored := models.TranslatedMessage{ID: 1, OriginalMessageID: 10, TargetLanguage: "en", Content: models.TextContent{Text: "hello"}}
	f.translations.On("Create", mock.Anything, models.NewTranslatedMessage{
		OriginalMessageID: 10,
		TargetLanguage:    "en",
		Content:           models.TextContent{Text: "hello"},
	}).Return(stored, nil).Once()
	f.notifier.On("TranslationCreated", mock.Anything, 3, stored).Once()

	tm, err := f.pipeline.Run(context.Background(), textMessage("hola"))
	require.NoError(t, err)
	assert.Equal(t, "en", tm.TargetLanguage)
	assert.Equal(t, models.TextContent{Text: "hello"}, tm.Content)
	f.translations.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestSkipReasons(t *testing.T) {
	t.Run("no sender", func(t *testing.T) {
		f := newPipelineFixture()
		msg := textMessage("x")
		msg.SenderID = nil
		_, err := f.pipeline.Run(context.Background(), msg)
		require.ErrorIs(t, err, ErrNoSender)
		assert.True(t, IsSkip(err))
	})

	t.Run("no source language", func(t *testing.T) {
		f := newPipelineFixture()
		f.users.On("Get", mock.Anything, 1).Return(models.User{ID: 1}, nil).Once()
		_, err := f.pipeline.Run(context.Background(), textMessage("x"))
		require.ErrorIs(t, err, ErrNoSourceLanguage)
	})

	t.Run("no target language", func(t *testing.T) {
		f := newPipelineFixture()
		f.users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, PrimaryLanguage: lang("es")}, nil).Once()
		f.participants.On("OtherParticipantLanguage", mock.Anything, 3, 1).Return("", false, nil).Once()
		_, err := f.pipeline.Run(context.Background(), textMessage("x"))
		require.ErrorIs(t, err, ErrNoTargetLanguage)
	})

	t.Run("same language", func(t *testing.T) {
		f := newPipelineFixture()
		f.users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, PrimaryLanguage: lang("en")}, nil).Once()
		f.participants.On("OtherParticipantLanguage", mock.Anything, 3, 1).Return("EN", true, nil).Once()
		_, err := f.pipeline.Run(context.Background(), textMessage("hi"))
		require.ErrorIs(t, err, ErrSameLanguage)
		f.text.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already translated", func(t *testing.T) {
		f := newPipelineFixture()
		f.users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, PrimaryLanguage: lang("es")}, nil).Once()
		f.participants.On("OtherParticipantLanguage", mock.Anything, 3, 1).Return("en", true, nil).Once()
		f.translations.On("GetByOriginalMessageID", mock.Anything, 10).Return(models.TranslatedMessage{ID: 4}, nil).Once()
		_, err := f.pipeline.Run(context.Background(), textMessage("hola"))
		require.ErrorIs(t, err, ErrAlreadyTranslated)
		f.text.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTranslatorFailureStoresNothing(t *testing.T) {
	f := newPipelineFixture()
	f.users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, PrimaryLanguage: lang("es")}, nil).Once()
	f.participants.On("OtherParticipantLanguage", mock.Anything, 3, 1).Return("en", true, nil).Once()
	f.translations.On("GetByOriginalMessageID", mock.Anything, 10).Return(nil, repositories.ErrTranslationNotFound).Once()
	f.text.On("Translate", mock.Anything, "hola", "es", "en").Return("", assert.AnError).Once()

	_, err := f.pipeline.Run(context.Background(), textMessage("hola"))
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, IsSkip(err))
	f.translations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "TranslationCreated", mock.Anything, mock.Anything, mock.Anything)
}

func TestConcurrentInsertConflictIsNoop(t *testing.T) {
	f := newPipelineFixture()
	f.users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, PrimaryLanguage: lang("es")}, nil).Once()
	f.participants.On("OtherParticipantLanguage", mock.Anything, 3, 1).Return("en", true, nil).Once()
	f.translations.On("GetByOriginalMessageID", mock.Anything, 10).Return(nil, repositories.ErrTranslationNotFound).Once()
	f.text.On("Translate", mock.Anything, "hola", "es", "en").Return("hello", nil).Once()
	f.translations.On("Create", mock.Anything, mock.Anything).Return(nil, repositories.ErrTranslationExists).Once()

	_, err := f.pipeline.Run(context.Background(), textMessage("hola"))
	require.ErrorIs(t, err, ErrAlreadyTranslated)
	f.notifier.AssertNotCalled(t, "TranslationCreated", mock.Anything, mock.Anything, mock.Anything)
}

func audioFixture() (*pipelineFixture, models.Message) {
	f := newPipelineFixture()
	f.users.On("Get", mock.Anything, 1).Return(models.User{
		ID:              1,
		PrimaryLanguage: lang("es"),
		RefAudioURL:     lang(storage.UserAudio("ref.wav").URL()),
	}, nil).Once()
	f.participants.On("OtherParticipantLanguage", mock.Anything, 3, 1).Return("en", true, nil).Once()
	f.translations.On("GetByOriginalMessageID", mock.Anything, 10).Return(nil, repositories.ErrTranslationNotFound).Once()

	src := storage.MessageAudio(3, "msg.mp3")
	ref := storage.UserAudio("ref.wav")
	f.blobs.On("Exists", mock.Anything, src).Return(true, nil).Once()
	f.blobs.On("Exists", mock.Anything, ref).Return(true, nil).Once()
	f.blobs.On("Read", mock.Anything, src).Return([]byte("src"), nil).Once()
	f.blobs.On("Read", mock.Anything, ref).Return([]byte("ref"), nil).Once()

	msg := models.Message{ID: 10, ConversationID: 3, SenderID: senderID(1), Content: models.AudioContent{MediaURL: src.URL()}}
	return f, msg
}

func TestTranslatesAudioWithReferenceVoice(t *testing.T) {
	f, msg := audioFixture()
	var written storage.Location
	f.blobs.On("Write", mock.Anything, mock.AnythingOfType("storage.Location"), []byte("translated-wav")).
		Run(func(args mock.Arguments) { written = args.Get(1).(storage.Location) }).
		Return(nil).Once()
	f.translations.On("Create", mock.Anything, mock.MatchedBy(func(in models.NewTranslatedMessage) bool {
		audio, ok := in.Content.(models.AudioContent)
		return ok && audio.MediaURL == written.URL() && in.TargetLanguage == "en"
	})).Return(models.TranslatedMessage{ID: 2, OriginalMessageID: 10}, nil).Once()
	f.notifier.On("TranslationCreated", mock.Anything, 3, mock.Anything).Once()

	_, err := f.pipeline.Run(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, f.audioCalls, 1)
	assert.Equal(t, []byte("src"), f.audioCalls[0].Source)
	assert.Equal(t, []byte("ref"), f.audioCalls[0].Reference)
	assert.Equal(t, "es", f.audioCalls[0].SourceLanguage)
	assert.Equal(t, "en", f.audioCalls[0].TargetLanguage)
	assert.Equal(t, storage.CategoryTranslated, written.Category)
	f.translations.AssertExpectations(t)
}

func TestAudioConflictDiscardsWrittenBlob(t *testing.T) {
	f, msg := audioFixture()
	f.blobs.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.blobs.On("Delete", mock.Anything, mock.AnythingOfType("storage.Location")).Return(nil).Once()
	f.translations.On("Create", mock.Anything, mock.Anything).Return(nil, repositories.ErrTranslationExists).Once()

	_, err := f.pipeline.Run(context.Background(), msg)
	require.ErrorIs(t, err, ErrAlreadyTranslated)
	f.blobs.AssertExpectations(t)
}

func TestAudioWithoutReferenceIsSkipped(t *testing.T) {
	f := newPipelineFixture()
	f.users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, PrimaryLanguage: lang("es")}, nil).Once()
	f.participants.On("OtherParticipantLanguage", mock.Anything, 3, 1).Return("en", true, nil).Once()
	f.translations.On("GetByOriginalMessageID", mock.Anything, 10).Return(nil, repositories.ErrTranslationNotFound).Once()

	msg := models.Message{ID: 10, ConversationID: 3, SenderID: senderID(1), Content: models.AudioContent{MediaURL: "/api/audio/messages/conv_3/a.wav"}}
	_, err := f.pipeline.Run(context.Background(), msg)
	require.ErrorIs(t, err, ErrNoReferenceAudio)
	assert.Empty(t, f.audioCalls)
}
