package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voicechat-service/internal/mocks"
	"voicechat-service/internal/models"
	"voicechat-service/internal/storage"
)

func strPtr(v string) *string { return &v }

func TestUploadReferenceAudioReplacesOldFile(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	blobs := new(mocks.BlobStoreMock)
	svc := NewReferenceAudioService(users, blobs, nil, 0)

	users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, RefAudioURL: strPtr("/api/audio/users/old.wav")}, nil).Once()
	blobs.On("Write", mock.Anything, mock.MatchedBy(func(loc storage.Location) bool {
		return loc.Category == storage.CategoryUsers && strings.HasSuffix(loc.Name, ".wav")
	}), []byte("voice")).Return(nil).Once()
	users.On("SetReferenceAudio", mock.Anything, 1, mock.AnythingOfType("*string")).Return(models.User{ID: 1, RefAudioURL: strPtr("/api/audio/users/new.wav")}, nil).Once()
	blobs.On("Delete", mock.Anything, storage.UserAudio("old.wav")).Return(nil).Once()

	user, err := svc.Upload(context.Background(), 1, &AudioUpload{Filename: "me.wav", ContentType: "audio/wav", Size: 5, Body: strings.NewReader("voice")})
	require.NoError(t, err)
	assert.Equal(t, "/api/audio/users/new.wav", user.ReferenceAudio())
	users.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

func TestUploadReferenceAudioRejectsNonAudio(t *testing.T) {
	svc := NewReferenceAudioService(new(mocks.UserRepositoryMock), new(mocks.BlobStoreMock), nil, 0)
	_, err := svc.Upload(context.Background(), 1, &AudioUpload{Filename: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x")})
	require.ErrorIs(t, err, ErrInvalidAudio)
}

func TestDeleteReferenceAudio(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	blobs := new(mocks.BlobStoreMock)
	svc := NewReferenceAudioService(users, blobs, nil, 0)

	users.On("Get", mock.Anything, 1).Return(models.User{ID: 1}, nil).Once()
	require.ErrorIs(t, svc.Delete(context.Background(), 1), ErrNoReferenceAudio)

	users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, RefAudioURL: strPtr("/api/audio/users/v.wav")}, nil).Once()
	users.On("SetReferenceAudio", mock.Anything, 1, (*string)(nil)).Return(models.User{ID: 1}, nil).Once()
	blobs.On("Delete", mock.Anything, storage.UserAudio("v.wav")).Return(nil).Once()

	require.NoError(t, svc.Delete(context.Background(), 1))
	users.AssertExpectations(t)
	blobs.AssertExpectations(t)
}
