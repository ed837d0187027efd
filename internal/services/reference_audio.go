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

// ReferenceAudioService manages the voice sample used to clone a user's voice.
type ReferenceAudioService struct {
	users         repositories.UserRepository
	blobs         storage.BlobStore
	audit         *telemetry.AuditEmitter
	maxAudioBytes int64
}

func NewReferenceAudioService(users repositories.UserRepository, blobs storage.BlobStore, audit *telemetry.AuditEmitter, maxAudioBytes int64) *ReferenceAudioService {
	if maxAudioBytes <= 0 {
		maxAudioBytes = DefaultMaxAudioBytes
	}
	return &ReferenceAudioService{users: users, blobs: blobs, audit: audit, maxAudioBytes: maxAudioBytes}
}

// Upload stores a new sample for userID and removes the previous one.
func (s *ReferenceAudioService) Upload(ctx context.Context, userID int, audio *AudioUpload) (models.User, error) {
	data, err := readAudio(audio, s.maxAudioBytes)
	if err != nil {
		return models.User{}, err
	}

	current, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	loc := storage.UserAudio(storage.NewName(audioExt(audio.Filename)))
	if err := s.blobs.Write(ctx, loc, data); err != nil {
		return models.User{}, fmt.Errorf("store reference audio: %w", err)
	}

	url := loc.URL()
	updated, err := s.users.SetReferenceAudio(ctx, userID, &url)
	if err != nil {
		removeBlob(ctx, s.blobs, url)
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if old := current.ReferenceAudio(); old != "" && old != url {
		removeBlob(ctx, s.blobs, old)
	}

	s.audit.Emit(ctx, telemetry.ActionReferenceUploaded, userID, telemetry.AuditResource{Type: "user", ID: userID})
	return updated, nil
}

// Delete clears the sample of userID.
func (s *ReferenceAudioService) Delete(ctx context.Context, userID int) error {
	current, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	old := current.ReferenceAudio()
	if old == "" {
		return ErrNoReferenceAudio
	}

	if _, err := s.users.SetReferenceAudio(ctx, userID, nil); err != nil {
		return err
	}
	removeBlob(ctx, s.blobs, old)

	s.audit.Emit(ctx, telemetry.ActionReferenceDeleted, userID, telemetry.AuditResource{Type: "user", ID: userID})
	return nil
}
