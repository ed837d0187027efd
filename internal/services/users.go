package services

import (
	"context"
	"errors"
	"strings"

	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/telemetry"
)

// UserService exposes profile reads and owner-only profile updates.
type UserService struct {
	users repositories.UserRepository
	audit *telemetry.AuditEmitter
}

func NewUserService(users repositories.UserRepository, audit *telemetry.AuditEmitter) *UserService {
	return &UserService{users: users, audit: audit}
}

func (s *UserService) Get(ctx context.Context, userID int) (models.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return s.users.List(ctx, skip, limit)
}

// Update changes the profile of userID. Only the owner may update it.
func (s *UserService) Update(ctx context.Context, userID int, callerID int, in models.UserUpdate) (models.User, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if current.ID != callerID {
		return models.User{}, ErrForbidden
	}

	in, err = normalizeUpdate(in)
	if err != nil {
		return models.User{}, err
	}
	if in.Empty() {
		return current, nil
	}

	updated, err := s.users.Update(ctx, userID, in)
	switch {
	case errors.Is(err, repositories.ErrUserExists):
		return models.User{}, ErrUserTaken
	case errors.Is(err, repositories.ErrUserNotFound):
		return models.User{}, ErrUserNotFound
	case err != nil:
		return models.User{}, err
	}

	s.audit.Emit(ctx, telemetry.ActionUserUpdated, callerID, telemetry.AuditResource{Type: "user", ID: userID})
	return updated, nil
}

func normalizeUpdate(in models.UserUpdate) (models.UserUpdate, error) {
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return in, ErrInvalidProfile
		}
		in.Username = &name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return in, ErrInvalidProfile
		}
		in.Email = &email
	}
	if in.PrimaryLanguage != nil {
		lang := strings.ToLower(strings.TrimSpace(*in.PrimaryLanguage))
		in.PrimaryLanguage = &lang
	}
	return in, nil
}
