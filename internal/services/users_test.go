package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voicechat-service/internal/mocks"
	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
)

func TestUpdateUserSetsPrimaryLanguage(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := NewUserService(users, nil)

	users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, Username: "ana"}, nil).Once()
	users.On("Update", mock.Anything, 1, models.UserUpdate{PrimaryLanguage: strPtr("es")}).
		Return(models.User{ID: 1, Username: "ana", PrimaryLanguage: strPtr("es")}, nil).Once()

	u, err := svc.Update(context.Background(), 1, 1, models.UserUpdate{PrimaryLanguage: strPtr(" ES ")})
	require.NoError(t, err)
	assert.Equal(t, "es", u.Language())
	users.AssertExpectations(t)
}

func TestUpdateUserOwnerOnly(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := NewUserService(users, nil)

	users.On("Get", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	_, err := svc.Update(context.Background(), 2, 1, models.UserUpdate{PrimaryLanguage: strPtr("en")})
	require.ErrorIs(t, err, ErrForbidden)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUserErrors(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		users := new(mocks.UserRepositoryMock)
		users.On("Get", mock.Anything, 5).Return(nil, repositories.ErrUserNotFound).Once()
		_, err := NewUserService(users, nil).Update(context.Background(), 5, 5, models.UserUpdate{})
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("blank username", func(t *testing.T) {
		users := new(mocks.UserRepositoryMock)
		users.On("Get", mock.Anything, 1).Return(models.User{ID: 1}, nil).Once()
		_, err := NewUserService(users, nil).Update(context.Background(), 1, 1, models.UserUpdate{Username: strPtr("  ")})
		require.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("taken username", func(t *testing.T) {
		users := new(mocks.UserRepositoryMock)
		users.On("Get", mock.Anything, 1).Return(models.User{ID: 1}, nil).Once()
		users.On("Update", mock.Anything, 1, models.UserUpdate{Username: strPtr("bob")}).Return(nil, repositories.ErrUserExists).Once()
		_, err := NewUserService(users, nil).Update(context.Background(), 1, 1, models.UserUpdate{Username: strPtr("bob")})
		require.ErrorIs(t, err, ErrUserTaken)
	})

	t.Run("nothing to change", func(t *testing.T) {
		users := new(mocks.UserRepositoryMock)
		users.On("Get", mock.Anything, 1).Return(models.User{ID: 1, Username: "ana"}, nil).Once()
		u, err := NewUserService(users, nil).Update(context.Background(), 1, 1, models.UserUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "ana", u.Username)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetAndListUsers(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := NewUserService(users, nil)

	users.On("Get", mock.Anything, 9).Return(nil, repositories.ErrUserNotFound).Once()
	_, err := svc.Get(context.Background(), 9)
	require.ErrorIs(t, err, ErrUserNotFound)

	users.On("List", mock.Anything, 0, DefaultPageSize).Return([]models.User{{ID: 1}, {ID: 2}}, nil).Once()
	list, err := svc.List(context.Background(), -3, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	users.AssertExpectations(t)
}
