package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicechat-service/internal/models"
)

type stubUsers map[string]models.User

func (s stubUsers) GetByUsername(ctx context.Context, username string) (models.User, error) {
	u, ok := s[username]
	if !ok {
		return models.User{}, errors.New("not found")
	}
	return u, nil
}

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateTokenResolvesSubject(t *testing.T) {
	users := stubUsers{"alice": {ID: 7, Username: "alice", IsActive: true}}
	v := NewJWTValidator("secret", "HS256", users)

	token := sign(t, jwt.SigningMethodHS256, "secret", jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	userID, err := v.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)
}

func TestValidateTokenFailures(t *testing.T) {
	users := stubUsers{
		"alice": {ID: 7, Username: "alice", IsActive: true},
		"bob":   {ID: 8, Username: "bob", IsActive: false},
	}
	v := NewJWTValidator("secret", "HS256", users)
	ctx := context.Background()

	cases := map[string]struct {
		token string
		want  error
	}{
		"empty":         {token: "", want: ErrMissingToken},
		"garbage":       {token: "not-a-jwt", want: ErrInvalidToken},
		"wrong secret":  {token: sign(t, jwt.SigningMethodHS256, "other", jwt.RegisteredClaims{Subject: "alice"}), want: ErrInvalidToken},
		"wrong alg":     {token: sign(t, jwt.SigningMethodHS512, "secret", jwt.RegisteredClaims{Subject: "alice"}), want: ErrInvalidToken},
		"expired":       {token: sign(t, jwt.SigningMethodHS256, "secret", jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}), want: ErrInvalidToken},
		"no subject":    {token: sign(t, jwt.SigningMethodHS256, "secret", jwt.RegisteredClaims{}), want: ErrInvalidToken},
		"unknown user":  {token: sign(t, jwt.SigningMethodHS256, "secret", jwt.RegisteredClaims{Subject: "carol"}), want: ErrUnknownUser},
		"inactive user": {token: sign(t, jwt.SigningMethodHS256, "secret", jwt.RegisteredClaims{Subject: "bob"}), want: ErrUnknownUser},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.ValidateToken(ctx, tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	token, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	_, err = BearerToken("Basic abc")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
