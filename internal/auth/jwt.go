package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"voicechat-service/internal/models"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownUser  = errors.New("token subject does not resolve to an active user")
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (int, error)
}

// UserLookup resolves the token subject.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// JWTValidator verifies HMAC signed tokens whose subject is a username.
type JWTValidator struct {
	secret    []byte
	algorithm string
	users     UserLookup
}

var _ TokenValidator = (*JWTValidator)(nil)

// NewJWTValidator builds a validator accepting only the given algorithm.
func NewJWTValidator(secret, algorithm string, users UserLookup) *JWTValidator {
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	return &JWTValidator{secret: []byte(secret), algorithm: algorithm, users: users}
}

// ValidateToken checks signature and expiry, then maps sub to a user id.
func (v *JWTValidator) ValidateToken(ctx context.Context, token string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, ErrMissingToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{v.algorithm}))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return 0, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	user, err := v.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnknownUser, err)
	}
	if !user.IsActive {
		return 0, ErrUnknownUser
	}
	return user.ID, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}
