package repositories

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrAlreadyParticipant   = errors.New("user is already a participant")
	ErrMessageNotFound      = errors.New("message not found")
	ErrTranslationNotFound  = errors.New("translated message not found")
	ErrTranslationExists    = errors.New("translated message already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("username or email already taken")
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
