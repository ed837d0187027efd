package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"voicechat-service/internal/models"
)

// ParticipantRepository defines membership persistence.
type ParticipantRepository interface {
	Add(ctx context.Context, conversationID int, userID int) (models.Participant, error)
	Get(ctx context.Context, participantID int) (models.Participant, error)
	GetByUserAndConversation(ctx context.Context, conversationID int, userID int) (models.Participant, error)
	ListByConversation(ctx context.Context, conversationID int) ([]models.Participant, error)
	IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error)
	OtherParticipantLanguage(ctx context.Context, conversationID int, senderID int) (string, bool, error)
	Remove(ctx context.Context, participantID int) error
}

// ParticipantRepo is a sqlx-backed repository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

const participantColumns = `id, conversation_id, user_id, joined_at`

// Add inserts a membership row.
func (r *ParticipantRepo) Add(ctx context.Context, conversationID int, userID int) (models.Participant, error) {
	var p models.Participant
	err := r.db.QueryRowxContext(ctx, `INSERT INTO participants (conversation_id, user_id) VALUES ($1, $2) RETURNING `+participantColumns, conversationID, userID).StructScan(&p)
	if isUniqueViolation(err) {
		return models.Participant{}, ErrAlreadyParticipant
	}
	return p, err
}

// Get retrieves a participant by id.
func (r *ParticipantRepo) Get(ctx context.Context, participantID int) (models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p, `SELECT `+participantColumns+` FROM participants WHERE id=$1`, participantID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// GetByUserAndConversation retrieves the membership row of a user.
func (r *ParticipantRepo) GetByUserAndConversation(ctx context.Context, conversationID int, userID int) (models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p, `SELECT `+participantColumns+` FROM participants WHERE conversation_id=$1 AND user_id=$2`, conversationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// ListByConversation returns members ordered by participant id.
func (r *ParticipantRepo) ListByConversation(ctx context.Context, conversationID int) ([]models.Participant, error) {
	participants := []models.Participant{}
	err := r.db.SelectContext(ctx, &participants, `SELECT `+participantColumns+` FROM participants WHERE conversation_id=$1 ORDER BY id ASC`, conversationID)
	return participants, err
}

// IsParticipant checks whether a user belongs to the conversation.
func (r *ParticipantRepo) IsParticipant(ctx context.Context, conversationID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM participants WHERE conversation_id=$1 AND user_id=$2)`, conversationID, userID)
	return exists, err
}

// OtherParticipantLanguage returns the primary language of the first member
// that is not the sender. ok is false when there is no such member or the
// member has no language configured.
func (r *ParticipantRepo) OtherParticipantLanguage(ctx context.Context, conversationID int, senderID int) (string, bool, error) {
	var lang sql.NullString
	err := r.db.GetContext(ctx, &lang, `SELECT u.primary_language FROM participants p
        INNER JOIN users u ON u.id = p.user_id
        WHERE p.conversation_id=$1 AND p.user_id<>$2
        ORDER BY p.id ASC
        LIMIT 1`, conversationID, senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !lang.Valid || lang.String == "" {
		return "", false, nil
	}
	return lang.String, true, nil
}

// Remove deletes a membership row.
func (r *ParticipantRepo) Remove(ctx context.Context, participantID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id=$1`, participantID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
