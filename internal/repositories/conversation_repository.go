package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"voicechat-service/internal/models"
)

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	Create(ctx context.Context, creatorID int) (models.Conversation, error)
	Get(ctx context.Context, conversationID int) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int) ([]models.Conversation, error)
	Delete(ctx context.Context, conversationID int) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Create inserts a conversation and its creator as first participant atomically.
func (r *ConversationRepo) Create(ctx context.Context, creatorID int) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var conv models.Conversation
	if err = tx.QueryRowxContext(ctx, `INSERT INTO conversations DEFAULT VALUES RETURNING id, created_at, updated_at`).StructScan(&conv); err != nil {
		return models.Conversation{}, err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO participants (conversation_id, user_id) VALUES ($1, $2)`, conv.ID, creatorID); err != nil {
		return models.Conversation{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, created_at, updated_at FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns the conversations the user participates in, newest first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	convs := []models.Conversation{}
	err := r.db.SelectContext(ctx, &convs, `SELECT c.id, c.created_at, c.updated_at FROM conversations c
        INNER JOIN participants p ON p.conversation_id = c.id
        WHERE p.user_id=$1
        ORDER BY c.updated_at DESC`, userID)
	return convs, err
}

// Delete removes a conversation; participants, messages and translations cascade.
func (r *ConversationRepo) Delete(ctx context.Context, conversationID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id=$1`, conversationID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}
