package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"voicechat-service/internal/models"
)

// TranslatedMessageRepository persists translations. At most one row exists
// per original message.
type TranslatedMessageRepository interface {
	Create(ctx context.Context, tm models.NewTranslatedMessage) (models.TranslatedMessage, error)
	GetByOriginalMessageID(ctx context.Context, messageID int) (models.TranslatedMessage, error)
}

// TranslatedMessageRepo is the sqlx implementation.
type TranslatedMessageRepo struct {
	db *sqlx.DB
}

// NewTranslatedMessageRepo constructs TranslatedMessageRepo.
func NewTranslatedMessageRepo(db *sqlx.DB) *TranslatedMessageRepo {
	return &TranslatedMessageRepo{db: db}
}

const translatedColumns = `id, original_message_id, target_language, content_type, translated_content, media_url, created_at`

type translatedRow struct {
	ID                int            `db:"id"`
	OriginalMessageID int            `db:"original_message_id"`
	TargetLanguage    string         `db:"target_language"`
	ContentType       string         `db:"content_type"`
	TranslatedContent sql.NullString `db:"translated_content"`
	MediaURL          sql.NullString `db:"media_url"`
	CreatedAt         time.Time      `db:"created_at"`
}

func (r translatedRow) toModel() (models.TranslatedMessage, error) {
	content, err := models.NewContent(models.ContentKind(r.ContentType), r.TranslatedContent.String, r.MediaURL.String)
	if err != nil {
		return models.TranslatedMessage{}, fmt.Errorf("translation %d: %w", r.ID, err)
	}
	return models.TranslatedMessage{
		ID:                r.ID,
		OriginalMessageID: r.OriginalMessageID,
		TargetLanguage:    r.TargetLanguage,
		Content:           content,
		CreatedAt:         r.CreatedAt,
	}, nil
}

// Create inserts a translation. A second translation of the same message
// returns ErrTranslationExists.
func (r *TranslatedMessageRepo) Create(ctx context.Context, tm models.NewTranslatedMessage) (models.TranslatedMessage, error) {
	if tm.Content == nil {
		return models.TranslatedMessage{}, models.ErrEmptyContent
	}
	text, media := models.SplitContent(tm.Content)
	var row translatedRow
	err := r.db.QueryRowxContext(ctx, `INSERT INTO translated_messages (original_message_id, target_language, content_type, translated_content, media_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+translatedColumns,
		tm.OriginalMessageID, tm.TargetLanguage, string(tm.Content.Kind()), text, media).StructScan(&row)
	if isUniqueViolation(err) {
		return models.TranslatedMessage{}, ErrTranslationExists
	}
	if err != nil {
		return models.TranslatedMessage{}, err
	}
	return row.toModel()
}

// GetByOriginalMessageID returns the translation of a message.
func (r *TranslatedMessageRepo) GetByOriginalMessageID(ctx context.Context, messageID int) (models.TranslatedMessage, error) {
	var row translatedRow
	err := r.db.GetContext(ctx, &row, `SELECT `+translatedColumns+` FROM translated_messages WHERE original_message_id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TranslatedMessage{}, ErrTranslationNotFound
	}
	if err != nil {
		return models.TranslatedMessage{}, err
	}
	return row.toModel()
}
