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

// MessageRepository manages conversation messages.
type MessageRepository interface {
	Create(ctx context.Context, msg models.NewMessage) (models.Message, error)
	Get(ctx context.Context, messageID int) (models.Message, error)
	ListByConversation(ctx context.Context, conversationID int, skip, limit int) ([]models.Message, error)
	ListAudioURLs(ctx context.Context, conversationID int) ([]string, error)
	MarkRead(ctx context.Context, conversationID int, readerID int) (int64, error)
	Delete(ctx context.Context, messageID int) error
}

// MessageRepo implements MessageRepository using sqlx.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo builds a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, content_type, content, media_url, is_read, created_at`

type messageRow struct {
	ID             int            `db:"id"`
	ConversationID int            `db:"conversation_id"`
	SenderID       sql.NullInt64  `db:"sender_id"`
	ContentType    string         `db:"content_type"`
	Content        sql.NullString `db:"content"`
	MediaURL       sql.NullString `db:"media_url"`
	IsRead         bool           `db:"is_read"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r messageRow) toModel() (models.Message, error) {
	content, err := models.NewContent(models.ContentKind(r.ContentType), r.Content.String, r.MediaURL.String)
	if err != nil {
		return models.Message{}, fmt.Errorf("message %d: %w", r.ID, err)
	}
	msg := models.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Content:        content,
		IsRead:         r.IsRead,
		CreatedAt:      r.CreatedAt,
	}
	if r.SenderID.Valid {
		sender := int(r.SenderID.Int64)
		msg.SenderID = &sender
	}
	return msg, nil
}

// Create stores a message.
func (r *MessageRepo) Create(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	if msg.Content == nil {
		return models.Message{}, models.ErrEmptyContent
	}
	text, media := models.SplitContent(msg.Content)
	var row messageRow
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (conversation_id, sender_id, content_type, content, media_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+messageColumns,
		msg.ConversationID, msg.SenderID, string(msg.Content.Kind()), text, media).StructScan(&row)
	if err != nil {
		return models.Message{}, err
	}
	return row.toModel()
}

// Get fetches a message by id.
func (r *MessageRepo) Get(ctx context.Context, messageID int) (models.Message, error) {
	var row messageRow
	err := r.db.GetContext(ctx, &row, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return row.toModel()
}

// ListByConversation returns a page of messages in chronological order.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID int, skip, limit int) ([]models.Message, error) {
	rows := []messageRow{}
	err := r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+` FROM messages
        WHERE conversation_id=$1
        ORDER BY created_at ASC, id ASC
        OFFSET $2 LIMIT $3`, conversationID, skip, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// ListAudioURLs returns the media urls of every audio message and audio
// translation in the conversation.
func (r *MessageRepo) ListAudioURLs(ctx context.Context, conversationID int) ([]string, error) {
	urls := []string{}
	err := r.db.SelectContext(ctx, &urls, `SELECT m.media_url FROM messages m
        WHERE m.conversation_id=$1 AND m.media_url IS NOT NULL
        UNION ALL
        SELECT t.media_url FROM translated_messages t
        INNER JOIN messages m ON m.id = t.original_message_id
        WHERE m.conversation_id=$1 AND t.media_url IS NOT NULL`, conversationID)
	return urls, err
}

// MarkRead flags every unread message not sent by readerID as read.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID int, readerID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read=TRUE
        WHERE conversation_id=$1 AND is_read=FALSE AND (sender_id IS NULL OR sender_id<>$2)`, conversationID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a message; its translation cascades.
func (r *MessageRepo) Delete(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
