package models

import (
	"encoding/json"
	"time"
)

// Message represents a chat message. Content is either TextContent or AudioContent.
type Message struct {
	ID             int
	ConversationID int
	SenderID       *int
	Content        Content
	CreatedAt      time.Time
	IsRead         bool
}

// Kind reports the content kind, or "" when the message carries no content.
func (m Message) Kind() ContentKind {
	if m.Content == nil {
		return ""
	}
	return m.Content.Kind()
}

type messageJSON struct {
	ID             int         `json:"id"`
	ConversationID int         `json:"conversation_id"`
	SenderID       *int        `json:"sender_id"`
	ContentType    ContentKind `json:"content_type"`
	Content        *string     `json:"content"`
	MediaURL       *string     `json:"media_url"`
	CreatedAt      time.Time   `json:"created_at"`
	IsRead         bool        `json:"is_read"`
}

// MarshalJSON flattens the content variant into content_type/content/media_url.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.wire())
}

func (m Message) wire() messageJSON {
	text, media := SplitContent(m.Content)
	return messageJSON{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ContentType:    m.Kind(),
		Content:        text,
		MediaURL:       media,
		CreatedAt:      m.CreatedAt,
		IsRead:         m.IsRead,
	}
}

// MessageWithSender is the history view of a message. Sender is nil when the
// sender account is gone.
type MessageWithSender struct {
	Message
	Sender *User
}

func (m MessageWithSender) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		messageJSON
		Sender *User `json:"sender"`
	}{m.Message.wire(), m.Sender})
}

// NewMessage is the input for persisting a message.
type NewMessage struct {
	ConversationID int
	SenderID       int
	Content        Content
}
