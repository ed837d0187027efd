package models

import (
	"encoding/json"
	"time"
)

// TranslatedMessage is the derived counterpart of a message in the
// recipient's language. It mirrors the original's content kind.
type TranslatedMessage struct {
	ID                int
	OriginalMessageID int
	TargetLanguage    string
	Content           Content
	CreatedAt         time.Time
}

type translatedMessageJSON struct {
	ID                int         `json:"id"`
	OriginalMessageID int         `json:"original_message_id"`
	TargetLanguage    string      `json:"target_language"`
	ContentType       ContentKind `json:"content_type"`
	TranslatedContent *string     `json:"translated_content"`
	MediaURL          *string     `json:"media_url"`
	CreatedAt         time.Time   `json:"created_at"`
}

// MarshalJSON flattens the content variant into translated_content/media_url.
func (t TranslatedMessage) MarshalJSON() ([]byte, error) {
	text, media := SplitContent(t.Content)
	var kind ContentKind
	if t.Content != nil {
		kind = t.Content.Kind()
	}
	return json.Marshal(translatedMessageJSON{
		ID:                t.ID,
		OriginalMessageID: t.OriginalMessageID,
		TargetLanguage:    t.TargetLanguage,
		ContentType:       kind,
		TranslatedContent: text,
		MediaURL:          media,
		CreatedAt:         t.CreatedAt,
	})
}

// NewTranslatedMessage is the input for persisting a translation.
type NewTranslatedMessage struct {
	OriginalMessageID int
	TargetLanguage    string
	Content           Content
}
