package models

import (
	"errors"
	"strings"
)

// ContentKind tags the payload carried by a message.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentAudio ContentKind = "audio"
)

var (
	ErrUnknownContentKind = errors.New("unknown content type")
	ErrEmptyContent       = errors.New("content payload is empty")
)

// ParseContentKind accepts "text"/"audio" in any case.
func ParseContentKind(raw string) (ContentKind, error) {
	switch ContentKind(strings.ToLower(strings.TrimSpace(raw))) {
	case ContentText:
		return ContentText, nil
	case ContentAudio:
		return ContentAudio, nil
	}
	return "", ErrUnknownContentKind
}

// Content is the payload of a message or translation. Only TextContent and
// AudioContent implement it, so a value always carries exactly one shape.
type Content interface {
	Kind() ContentKind
	isContent()
}

// TextContent is a plain text payload.
type TextContent struct {
	Text string
}

func (TextContent) Kind() ContentKind { return ContentText }
func (TextContent) isContent()        {}

// AudioContent references a stored audio blob by its public URL.
type AudioContent struct {
	MediaURL string
}

func (AudioContent) Kind() ContentKind { return ContentAudio }
func (AudioContent) isContent()        {}

// NewContent builds the variant for kind from the column pair used in storage.
func NewContent(kind ContentKind, text, mediaURL string) (Content, error) {
	switch kind {
	case ContentText:
		if text == "" {
			return nil, ErrEmptyContent
		}
		return TextContent{Text: text}, nil
	case ContentAudio:
		if mediaURL == "" {
			return nil, ErrEmptyContent
		}
		return AudioContent{MediaURL: mediaURL}, nil
	}
	return nil, ErrUnknownContentKind
}

// SplitContent returns the (text, media_url) column pair for c; the column
// that does not apply is nil.
func SplitContent(c Content) (text *string, mediaURL *string) {
	switch v := c.(type) {
	case TextContent:
		return &v.Text, nil
	case AudioContent:
		return nil, &v.MediaURL
	}
	return nil, nil
}
