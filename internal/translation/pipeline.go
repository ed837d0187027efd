package translation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"voicechat-service/internal/models"
	"voicechat-service/internal/repositories"
	"voicechat-service/internal/storage"
)

// Skip reasons. A skipped message is left untranslated without error.
var (
	ErrNoSender          = errors.New("message has no sender")
	ErrNoSourceLanguage  = errors.New("sender has no primary language")
	ErrNoTargetLanguage  = errors.New("no other participant with a primary language")
	ErrSameLanguage      = errors.New("source and target language are equal")
	ErrAlreadyTranslated = errors.New("message already translated")
	ErrNoReferenceAudio  = errors.New("sender has no reference audio")
)

// ErrAudioMissing is returned when a blob needed for speech translation is absent.
var ErrAudioMissing = errors.New("audio blob missing")

// IsSkip reports whether err means the message is intentionally left untranslated.
func IsSkip(err error) bool {
	for _, target := range []error{ErrNoSender, ErrNoSourceLanguage, ErrNoTargetLanguage, ErrSameLanguage, ErrAlreadyTranslated, ErrNoReferenceAudio} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MessageReader loads messages by id.
type MessageReader interface {
	Get(ctx context.Context, messageID int) (models.Message, error)
}

// UserReader loads users by id.
type UserReader interface {
	Get(ctx context.Context, userID int) (models.User, error)
}

// LanguageLookup finds the language a message should be translated into.
type LanguageLookup interface {
	OtherParticipantLanguage(ctx context.Context, conversationID int, senderID int) (string, bool, error)
}

// TranslationStore persists translations.
type TranslationStore interface {
	Create(ctx context.Context, tm models.NewTranslatedMessage) (models.TranslatedMessage, error)
	GetByOriginalMessageID(ctx context.Context, messageID int) (models.TranslatedMessage, error)
}

// TextTranslator translates text between two languages.
type TextTranslator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// AudioRequest is the input of a speech to speech translation.
type AudioRequest struct {
	Source         []byte
	SourceName     string
	Reference      []byte
	ReferenceName  string
	SourceLanguage string
	TargetLanguage string
}

// AudioTranslator synthesizes translated speech in the reference voice.
type AudioTranslator interface {
	TranslateAudio(ctx context.Context, req AudioRequest) ([]byte, error)
}

// Notifier is told about every persisted translation.
type Notifier interface {
	TranslationCreated(ctx context.Context, conversationID int, tm models.TranslatedMessage)
}

// Pipeline derives at most one translation per message.
type Pipeline struct {
	users        UserReader
	languages    LanguageLookup
	translations TranslationStore
	blobs        storage.BlobStore
	text         TextTranslator
	audio        AudioTranslator
	notifier     Notifier
}

// Deps groups the collaborators of a Pipeline.
type Deps struct {
	Users        UserReader
	Languages    LanguageLookup
	Translations TranslationStore
	Blobs        storage.BlobStore
	Text         TextTranslator
	Audio        AudioTranslator
	Notifier     Notifier
}

func NewPipeline(d Deps) *Pipeline {
	return &Pipeline{
		users:        d.Users,
		languages:    d.Languages,
		translations: d.Translations,
		blobs:        d.Blobs,
		text:         d.Text,
		audio:        d.Audio,
		notifier:     d.Notifier,
	}
}

// Run translates msg. Skip reasons are returned as the sentinel errors above;
// any other error means the attempt failed and nothing was persisted.
func (p *Pipeline) Run(ctx context.Context, msg models.Message) (models.TranslatedMessage, error) {
	if msg.SenderID == nil {
		return models.TranslatedMessage{}, ErrNoSender
	}
	sender, err := p.users.Get(ctx, *msg.SenderID)
	if err != nil {
		return models.TranslatedMessage{}, fmt.Errorf("load sender: %w", err)
	}
	source := sender.Language()
	if source == "" {
		return models.TranslatedMessage{}, ErrNoSourceLanguage
	}

	target, ok, err := p.languages.OtherParticipantLanguage(ctx, msg.ConversationID, sender.ID)
	if err != nil {
		return models.TranslatedMessage{}, fmt.Errorf("lookup target language: %w", err)
	}
	if !ok {
		return models.TranslatedMessage{}, ErrNoTargetLanguage
	}
	if strings.EqualFold(source, target) {
		return models.TranslatedMessage{}, ErrSameLanguage
	}

	_, err = p.translations.GetByOriginalMessageID(ctx, msg.ID)
	switch {
	case err == nil:
		return models.TranslatedMessage{}, ErrAlreadyTranslated
	case !errors.Is(err, repositories.ErrTranslationNotFound):
		return models.TranslatedMessage{}, fmt.Errorf("check existing translation: %w", err)
	}

	var (
		content models.Content
		written *storage.Location
	)
	switch c := msg.Content.(type) {
	case models.TextContent:
		translated, err := p.text.Translate(ctx, c.Text, source, target)
		if err != nil {
			return models.TranslatedMessage{}, fmt.Errorf("translate text: %w", err)
		}
		content = models.TextContent{Text: translated}
	case models.AudioContent:
		loc, err := p.translateAudio(ctx, sender, c, source, target)
		if err != nil {
			return models.TranslatedMessage{}, err
		}
		written = &loc
		content = models.AudioContent{MediaURL: loc.URL()}
	default:
		return models.TranslatedMessage{}, models.ErrUnknownContentKind
	}

	tm, err := p.translations.Create(ctx, models.NewTranslatedMessage{
		OriginalMessageID: msg.ID,
		TargetLanguage:    target,
		Content:           content,
	})
	if err != nil {
		if written != nil {
			p.discard(*written)
		}
		if errors.Is(err, repositories.ErrTranslationExists) {
			return models.TranslatedMessage{}, ErrAlreadyTranslated
		}
		return models.TranslatedMessage{}, fmt.Errorf("store translation: %w", err)
	}

	if p.notifier != nil {
		p.notifier.TranslationCreated(ctx, msg.ConversationID, tm)
	}
	return tm, nil
}

func (p *Pipeline) translateAudio(ctx context.Context, sender models.User, c models.AudioContent, source, target string) (storage.Location, error) {
	refURL := sender.ReferenceAudio()
	if refURL == "" {
		return storage.Location{}, ErrNoReferenceAudio
	}
	srcLoc, err := storage.ParseURL(c.MediaURL)
	if err != nil {
		return storage.Location{}, fmt.Errorf("message audio: %w", err)
	}
	refLoc, err := storage.ParseURL(refURL)
	if err != nil {
		return storage.Location{}, fmt.Errorf("reference audio: %w", err)
	}

	srcAudio, err := p.readBlob(ctx, srcLoc)
	if err != nil {
		return storage.Location{}, fmt.Errorf("message audio: %w", err)
	}
	refAudio, err := p.readBlob(ctx, refLoc)
	if err != nil {
		return storage.Location{}, fmt.Errorf("reference audio: %w", err)
	}

	out, err := p.audio.TranslateAudio(ctx, AudioRequest{
		Source:         srcAudio,
		SourceName:     srcLoc.Name,
		Reference:      refAudio,
		ReferenceName:  refLoc.Name,
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		return storage.Location{}, fmt.Errorf("translate audio: %w", err)
	}
	if len(out) == 0 {
		return storage.Location{}, errors.New("translate audio: empty response")
	}

	outLoc := storage.TranslatedAudio(storage.NewName(".wav"))
	if err := p.blobs.Write(ctx, outLoc, out); err != nil {
		return storage.Location{}, fmt.Errorf("write translated audio: %w", err)
	}
	return outLoc, nil
}

func (p *Pipeline) readBlob(ctx context.Context, loc storage.Location) ([]byte, error) {
	ok, err := p.blobs.Exists(ctx, loc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAudioMissing, path.Base(loc.RelPath()))
	}
	return p.blobs.Read(ctx, loc)
}

func (p *Pipeline) discard(loc storage.Location) {
	if err := p.blobs.Delete(context.Background(), loc); err != nil {
		log.Printf("translation: cleanup failed url=%s err=%v", loc.URL(), err)
	}
}
