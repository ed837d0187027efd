package storage

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the public path under which blobs are served.
const URLPrefix = "/api/audio/"

// Category groups blobs by owner.
type Category string

const (
	CategoryUsers      Category = "users"
	CategoryMessages   Category = "messages"
	CategoryTranslated Category = "translated"
)

var ErrInvalidLocation = errors.New("invalid blob location")

// Location addresses a blob. ConversationID is only meaningful for
// CategoryMessages, whose blobs live under conv_<id>/.
type Location struct {
	Category       Category
	ConversationID int
	Name           string
}

// UserAudio is the location of a user's reference voice sample.
func UserAudio(name string) Location {
	return Location{Category: CategoryUsers, Name: name}
}

// MessageAudio is the location of a message's audio payload.
func MessageAudio(conversationID int, name string) Location {
	return Location{Category: CategoryMessages, ConversationID: conversationID, Name: name}
}

// TranslatedAudio is the location of a synthesized translation.
func TranslatedAudio(name string) Location {
	return Location{Category: CategoryTranslated, Name: name}
}

// NewName returns a random blob name keeping ext (".wav", ".mp3", ...).
func NewName(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return uuid.NewString() + strings.ToLower(ext)
}

// Validate checks that the location can be mapped to a path safely.
func (l Location) Validate() error {
	switch l.Category {
	case CategoryUsers, CategoryTranslated:
	case CategoryMessages:
		if l.ConversationID <= 0 {
			return fmt.Errorf("%w: missing conversation id", ErrInvalidLocation)
		}
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidLocation, l.Category)
	}
	if l.Name == "" || l.Name == "." || l.Name == ".." || strings.ContainsAny(l.Name, `/\`) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidLocation, l.Name)
	}
	return nil
}

// RelPath is the slash separated path of the blob relative to the store root.
func (l Location) RelPath() string {
	if l.Category == CategoryMessages {
		return path.Join(string(l.Category), "conv_"+strconv.Itoa(l.ConversationID), l.Name)
	}
	return path.Join(string(l.Category), l.Name)
}

// URL is the public URL of the blob. ParseURL inverts it.
func (l Location) URL() string {
	return URLPrefix + l.RelPath()
}

// ParseURL maps a public blob URL, or the path after URLPrefix, back to its Location.
func ParseURL(raw string) (Location, error) {
	rel := strings.TrimPrefix(raw, URLPrefix)
	rel = strings.TrimPrefix(rel, "/")
	parts := strings.Split(rel, "/")

	var loc Location
	switch {
	case len(parts) == 2 && (parts[0] == string(CategoryUsers) || parts[0] == string(CategoryTranslated)):
		loc = Location{Category: Category(parts[0]), Name: parts[1]}
	case len(parts) == 3 && parts[0] == string(CategoryMessages):
		idRaw, ok := strings.CutPrefix(parts[1], "conv_")
		if !ok {
			return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, raw)
		}
		id, err := strconv.Atoi(idRaw)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, raw)
		}
		loc = Location{Category: CategoryMessages, ConversationID: id, Name: parts[2]}
	default:
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, raw)
	}

	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}
