package services

import (
	"io"
	"path/filepath"
	"strings"
)

// DefaultMaxAudioBytes bounds uploaded audio blobs.
const DefaultMaxAudioBytes int64 = 10 << 20

// AudioUpload is an uploaded audio file. Size may be -1 when unknown.
type AudioUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func readAudio(a *AudioUpload, maxBytes int64) ([]byte, error) {
	if a == nil || a.Body == nil || a.Size == 0 {
		return nil, ErrAudioRequired
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.ContentType)), "audio/") {
		return nil, ErrInvalidAudio
	}
	if a.Size > maxBytes {
		return nil, ErrAudioTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(a.Body, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrAudioTooLarge
	}
	if len(data) == 0 {
		return nil, ErrAudioRequired
	}
	return data, nil
}

// audioExt keeps a short alphanumeric extension from the client file name.
func audioExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ".wav"
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ".wav"
		}
	}
	return ext
}
