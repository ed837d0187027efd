package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrNotFound = errors.New("blob not found")

// BlobStore stores opaque audio blobs.
type BlobStore interface {
	Exists(ctx context.Context, loc Location) (bool, error)
	Read(ctx context.Context, loc Location) ([]byte, error)
	Write(ctx context.Context, loc Location, data []byte) error
	Delete(ctx context.Context, loc Location) error
}

// LocalStore keeps blobs on the local filesystem below root.
type LocalStore struct {
	root string
}

var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates the category directories under root.
func NewLocalStore(root string) (*LocalStore, error) {
	for _, c := range []Category{CategoryUsers, CategoryMessages, CategoryTranslated} {
		if err := os.MkdirAll(filepath.Join(root, string(c)), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	return &LocalStore{root: root}, nil
}

// Path resolves loc to a filesystem path.
func (s *LocalStore) Path(loc Location) (string, error) {
	if err := loc.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(loc.RelPath())), nil
}

func (s *LocalStore) Exists(ctx context.Context, loc Location) (bool, error) {
	p, err := s.Path(loc)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *LocalStore) Read(ctx context.Context, loc Location) ([]byte, error) {
	p, err := s.Path(loc)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Write stores data atomically: readers never observe a partial blob.
func (s *LocalStore) Write(ctx context.Context, loc Location, data []byte) error {
	p, err := s.Path(loc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes the blob. Missing blobs are not an error.
func (s *LocalStore) Delete(ctx context.Context, loc Location) error {
	p, err := s.Path(loc)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
