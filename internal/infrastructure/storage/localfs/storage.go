package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// Storage stages browser-selected upload files on local disk until they are
// sent to the backend.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/staging"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == ".." {
		return "", domain.NewInputError("key", "invalid staging key: "+key)
	}
	return filepath.Join(s.basePath, clean), nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create staging subdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "localfs.open", err)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Remove deletes a staged file; removing a missing key is not an error.
func (s *Storage) Remove(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	// Drop the per-browser directory once it is empty.
	if dir := filepath.Dir(path); dir != filepath.Clean(s.basePath) {
		_ = os.Remove(dir)
	}
	return nil
}

// Purge removes everything staged by a previous run.
func (s *Storage) Purge() error {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return fmt.Errorf("read staging dir: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.basePath, entry.Name())); err != nil {
			return fmt.Errorf("purge %s: %w", entry.Name(), err)
		}
	}
	return nil
}
