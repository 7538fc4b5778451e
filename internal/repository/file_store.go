package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore writes one pretty-printed JSON file per collection under dir.
// Saves go through a temp file and rename so a crash never leaves a
// half-written document behind.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(c Collection) string {
	return filepath.Join(s.dir, string(c)+".json")
}

func (s *FileStore) Load(_ context.Context, c Collection, dst any) (bool, error) {
	payload, err := os.ReadFile(s.path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", c, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", c, err)
	}
	return true, nil
}

func (s *FileStore) Save(_ context.Context, c Collection, doc any) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, string(c)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", c, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", c, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c, err)
	}
	if err := os.Rename(tmp.Name(), s.path(c)); err != nil {
		return fmt.Errorf("replace %s: %w", c, err)
	}
	return nil
}
