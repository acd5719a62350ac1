package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/beaconbay/backend/internal/models"
)

// FileStore keeps the mapping in a single JSON document on disk.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a store backed by path. The file is created on first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get reads the mapping. A missing file is an empty mapping.
func (s *FileStore) Get(ctx context.Context) (models.Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	if len(data) == 0 {
		return models.Mapping{}, nil
	}

	var m models.Mapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", filepath.Base(s.path), err)
	}
	if m == nil {
		m = models.Mapping{}
	}
	return m, nil
}

// Set replaces the stored mapping. The write goes through a temp file so
// readers never see a partial document.
func (s *FileStore) Set(ctx context.Context, m models.Mapping) error {
	data, err := json.MarshalIndent(Normalize(m), "", "  ")
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create mapping dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// Clear removes the mapping file.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear mapping: %w", err)
	}
	return nil
}
