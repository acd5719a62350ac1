// mock_mapping.go - Mock mapping store and fixtures for testing
package testutil

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/beaconbay/backend/internal/mapping"
	"github.com/beaconbay/backend/internal/models"
)

// ErrMockUnavailable is the default injected failure.
var ErrMockUnavailable = errors.New("mapping backend unavailable")

// MockMappingStore implements mapping.Store in memory with injectable failures
type MockMappingStore struct {
	mu       sync.RWMutex
	labels   models.Mapping
	GetErr   error
	SetErr   error
	ClearErr error
	Gets     int
}

// NewMockMappingStore creates a mock pre-filled with labels
func NewMockMappingStore(labels models.Mapping) *MockMappingStore {
	return &MockMappingStore{labels: mapping.Normalize(labels)}
}

func (m *MockMappingStore) Get(ctx context.Context) (models.Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return maps.Clone(m.labels), nil
}

func (m *MockMappingStore) Set(ctx context.Context, labels models.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	m.labels = mapping.Normalize(labels)
	return nil
}

func (m *MockMappingStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.labels = models.Mapping{}
	return nil
}

// FailAll makes every operation return err (ErrMockUnavailable when nil)
func (m *MockMappingStore) FailAll(err error) {
	if err == nil {
		err = ErrMockUnavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetErr, m.SetErr, m.ClearErr = err, err, err
}

// GetCount returns how many times Get was called
func (m *MockMappingStore) GetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Gets
}

// Ensure MockMappingStore implements mapping.Store
var _ mapping.Store = (*MockMappingStore)(nil)
