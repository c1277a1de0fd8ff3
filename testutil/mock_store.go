// mock_store.go - In-memory object store for testing
package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrObjectNotFound is returned when reading a missing object
var ErrObjectNotFound = errors.New("object not found")

// MockObjectStore implements service.ObjectStore and service.Presigner
// against an in-memory map
type MockObjectStore struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string

	// ForcedErr, when set, is returned by every operation
	ForcedErr error
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (m *MockObjectStore) ObjectExists(_ context.Context, objectName string) (bool, error) {
	if m.ForcedErr != nil {
		return false, m.ForcedErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectName]
	return ok, nil
}

func (m *MockObjectStore) ReadObject(_ context.Context, objectName string) ([]byte, error) {
	if m.ForcedErr != nil {
		return nil, m.ForcedErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectName]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

func (m *MockObjectStore) WriteObject(_ context.Context, objectName string, data []byte, contentType string) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = data
	m.contentTypes[objectName] = contentType
	return nil
}

func (m *MockObjectStore) RemoveObject(_ context.Context, objectName string) error {
	if m.ForcedErr != nil {
		return m.ForcedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectName)
	delete(m.contentTypes, objectName)
	return nil
}

func (m *MockObjectStore) PresignedUploadURL(_ context.Context, objectName string) (string, error) {
	if m.ForcedErr != nil {
		return "", m.ForcedErr
	}
	return "http://mock-storage/upload/" + objectName, nil
}

func (m *MockObjectStore) PresignedGetURL(_ context.Context, objectName string) (string, error) {
	if m.ForcedErr != nil {
		return "", m.ForcedErr
	}
	return "http://mock-storage/get/" + objectName, nil
}

// ContentType returns the content type recorded for an object
func (m *MockObjectStore) ContentType(objectName string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[objectName]
}
