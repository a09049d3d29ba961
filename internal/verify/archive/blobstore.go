package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docauth/pkg/platform/sentinel"
)

// DirBlobStore stores sealed blobs as files under one directory. Filenames
// are generated by the archiver, so no path cleaning beyond a containment
// check is needed.
type DirBlobStore struct {
	dir string
}

// NewDirBlobStore creates the directory if missing.
func NewDirBlobStore(dir string) (*DirBlobStore, error) {
	if dir == "" {
		return nil, errors.New("archive directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &DirBlobStore{dir: dir}, nil
}

func (s *DirBlobStore) path(filename string) (string, error) {
	if strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid blob filename %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}

// Put implements BlobStore.
func (s *DirBlobStore) Put(ctx context.Context, filename string, data []byte) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Get implements BlobStore.
func (s *DirBlobStore) Get(ctx context.Context, filename string) ([]byte, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, sentinel.ErrNotFound
	}
	return data, err
}

// InMemoryBlobStore holds blobs in process memory, for tests and demo runs.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewInMemoryBlobStore creates an empty in-memory blob store.
func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{blobs: make(map[string][]byte)}
}

// Put implements BlobStore.
func (s *InMemoryBlobStore) Put(ctx context.Context, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[filename] = stored
	return nil
}

// Get implements BlobStore.
func (s *InMemoryBlobStore) Get(ctx context.Context, filename string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[filename]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return data, nil
}
