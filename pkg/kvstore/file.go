package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the whole key space as one JSON document on local disk.
// Every write rewrites the document through a temp file and rename, so a crash
// leaves either the old or the new snapshot.
type FileStore struct {
	mu   sync.RWMutex
	path string
	data map[string]string
}

// NewFileStore loads path if it exists and prepares its directory otherwise.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = "./data/timetable.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &FileStore{path: path, data: make(map[string]string)}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("decode store file %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.data[key]
	s.data[key] = value
	if err := s.flush(); err != nil {
		if existed {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.data[key]
	if !existed {
		return nil
	}
	delete(s.data, key)
	if err := s.flush(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	return keys, nil
}

// Ping checks that the store directory is still writable.
func (s *FileStore) Ping(ctx context.Context) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ping-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)
	return nil
}

// Path exposes the snapshot location (useful for debugging).
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) flush() error {
	payload, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: replace store file: %v", ErrUnavailable, err)
	}
	return nil
}
