package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by a Store when the key has no record.
var ErrNotFound = errors.New("record not found")

// Store is a persistent key-value store holding whole records.
// A record is always written and read as one blob.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(key string) error
}

// DefaultDir returns the directory of the default file store.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate the user config directory: %w", err)
	}
	return filepath.Join(dir, "brokerhub"), nil
}

// FileStore keeps one file per key in a directory. Files are readable by
// their owner only since records contain bearer tokens.
type FileStore struct {
	Dir string
}

func (s FileStore) path(key string) string { return filepath.Join(s.Dir, key+".json") }

func (s FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put writes the record to a temporary file renamed over the previous one,
// so a reader never sees a partial record.
func (s FileStore) Put(key string, value []byte) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("cannot create session directory: %w", err)
	}
	f, err := os.CreateTemp(s.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot write session: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op once renamed

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(value); err != nil {
		f.Close()
		return fmt.Errorf("cannot write session: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot write session: %w", err)
	}
	return os.Rename(tmp, s.path(key))
}

func (s FileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore is an in-memory Store. Its zero value is ready to use.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string][]byte)
	}
	s.records[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
