package storage

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

// EncryptedFileStore keeps all values in one AES-GCM encrypted JSON file. It is the secure
// store of the client: credentials go here first.
type EncryptedFileStore struct {
	path string
	key  []byte
	mu   sync.Mutex
}

// NewEncryptedFileStore derives the file key from secret. The path is used as the HKDF salt so
// a copied file does not open under another path with the same secret.
func NewEncryptedFileStore(path, secret string) (*EncryptedFileStore, error) {
	if path == "" {
		return nil, errors.New("storage: secure store path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	key, err := deriveKey([]byte(secret), []byte(abs))
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &EncryptedFileStore{path: abs, key: key}, nil
}

func (s *EncryptedFileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *EncryptedFileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *EncryptedFileStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(values, key)
	}
	return s.save(values)
}

func (s *EncryptedFileStore) load() (map[string]string, error) {
	sealed, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	plaintext, err := open(s.key, sealed)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("storage: decode secure store: %w", err)
	}
	return values, nil
}

// save writes to a temp file in the same directory and renames it over the old one.
func (s *EncryptedFileStore) save(values map[string]string) error {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("storage: encode secure store: %w", err)
	}
	sealed, err := seal(s.key, plaintext)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("storage: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".secure-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("storage: replace %s: %w", s.path, err)
	}
	return nil
}
