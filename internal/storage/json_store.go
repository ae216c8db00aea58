package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/coinlit/internal/constants"
)

// JSONStore keeps each domain in <dir>/<domain>.json.
type JSONStore struct {
	dir    string
	loaded bool
}

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir}
}

func (s *JSONStore) Init() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	s.loaded = true
	return nil
}

func (s *JSONStore) Load() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to read data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	s.loaded = true
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) path(domain constants.Domain) string {
	return filepath.Join(s.dir, string(domain)+".json")
}

func (s *JSONStore) LoadDocument(ctx context.Context, domain constants.Domain) ([]byte, error) {
	if !s.loaded {
		return nil, fmt.Errorf("storage not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(domain))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", domain, err)
	}
	return data, nil
}

// SaveDocument writes through a temp file and rename so a crash never leaves
// a half-written document.
func (s *JSONStore) SaveDocument(ctx context.Context, domain constants.Domain, data []byte) error {
	if !s.loaded {
		return fmt.Errorf("storage not loaded")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, string(domain)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", domain, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", domain, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", domain, err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", domain, err)
	}
	if err := os.Rename(tmp.Name(), s.path(domain)); err != nil {
		return fmt.Errorf("failed to write %s: %w", domain, err)
	}
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.dir
}
