package storage

import (
	"context"
	"os"
	"path/filepath"
)

// LocalStore keeps objects on disk; used when no bucket is configured.
type LocalStore struct {
	Root    string
	BaseURL string
}

func (s *LocalStore) full(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, contentType string) (*Object, error) {
	full := s.full(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, err
	}

	return &Object{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: contentType,
		URL:         s.URL(key),
	}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.full(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStore) URL(key string) string {
	if key == "" || s.BaseURL == "" {
		return ""
	}
	return s.BaseURL + "/" + key
}
