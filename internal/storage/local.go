package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements Storage using the local filesystem.
// Each key maps to one JSON file; colon-separated key segments become
// directories ("esans:cart:abc" -> <base>/esans/cart/abc.json).
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a filesystem store rooted at basePath (created if missing).
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// path maps a key to a file path, rejecting keys that could escape basePath.
func (s *LocalStorage) path(key string) (string, error) {
	segments := strings.Split(key, ":")
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return "", ErrInvalidKey(key)
		}
	}
	return filepath.Join(s.basePath, filepath.Join(segments...)+".json"), nil
}

// Get reads the file for key.
func (s *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound(key)
		}
		return nil, backendError("failed to read file", err)
	}

	return data, nil
}

// Put writes value to a temp file and renames it into place, so a crash
// never leaves a half-written cart behind.
func (s *LocalStorage) Put(ctx context.Context, key string, value []byte) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return backendError("failed to create directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return backendError("failed to create file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return backendError("failed to write file", err)
	}
	if err := tmp.Close(); err != nil {
		return backendError("failed to write file", err)
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return backendError("failed to replace file", err)
	}

	return nil
}

// Delete removes the file for key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return backendError("failed to delete file", err)
	}

	return nil
}
