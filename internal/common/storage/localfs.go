package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"scoutly/internal/common/logger"
)

// LocalFS stores objects below Root. Used for development and the terminal
// driver when no bucket is configured.
type LocalFS struct {
	Root    string
	BaseURL string
	logger  logger.Logger
}

func NewLocalFS(root, baseURL string, log logger.Logger) *LocalFS {
	return &LocalFS{
		Root:    root,
		BaseURL: baseURL,
		logger:  log.WithFields(map[string]interface{}{"component": "local-store", "root": root}),
	}
}

func (l *LocalFS) path(key string) string {
	return filepath.Join(l.Root, filepath.FromSlash(key))
}

func (l *LocalFS) Upload(ctx context.Context, key, contentType string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	abs := l.path(key)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write object %s: %w", key, err)
	}

	l.logger.Debug("object stored", map[string]interface{}{
		"key":         key,
		"contentType": contentType,
		"bytes":       len(data),
	})
	return nil
}

func (l *LocalFS) PublicURL(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if l.BaseURL != "" {
		return joinURL(l.BaseURL, "", key), nil
	}
	abs, err := filepath.Abs(l.path(key))
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func (l *LocalFS) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(l.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrObjectMissing, key)
	}
	return err
}

// Exists reports whether an object is stored under key.
func (l *LocalFS) Exists(key string) bool {
	if validateKey(key) != nil {
		return false
	}
	_, err := os.Stat(l.path(key))
	return err == nil
}
