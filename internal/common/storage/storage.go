// Package storage is the object store the submission photos are written to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scoutly/internal/common/config"
	"scoutly/internal/common/logger"
)

var (
	ErrInvalidKey    = errors.New("INVALID_OBJECT_KEY")
	ErrObjectMissing = errors.New("OBJECT_NOT_FOUND")
)

// ObjectStore uploads blobs under a key and exposes a publicly retrievable
// reference for them.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	PublicURL(key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (ObjectStore, error) {
	switch cfg.Driver {
	case "s3", "":
		return NewS3Store(ctx, cfg, log)
	case "local":
		return NewLocalFS(cfg.LocalRoot, cfg.PublicBaseURL, log), nil
	}
	return nil, fmt.Errorf("storage driver %q not supported", cfg.Driver)
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func joinURL(base, bucket, key string) string {
	base = strings.TrimRight(base, "/")
	if bucket == "" {
		return base + "/" + key
	}
	return base + "/" + bucket + "/" + key
}
