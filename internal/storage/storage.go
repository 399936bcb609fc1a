// Package storage хранит содержимое вложений отдельно от их метаданных
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/org-tasks-api/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Store - хранилище содержимого вложений
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New создаёт хранилище по настройкам
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "local", "":
		return NewLocalStore(cfg.LocalDir)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
