// Package storage ships finished run outputs to an archival backend.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/forensio/imageinv/config"
	"github.com/forensio/imageinv/pkg/logger"
	"github.com/forensio/imageinv/pkg/storage/minio"
)

// Uploader stores one named object.
type Uploader interface {
	Store(ctx context.Context, reader io.Reader, name string) (string, error)
}

// New creates the archival uploader for the configured backend.
func New(cfg *config.ArchiveConfig, log logger.Logger) (Uploader, error) {
	return minio.New(cfg, log)
}

// StoreFile uploads a local file under its base name.
func StoreFile(ctx context.Context, u Uploader, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return u.Store(ctx, f, filepath.Base(path))
}
