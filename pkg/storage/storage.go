// Package storage abstracts where the prepared matrix and its backup
// snapshots live: a local output directory, a MinIO bucket or an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"activity-insights/config"
	"activity-insights/pkg/logger"
	"activity-insights/pkg/storage/local"
	"activity-insights/pkg/storage/minio"
	"activity-insights/pkg/storage/s3"
)

// Backend names accepted by the factory.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
	BackendS3    = "s3"
)

// Storage is the sink interface the pipeline writes through.
type Storage interface {
	// Store writes an object under key and returns the key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get reads an object back.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold; used
	// to prune old backup snapshots.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage creates the backend selected by configuration.
func NewStorage(cfg *config.StorageConfig, log logger.Logger) (Storage, error) {
	switch cfg.Backend {
	case BackendLocal:
		return local.New(cfg.OutputDir, log)
	case BackendMinio:
		return minio.New(cfg, log)
	case BackendS3:
		return s3.New(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
