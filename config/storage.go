package config

import (
	"sync"
)

var (
	storageOnce   sync.Once
	storageConfig *StorageConfig
)

// StorageConfig selects and configures the sink backend holding the
// prepared matrix and its backup snapshots.
type StorageConfig struct {
	// Backend is "local", "minio" or "s3".
	Backend string

	// OutputDir is used by the local backend.
	OutputDir string

	// Object-store settings, shared by the minio and s3 backends.
	Endpoint   string
	Region     string
	BucketName string
	AccessKey  string
	SecretKey  string
	UseSSL     bool

	// RetentionDays prunes backup snapshots older than this after each
	// successful prepare run; 0 keeps everything.
	RetentionDays int
}

func GetStorageConfig() *StorageConfig {
	storageOnce.Do(func() {
		loadDotEnv()
		storageConfig = &StorageConfig{
			Backend:    envOr("STORAGE_BACKEND", "local"),
			OutputDir:  envOr("OUTPUT_DIR", "./output"),
			Endpoint:   envOr("STORAGE_ENDPOINT", ""),
			Region:     envOr("STORAGE_REGION", "us-east-1"),
			BucketName: envOr("STORAGE_BUCKET", "activity-insights"),
			AccessKey:  envOr("STORAGE_ACCESS_KEY", ""),
			SecretKey:  envOr("STORAGE_SECRET_KEY", ""),
			UseSSL:     boolEnv("STORAGE_USE_SSL", false),

			RetentionDays: intEnv("BACKUP_RETENTION_DAYS", 0),
		}
	})
	return storageConfig
}
