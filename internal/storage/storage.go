package storage

import (
	"context"
	"errors"

	"github.com/gutterguard/inventory/internal/config"
)

// ErrObjectNotFound is returned by GetObject for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations backups need.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	UploadObject(ctx context.Context, key string, data []byte) error
}

// New picks MinIO when an endpoint is configured and the local backup
// directory otherwise.
func New(cfg config.StorageConfig, localDir string) (ObjectStorage, error) {
	if cfg.Endpoint == "" {
		return NewLocalStorage(localDir)
	}
	return NewMinioClient(cfg)
}
