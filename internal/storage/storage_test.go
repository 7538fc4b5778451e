package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/config"
)

func TestLocalStorage(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.UploadObject(ctx, "stocktake_20260501_090000/mesh_rolls.json", []byte(`{"a":1}`)))
	require.NoError(t, s.UploadObject(ctx, "stocktake_20260501_090000/box_inventory.json", []byte(`{}`)))
	require.NoError(t, s.UploadObject(ctx, "other/readme.txt", []byte("x")))

	objs, err := s.ListObjects(ctx, "stocktake_")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "stocktake_20260501_090000/box_inventory.json", objs[0].Key)
	assert.Equal(t, int64(7), objs[1].Size)

	data, err := s.GetObject(ctx, "stocktake_20260501_090000/mesh_rolls.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	_, err = s.GetObject(ctx, "stocktake_20260501_090000/coil_inventory.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.Error(t, s.UploadObject(ctx, "../escape.json", nil))
}

func TestNewMinioClient_Validation(t *testing.T) {
	_, err := NewMinioClient(config.StorageConfig{Endpoint: "minio:9000"})
	assert.Error(t, err)
	_, err = NewMinioClient(config.StorageConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	c, err := NewMinioClient(config.StorageConfig{Endpoint: "https://minio:9000", AccessKey: "a", SecretKey: "b", Bucket: "backups"})
	require.NoError(t, err)
	assert.Equal(t, "backups", c.bucket)
}

func TestNew_WithoutEndpointIsLocal(t *testing.T) {
	s, err := New(config.StorageConfig{}, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}
