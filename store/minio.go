package store

import (
	"context"

	"github.com/minio/minio-go/v6"
	"github.com/pkg/errors"
)

// MinioStore talks to the store with the MinIO client.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore connects to cfg.Endpoint with the MinIO client.
func NewMinioStore(cfg Config) (*MinioStore, error) {
	host, secure, err := cfg.HostAndSecure()
	if err != nil {
		return nil, err
	}
	client, err := minio.NewWithRegion(host, cfg.AccessKey, cfg.SecretKey, secure, cfg.Region)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't create minio client for %s", cfg.Endpoint)
	}
	return &MinioStore{client: client}, nil
}

func (m *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return m.client.BucketExists(bucket)
}

func (m *MinioStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := m.client.StatObjectWithContext(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return false, nil
	}
	return false, errors.Wrapf(err, "couldn't stat %s/%s", bucket, key)
}

func (m *MinioStore) Upload(ctx context.Context, bucket, key, localPath string) error {
	_, err := m.client.FPutObjectWithContext(ctx, bucket, key, localPath, minio.PutObjectOptions{})
	if err != nil {
		return errors.Wrapf(err, "couldn't upload %s to %s/%s", localPath, bucket, key)
	}
	return nil
}

func (m *MinioStore) Download(ctx context.Context, bucket, key, localPath string) error {
	err := m.client.FGetObjectWithContext(ctx, bucket, key, localPath, minio.GetObjectOptions{})
	if err != nil {
		return errors.Wrapf(err, "couldn't download %s/%s", bucket, key)
	}
	return nil
}

func (m *MinioStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	done := make(chan struct{})
	defer close(done)

	var keys []string
	for obj := range m.client.ListObjectsV2(bucket, prefix, true, done) {
		if obj.Err != nil {
			return nil, errors.Wrapf(obj.Err, "couldn't list %s/%s", bucket, prefix)
		}
		keys = append(keys, obj.Key)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (m *MinioStore) Any(ctx context.Context, bucket, prefix string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	done := make(chan struct{})
	defer close(done)

	// Closing done stops the listing after the first object.
	for obj := range m.client.ListObjectsV2(bucket, prefix, true, done) {
		if obj.Err != nil {
			return false, errors.Wrapf(obj.Err, "couldn't list %s/%s", bucket, prefix)
		}
		return true, nil
	}
	return false, nil
}

var _ ObjectStore = (*MinioStore)(nil)
