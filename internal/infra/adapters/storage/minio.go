package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"time"

	"dubbing-orchestrator/internal/config"
	"dubbing-orchestrator/internal/domain/ports/adapter"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

const uploadPrefix = "uploads"

var _ adapter.MediaStore = (*MinioMediaStore)(nil)

// objectClient is the subset of *minio.Client the store uses.
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// MinioMediaStore stages uploads in an S3-compatible bucket so the API and
// the pipeline workers do not need to share a filesystem.
type MinioMediaStore struct {
	client objectClient
	bucket string
	log    *zerolog.Logger
}

func NewMinioMediaStore(ctx context.Context, cfg config.MinioConfig, logger *zerolog.Logger) (*MinioMediaStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return newMinioMediaStore(client, cfg.Bucket, logger), nil
}

func newMinioMediaStore(client objectClient, bucket string, logger *zerolog.Logger) *MinioMediaStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "MinioMediaStore").Str("bucket", bucket).Logger()
	return &MinioMediaStore{client: client, bucket: bucket, log: &l}
}

func (s *MinioMediaStore) Stage(ctx context.Context, filename string, r io.Reader) (string, error) {
	key := path.Join(uploadPrefix, objectName(filename))
	opts := minio.PutObjectOptions{ContentType: mime.TypeByExtension(filepath.Ext(key))}
	if opts.ContentType == "" {
		opts.ContentType = "application/octet-stream"
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, -1, opts); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// Fetch downloads the staged object to dst and deletes it from the bucket.
// A failed delete is logged; Sweep removes the object later.
func (s *MinioMediaStore) Fetch(ctx context.Context, ref, dst string) error {
	if err := s.client.FGetObject(ctx, s.bucket, ref, dst, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("get object %s: %w", ref, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		s.log.Warn().Err(err).Str("key", ref).Msg("remove staged object failed")
	}
	return nil
}

// Sweep deletes staged objects last modified before cutoff.
func (s *MinioMediaStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	removed := 0
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    uploadPrefix + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return removed, fmt.Errorf("list objects: %w", obj.Err)
		}
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("remove object %s: %w", obj.Key, err)
		}
		removed++
	}
	return removed, nil
}
