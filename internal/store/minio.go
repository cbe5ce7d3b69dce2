package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tsrlab/tabled/internal/home"
)

// MinioConfig holds connection settings for the object-store backend.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// MinioArtifactStore stores artifacts in an S3-compatible bucket.
// Objects are keyed <id>/<id><ext> for images and <id>/<id>.xml for
// result documents, mirroring the filesystem layout.
type MinioArtifactStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioArtifactStore creates an object-store-backed artifact store.
func NewMinioArtifactStore(cfg MinioConfig, logger *slog.Logger) (*MinioArtifactStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioArtifactStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("component", "artifact_store", "backend", "minio"),
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *MinioArtifactStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ImageKey returns the object key for a job's uploaded image.
func ImageKey(jobID, filename string) string {
	return jobID + "/" + jobID + ImageExt(filename)
}

// ResultKey returns the object key for a job's result document.
func ResultKey(jobID string) string {
	return jobID + "/" + jobID + home.ResultExt
}

// PutImage uploads the original image bytes and returns the object key.
func (s *MinioArtifactStore) PutImage(ctx context.Context, jobID, filename string, data []byte) (string, error) {
	key := ImageKey(jobID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to upload image for %s: %w", jobID, err)
	}

	s.logger.Info("image stored", "job_id", jobID, "key", key, "bytes", len(data))
	return key, nil
}

// PutResultDocument uploads the result document, overwriting any prior one.
func (s *MinioArtifactStore) PutResultDocument(ctx context.Context, jobID, content string) error {
	key := ResultKey(jobID)
	_, err := s.client.PutObject(ctx, s.bucket, key,
		strings.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/xml"})
	if err != nil {
		return fmt.Errorf("failed to upload result document for %s: %w", jobID, err)
	}

	s.logger.Info("result document stored", "job_id", jobID, "key", key)
	return nil
}

// GetResultDocument downloads the stored result document.
func (s *MinioArtifactStore) GetResultDocument(ctx context.Context, jobID string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ResultKey(jobID), minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to fetch result document for %s: %w", jobID, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", fmt.Errorf("%w: no result document for %s", ErrNotFound, jobID)
		}
		return "", fmt.Errorf("failed to read result document for %s: %w", jobID, err)
	}
	return string(data), nil
}

// Delete removes every object stored under the job's prefix.
func (s *MinioArtifactStore) Delete(ctx context.Context, jobID string) error {
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    jobID + "/",
		Recursive: true,
	})

	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("failed to list artifacts for %s: %w", jobID, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete artifact %s: %w", obj.Key, err)
		}
	}
	return nil
}
