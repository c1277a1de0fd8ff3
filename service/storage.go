package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/roomscan/backend/config"
)

// Storage key layout. Jobs have no persisted record: the blueprint object and
// the result object are the only traces a job leaves.
const (
	blueprintPrefix = "blueprints/"
	resultPrefix    = "results/"
)

// BlueprintExtensions are the candidate extensions probed by status derivation,
// in probe order.
var BlueprintExtensions = []string{".png", ".jpg", ".jpeg"}

// BlueprintKey returns the object key for a job's uploaded blueprint
func BlueprintKey(jobID, ext string) string {
	return blueprintPrefix + jobID + ext
}

// ResultKey returns the object key for a job's detection result JSON
func ResultKey(jobID string) string {
	return resultPrefix + jobID + ".json"
}

// ObjectStore is the storage surface used by status derivation, the callback
// handler and the demo detector
type ObjectStore interface {
	ObjectExists(ctx context.Context, objectName string) (bool, error)
	ReadObject(ctx context.Context, objectName string) ([]byte, error)
	WriteObject(ctx context.Context, objectName string, data []byte, contentType string) error
	RemoveObject(ctx context.Context, objectName string) error
}

// Presigner issues time-limited capability URLs into object storage
type Presigner interface {
	PresignedUploadURL(ctx context.Context, objectName string) (string, error)
	PresignedGetURL(ctx context.Context, objectName string) (string, error)
}

// StorageService talks to MinIO (or any S3-compatible store)
type StorageService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewStorageService(cfg *config.MinioConfig) (*StorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &StorageService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ObjectExists probes storage for the object. A missing key is not an error.
func (s *StorageService) ObjectExists(ctx context.Context, objectName string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// ReadObject reads the full object into memory
func (s *StorageService) ReadObject(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return data, nil
}

// WriteObject writes data under the given key
func (s *StorageService) WriteObject(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}

	return nil
}

// RemoveObject deletes an object from storage
func (s *StorageService) RemoveObject(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}

	return nil
}

// PresignedUploadURL generates a time-limited PUT URL scoped to a single key.
// The client uploads directly to storage; the server never sees the bytes.
func (s *StorageService) PresignedUploadURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.UploadExpireMinutes) * time.Minute
	url, err := s.client.PresignedPutObject(ctx, s.bucket, objectName, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return url.String(), nil
}

// PresignedGetURL generates a presigned GET URL for the object
func (s *StorageService) PresignedGetURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.DownloadExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// Bucket returns the configured bucket name
func (s *StorageService) Bucket() string {
	return s.bucket
}

// GetPublicURL returns a public URL for the object (if bucket policy allows)
func (s *StorageService) GetPublicURL(objectName string) string {
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.config.Endpoint, s.bucket, objectName)
}
