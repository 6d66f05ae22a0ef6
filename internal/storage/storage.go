// Package storage issues presigned upload URLs for post and story media.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	PresignExpiry = 15 * time.Minute
	MaxUploadSize = 10 * 1024 * 1024
)

var allowedTypes = []string{"image/", "video/"}

type Storage struct {
	client     *minio.Client
	bucketName string
	useSSL     bool
}

func NewStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{client: client, bucketName: bucketName, useSSL: useSSL}, nil
}

// AllowedContentType accepts image and video uploads only.
func AllowedContentType(contentType string) bool {
	for _, prefix := range allowedTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

// ObjectKey places an upload under the owner's prefix. Only the base name
// of fileName is kept.
func ObjectKey(ownerID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	owner := strings.NewReplacer("/", "_", "\\", "_").Replace(ownerID)
	return fmt.Sprintf("uploads/%s/%s-%s", owner, uuid.New().String(), name)
}

func (s *Storage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string) (string, error) {
	if !AllowedContentType(contentType) {
		return "", fmt.Errorf("content type %s not allowed", contentType)
	}

	presignedURL, err := s.client.PresignedPutObject(ctx, s.bucketName, objectKey, PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL.String(), nil
}

func (s *Storage) GetObjectURL(objectKey string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucketName, objectKey)
}

func (s *Storage) Ping(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	if _, err := s.client.BucketExists(ctx, s.bucketName); err != nil {
		return fmt.Errorf("failed to reach bucket: %w", err)
	}
	return nil
}
