package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

// Compile-time check to ensure minioMediaStore implements MediaStore
var _ interfaces.MediaStore = (*minioMediaStore)(nil)

// minioMediaStore складывает сгенерированное медиа в объектное хранилище
// и отдаёт публичные URL.
type minioMediaStore struct {
	logger    *zap.Logger
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioMediaStore создает хранилище медиа поверх MinIO и проверяет,
// что бакет существует.
func NewMinioMediaStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.MediaStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created media bucket", zap.String("bucket", cfg.MinioBucket))
	}

	publicURL := cfg.MinioPublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket)
	}

	return &minioMediaStore{
		logger:    logger.Named("MinioMediaStore"),
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Store записывает объект и возвращает его публичный URL.
func (s *minioMediaStore) Store(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("Failed to store media object", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: failed to store object %q: %v", models.ErrStorageUnavailable, key, err)
	}

	url := s.publicURL + "/" + key
	s.logger.Debug("Media object stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return url, nil
}
