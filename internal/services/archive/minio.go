package archive

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"crashalert-model-service/internal/config"
)

const minioBackend = "minio"

// MinioService stores clips in an S3-compatible bucket under a YYYY-MM-DD
// prefix and hands out presigned GET URLs.
type MinioService struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	now    func() time.Time
}

func NewMinioServiceFromConfig(ctx context.Context, cfg *config.Config) (*MinioService, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &MinioService{
		client: client,
		bucket: cfg.MinioBucket,
		expiry: cfg.MinioURLExpiry,
		now:    time.Now,
	}
	if err := s.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("bucket error: %w", err)
	}

	log.Info().
		Str("endpoint", cfg.MinioEndpoint).
		Str("bucket", cfg.MinioBucket).
		Msg("MinIO archive initialized")
	return s, nil
}

func (s *MinioService) Backend() string { return minioBackend }

func (s *MinioService) ensureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *MinioService) Upload(ctx context.Context, path string) (string, error) {
	key := objectKey(s.now(), path)

	if _, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{
		ContentType: clipContentType,
	}); err != nil {
		return "", &UploadError{Backend: minioBackend, Step: StepUpload, Path: path, Err: err}
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return "", &UploadError{Backend: minioBackend, Step: StepPermission, Path: path, ObjectID: key, Err: err}
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Msg("Clip archived to MinIO")
	return u.String(), nil
}

func objectKey(t time.Time, path string) string {
	return folderName(t) + "/" + filepath.Base(path)
}
