package service

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/svanhaverbeke/offerbuilder/config"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ArchiveService uploads finished offer documents to MinIO for long-term
// storage.
type ArchiveService struct {
	client *minio.Client
	bucket string
	config *config.Minio
}

func NewArchiveService(cfg *config.Minio) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the archive bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
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

// ArchiveOffer uploads a generated offer file under its filename
func (s *ArchiveService) ArchiveOffer(ctx context.Context, filename, path string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, filename, path, minio.PutObjectOptions{
		ContentType: docxContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive offer: %w", err)
	}

	return nil
}

// PresignedDownloadURL generates a presigned URL for an archived offer
func (s *ArchiveService) PresignedDownloadURL(ctx context.Context, filename string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, filename, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteArchived removes an archived offer from MinIO
func (s *ArchiveService) DeleteArchived(ctx context.Context, filename string) error {
	err := s.client.RemoveObject(ctx, s.bucket, filename, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete archived offer: %w", err)
	}

	return nil
}
