package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

// ReportArchive stores end-of-call reports as JSON objects so they can
// be shared outside the API (CRM sync, coaching review).
type ReportArchive struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewReportArchive creates the archive client and ensures the bucket
// exists
func NewReportArchive(cfg *config.StorageConfig) (*ReportArchive, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	archive := &ReportArchive{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: cfg.PublicURL,
	}

	if err := archive.ensureBucket(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return archive, nil
}

func (a *ReportArchive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func reportObjectName(callID uuid.UUID) string {
	return fmt.Sprintf("reports/%s.json", callID)
}

// ArchiveReport uploads the report as JSON and returns the object name
func (a *ReportArchive) ArchiveReport(ctx context.Context, report *entities.CallReport) (string, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	objectName := reportObjectName(report.CallID)
	_, err = a.client.PutObject(ctx, a.bucket, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}
	return objectName, nil
}

// ReportURL returns a presigned download URL for an archived report.
// When MinIO sits behind a reverse proxy the configured public URL
// replaces the internal endpoint.
func (a *ReportArchive) ReportURL(ctx context.Context, callID uuid.UUID, expiry time.Duration) (string, error) {
	url, err := a.client.PresignedGetObject(ctx, a.bucket, reportObjectName(callID), expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	if a.publicURL != "" {
		urlStr := url.String()
		bucketPos := len(url.Scheme) + 3 + len(url.Host)
		if bucketPos < len(urlStr) {
			return a.publicURL + urlStr[bucketPos:], nil
		}
	}
	return url.String(), nil
}

// ListReports lists archived report object names
func (a *ReportArchive) ListReports(ctx context.Context) ([]string, error) {
	var names []string
	objectCh := a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    "reports/",
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %w", object.Err)
		}
		names = append(names, object.Key)
	}
	return names, nil
}
