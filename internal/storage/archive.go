// Package storage archives processed attachments to S3-compatible
// object storage (MinIO in the default deployment).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/homemetrics/backend/internal/config"
	"github.com/homemetrics/backend/internal/scanner"
)

// ArchiveService uploads attachment payloads keyed by the email date
// and original filename so a processed attachment can be re-examined
// later.
type ArchiveService struct {
	client *s3.Client
	bucket string
}

// NewArchiveService creates an archive backed by S3/MinIO.
func NewArchiveService(cfg *config.StorageConfig) (*ArchiveService, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint not configured")
	}

	var endpointURL string
	if strings.HasPrefix(cfg.Endpoint, "http://") || strings.HasPrefix(cfg.Endpoint, "https://") {
		endpointURL = cfg.Endpoint
	} else {
		protocol := "http"
		if cfg.UseSSL {
			protocol = "https"
		}
		endpointURL = protocol + "://" + cfg.Endpoint
	}

	// Path-style addressing is required for MinIO.
	client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		BaseEndpoint: aws.String(endpointURL),
		UsePathStyle: true,
	})

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Store uploads one attachment. The object key embeds the email date so
// repeated exports with the same filename do not collide.
func (a *ArchiveService) Store(ctx context.Context, att scanner.Attachment, emailDate time.Time) (string, error) {
	key := ObjectKey(att.Filename, emailDate)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(att.Content),
		ContentType: aws.String(att.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload attachment %s: %w", key, err)
	}

	return key, nil
}

// ObjectKey builds the storage key for an attachment.
func ObjectKey(filename string, emailDate time.Time) string {
	return emailDate.UTC().Format("20060102_150405") + "_" + filename
}
