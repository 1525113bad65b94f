package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Uploader interface {
	// Upload stores body under key and returns its public URL.
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type UploaderConfig struct {
	Bucket          string
	Endpoint        string // empty for AWS, the account endpoint for R2
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

type s3Uploader struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewUploader(ctx context.Context, cfg UploaderConfig) (Uploader, error) {
	if cfg.Bucket == "" || cfg.PublicBaseURL == "" {
		return nil, errors.New("invalid upload configuration: bucket and public base url are required")
	}
	if _, err := url.Parse(cfg.PublicBaseURL); err != nil {
		return nil, fmt.Errorf("error parsing public base url: %w", err)
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	sdkCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading storage config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

func (u *s3Uploader) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading %s: %w", key, err)
	}
	return PublicURL(u.publicBaseURL, key), nil
}

func PublicURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}

// WorkbookKey returns a new, never reused object key for a season export.
func WorkbookKey(season string) string {
	return fmt.Sprintf("seasons/%s/%s-%s.xlsx", season, season, uuid.NewString())
}
