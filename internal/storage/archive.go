// Package storage archives finished brackets to S3 compatible object storage
// such as Cloudflare R2 or MinIO.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/AdamBeresnev/hackathon-judging/internal/bracket"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("archive storage is not configured")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// Uploader is the object storage the archive writes to.
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type s3Uploader struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

func NewS3Uploader(ctx context.Context, cfg S3Config) (Uploader, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("invalid archive configuration: access key and secret are required")
	}
	region := cfg.Region
	if region == "" {
		// R2 signs with the "auto" region
		region = "auto"
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Uploader{client: client, bucket: cfg.Bucket, publicBaseURL: cfg.PublicBaseURL}, nil
}

func (u *s3Uploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	result, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object (key: %s): %w", key, err)
	}

	etag := ""
	if result.ETag != nil {
		etag = strings.Trim(*result.ETag, "\"")
	}
	return &UploadResult{Key: key, Location: publicURL(u.publicBaseURL, key), ETag: etag}, nil
}

func (u *s3Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object (key: %s): %w", key, err)
	}
	return nil
}

func publicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return ""
	}
	return u.JoinPath(strings.TrimPrefix(key, "/")).String()
}

// Archiver stores bracket snapshots of archived rounds.
type Archiver struct {
	uploader Uploader
}

func NewArchiver(uploader Uploader) *Archiver {
	return &Archiver{uploader: uploader}
}

func BracketKey(roundID uuid.UUID) string {
	return "brackets/" + roundID.String() + ".json"
}

func (a *Archiver) ArchiveBracket(ctx context.Context, roundID uuid.UUID, b bracket.Bracket) (*UploadResult, error) {
	if a == nil || a.uploader == nil {
		return nil, ErrNotConfigured
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket: %w", err)
	}
	return a.uploader.Upload(ctx, BracketKey(roundID), "application/json", bytes.NewReader(data))
}

func (a *Archiver) DeleteBracket(ctx context.Context, roundID uuid.UUID) error {
	if a == nil || a.uploader == nil {
		return ErrNotConfigured
	}
	return a.uploader.Delete(ctx, BracketKey(roundID))
}
