// Package media stores uploaded files on an S3-compatible object host
// and hands back public URLs.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Object identifies a stored file. ID is the object key, URL is where
// the public can fetch it.
type Object struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Host is the storage surface the upload handler needs.
type Host interface {
	Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (Object, error)
	Move(ctx context.Context, id, folder string) (Object, error)
	Delete(ctx context.Context, id string) error
}

// S3Config carries the connection settings for an S3-compatible host.
// Endpoint is optional; when set it points at a non-AWS provider
// (MinIO, DigitalOcean Spaces and the like).
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	PublicURL string
}

// S3Host implements Host against any S3-compatible API.
type S3Host struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Host builds the client with static credentials and an optional
// custom endpoint.
func NewS3Host(ctx context.Context, cfg S3Config) (*S3Host, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Host{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// Upload streams the body to <folder>/<uuid><ext>. The original filename
// only contributes its extension; the key itself is random so uploads
// can never collide or be guessed.
func (h *S3Host) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (Object, error) {
	key := folder + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return h.object(key), nil
}

// Move copies the object into another folder and deletes the original.
// S3 has no rename, so this is copy-then-delete.
func (h *S3Host) Move(ctx context.Context, id, folder string) (Object, error) {
	newKey := folder + "/" + path.Base(id)
	_, err := h.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(h.bucket),
		CopySource: aws.String(h.bucket + "/" + id),
		Key:        aws.String(newKey),
	})
	if err != nil {
		return Object{}, fmt.Errorf("copy object %s: %w", id, err)
	}
	if err := h.Delete(ctx, id); err != nil {
		return Object{}, err
	}
	return h.object(newKey), nil
}

// Delete removes an object. Deleting a missing key succeeds, which keeps
// the call idempotent.
func (h *S3Host) Delete(ctx context.Context, id string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}

func (h *S3Host) object(key string) Object {
	return Object{ID: key, URL: h.publicURL + "/" + key}
}
