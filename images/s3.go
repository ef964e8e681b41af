// Package images hands out presigned upload URLs so clients can put card
// images straight into S3-compatible object storage.
package images

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/andrewpaige1/memocards-api/config"
)

const UploadExpiry = 15 * time.Minute

var ErrUnsupportedType = errors.New("unsupported image content type")

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Upload is a presigned PUT target and the URL the object is served from.
type Upload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	URL       string `json:"url"`
}

type Presigner struct {
	client  *s3.PresignClient
	bucket  string
	baseURL string
}

func NewPresigner(ctx context.Context, cfg config.S3Config) (*Presigner, error) {
	if !cfg.Enabled() {
		return nil, errors.New("S3 bucket not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Presigner{
		client:  s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg),
	}, nil
}

// PresignUpload returns a presigned PUT for a new object under the owner's
// prefix.
func (p *Presigner) PresignUpload(ctx context.Context, owner, contentType string) (Upload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := extensions[contentType]
	if !ok {
		return Upload{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	id, err := gonanoid.New()
	if err != nil {
		return Upload{}, fmt.Errorf("failed to generate object key: %w", err)
	}
	key := fmt.Sprintf("cards/%s/%s.%s", owner, id, ext)

	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadExpiry))
	if err != nil {
		return Upload{}, fmt.Errorf("failed to presign upload: %w", err)
	}

	return Upload{Key: key, UploadURL: req.URL, URL: p.baseURL + "/" + key}, nil
}

func publicBaseURL(cfg config.S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}
