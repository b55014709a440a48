// Package storage publishes composed post images to S3-compatible object
// storage so the API can hand back a shareable URL.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"propshot/config"
)

// Publisher stores a composed JPEG and returns its public URL. A nil-safe
// NoOpPublisher covers deployments without object storage configured.
type Publisher interface {
	PublishPost(ctx context.Context, sessionID string, jpeg []byte) (string, error)
}

type S3Publisher struct {
	client *s3.Client
	cfg    config.S3Config
}

func NewS3Publisher(ctx context.Context, cfg config.S3Config) (*S3Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Publisher{client: client, cfg: cfg}, nil
}

// PublishPost writes the JPEG under posts/<session>/<content hash>.jpg.
// Content addressing makes re-publishing the same render idempotent.
func (p *S3Publisher) PublishPost(ctx context.Context, sessionID string, jpeg []byte) (string, error) {
	sum := sha256.Sum256(jpeg)
	key := fmt.Sprintf("posts/%s/%s.jpg", sessionID, hex.EncodeToString(sum[:8]))

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jpeg),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return p.publicURL(key), nil
}

func (p *S3Publisher) publicURL(key string) string {
	if p.cfg.Endpoint != "" && strings.Contains(p.cfg.Endpoint, "digitaloceanspaces.com") {
		// DO Spaces: https://{bucket}.{region}.digitaloceanspaces.com/{key}
		host := strings.TrimPrefix(p.cfg.Endpoint, "https://")
		return fmt.Sprintf("https://%s.%s/%s", p.cfg.Bucket, host, key)
	}
	// AWS S3: https://{bucket}.s3.{region}.amazonaws.com/{key}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, key)
}

// NoOpPublisher is used when no bucket is configured. Generation still works;
// the response just carries no published URL.
type NoOpPublisher struct{}

func (NoOpPublisher) PublishPost(context.Context, string, []byte) (string, error) {
	return "", nil
}
