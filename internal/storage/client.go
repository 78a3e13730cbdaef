package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/learnloop/video-backend/internal/config"
	app_errors "github.com/learnloop/video-backend/internal/errors"
)

// Client wraps the S3-compatible object store holding the video bucket
// (served assets) and the staging bucket (admin uploads in flight).
type Client struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	videoBucket   string
	stagingBucket string
	endpoint      string
}

// NewClient builds the S3 client from static service-account credentials.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.SAKeyID == "" || cfg.SAKey == "" || cfg.VideoBucket == "" || cfg.StagingBucket == "" {
		return nil, fmt.Errorf("object storage credentials and bucket names must be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.SAKeyID, cfg.SAKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
	})

	return &Client{
		s3Client:      client,
		presignClient: s3.NewPresignClient(client),
		videoBucket:   cfg.VideoBucket,
		stagingBucket: cfg.StagingBucket,
		endpoint:      cfg.S3Endpoint,
	}, nil
}

// PresignStagingUpload returns a time-limited PUT URL into the staging
// bucket.
func (c *Client) PresignStagingUpload(ctx context.Context, key, contentType string, lifetime time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.stagingBucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	req, err := c.presignClient.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = lifetime
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignVideoDownload returns a time-limited GET URL for a served asset.
func (c *Client) PresignVideoDownload(ctx context.Context, key string, lifetime time.Duration) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(c.videoBucket),
		Key:    aws.String(key),
	}

	req, err := c.presignClient.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = lifetime
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// StagedObjectSize reports the size in bytes of a staged upload.
func (c *Client) StagedObjectSize(ctx context.Context, key string) (int64, error) {
	head, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.stagingBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, app_errors.New(app_errors.CodeNotFound, "staged object not found")
		}
		return 0, err
	}
	return aws.ToInt64(head.ContentLength), nil
}

// PromoteStagedObject copies a staged upload into the video bucket under
// the destination key.
func (c *Client) PromoteStagedObject(ctx context.Context, stagingKey, destKey string) error {
	copySource := fmt.Sprintf("%s/%s", c.stagingBucket, stagingKey)

	_, err := c.s3Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(c.videoBucket),
		CopySource: aws.String(copySource),
		Key:        aws.String(destKey),
	})
	if err != nil {
		if isNotFound(err) {
			return app_errors.New(app_errors.CodeNotFound, "staged object not found")
		}
		return err
	}
	return nil
}

// DeleteStagedObject removes a staged upload. Deleting a key that is
// already gone succeeds, which is what the sweep relies on.
func (c *Client) DeleteStagedObject(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.stagingBucket),
		Key:    aws.String(key),
	})
	if err != nil && isNotFound(err) {
		return app_errors.New(app_errors.CodeNotFound, "staged object not found")
	}
	return err
}

// DeleteVideoObject removes a served asset.
func (c *Client) DeleteVideoObject(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("object key is required")
	}

	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.videoBucket),
		Key:    aws.String(key),
	})
	return err
}

// VideoObjectExists reports whether the served asset is present.
func (c *Client) VideoObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.videoBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &noSuchKey)
}
