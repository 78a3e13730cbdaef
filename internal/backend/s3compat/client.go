// Package s3compat drives any S3-compatible object store (Object Storage,
// R2, GCS interop). There is no vendor transcode pipeline: the uploaded
// file is served as-is and the locator is its object key in the video
// bucket.
package s3compat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/video-backend/internal/backend"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/metrics"
	"github.com/learnloop/video-backend/internal/storage"
	"github.com/learnloop/video-backend/internal/store"
)

type Client struct {
	storage *storage.Client
}

func NewClient(storageClient *storage.Client) *Client {
	return &Client{storage: storageClient}
}

func (c *Client) Name() string { return "s3" }

// Provision reserves an object key and presigns a staging upload. The
// bytes reach the video bucket only on CompleteUpload.
func (c *Client) Provision(ctx context.Context, params backend.ProvisionParams) (*backend.Provisioned, error) {
	id := uuid.New().String()
	locator := fmt.Sprintf("videos/%s/%s", id, params.Filename)
	stagingKey := fmt.Sprintf("staging/%s/%s", id, params.Filename)

	uploadURL, err := c.storage.PresignStagingUpload(ctx, stagingKey, params.ContentType, params.UploadTTL)
	metrics.VendorCalls.WithLabelValues(c.Name(), "provision", callResult(err)).Inc()
	if err != nil {
		return nil, app_errors.Wrap(app_errors.CodeVendor, "failed to presign staging upload", err)
	}

	return &backend.Provisioned{
		Locator: locator,
		Upload: &backend.UploadSlot{
			URL:         uploadURL,
			Method:      "PUT",
			Headers:     map[string]string{"Content-Type": params.ContentType},
			ExpiresAt:   time.Now().Add(params.UploadTTL),
			StoragePath: stagingKey,
		},
	}, nil
}

// CompleteUpload promotes the staged object into the video bucket and
// drops the staged copy. The returned size is the staged object's.
func (c *Client) CompleteUpload(ctx context.Context, locator, storagePath string) (int64, error) {
	if storagePath == "" {
		return 0, app_errors.New(app_errors.CodeInvalidArgument, "storage path is required")
	}

	size, err := c.storage.StagedObjectSize(ctx, storagePath)
	if err != nil {
		return 0, err
	}

	err = c.storage.PromoteStagedObject(ctx, storagePath, locator)
	metrics.VendorCalls.WithLabelValues(c.Name(), "promote", callResult(err)).Inc()
	if err != nil {
		return 0, err
	}

	// The staged copy is garbage now; the sweep would catch it anyway.
	if err := c.storage.DeleteStagedObject(ctx, storagePath); err != nil && !app_errors.Is(err, app_errors.CodeNotFound) {
		return 0, err
	}
	return size, nil
}

// IngestFromURL is not supported: a plain object store cannot pull from a
// remote URL.
func (c *Client) IngestFromURL(ctx context.Context, params backend.ProvisionParams, sourceURL string) (string, error) {
	return "", app_errors.New(app_errors.CodeInvalidArgument, "the s3 backend does not support URL ingestion")
}

// ProbeStatus reports completed once the object is present in the video
// bucket. There is no transcode pipeline, so nothing ever reads as
// processing or failed here.
func (c *Client) ProbeStatus(ctx context.Context, locator string) (*backend.Status, error) {
	exists, err := c.storage.VideoObjectExists(ctx, locator)
	metrics.VendorCalls.WithLabelValues(c.Name(), "probe", callResult(err)).Inc()
	if err != nil {
		return nil, app_errors.Wrap(app_errors.CodeVendor, "failed to probe video object", err)
	}

	if exists {
		return &backend.Status{State: store.StatusCompleted, Progress: 100}, nil
	}
	return &backend.Status{State: store.StatusPending}, nil
}

func (c *Client) PlaybackURL(ctx context.Context, locator string, ttl time.Duration) (string, error) {
	url, err := c.storage.PresignVideoDownload(ctx, locator, ttl)
	metrics.VendorCalls.WithLabelValues(c.Name(), "playback_url", callResult(err)).Inc()
	if err != nil {
		return "", app_errors.Wrap(app_errors.CodeVendor, "failed to presign playback url", err)
	}
	return url, nil
}

func (c *Client) Delete(ctx context.Context, locator string) error {
	err := c.storage.DeleteVideoObject(ctx, locator)
	metrics.VendorCalls.WithLabelValues(c.Name(), "delete", callResult(err)).Inc()
	if err != nil {
		return app_errors.Wrap(app_errors.CodeVendor, "failed to delete video object", err)
	}
	return nil
}

func callResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
