// Package bunny drives Bunny Stream. The locator is the Bunny video GUID.
package bunny

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/learnloop/video-backend/internal/backend"
	"github.com/learnloop/video-backend/internal/config"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/metrics"
	"github.com/learnloop/video-backend/internal/store"
)

const defaultAPIBase = "https://video.bunnycdn.com"

// Vendor processing codes.
const (
	statusQueued      = 0
	statusUploaded    = 1
	statusProcessing  = 2
	statusTranscoding = 3
	statusFinished    = 4
	statusError       = 5
)

type Client struct {
	libraryID   string
	apiKey      string
	cdnHostname string
	tokenKey    string
	apiBase     string
	httpClient  *http.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.BunnyLibraryID == "" || cfg.BunnyAPIKey == "" {
		return nil, fmt.Errorf("BUNNY_LIBRARY_ID and BUNNY_API_KEY must be set for the bunny backend")
	}
	return &Client{
		libraryID:   cfg.BunnyLibraryID,
		apiKey:      cfg.BunnyAPIKey,
		cdnHostname: cfg.BunnyCDNHostname,
		tokenKey:    cfg.BunnyTokenAuthKey,
		apiBase:     defaultAPIBase,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) Name() string { return "bunny" }

type createVideoResponse struct {
	GUID string `json:"guid"`
}

type videoResponse struct {
	GUID           string `json:"guid"`
	Status         int    `json:"status"`
	Length         int32  `json:"length"`
	EncodeProgress int32  `json:"encodeProgress"`
}

// Provision creates the library entry; the upload slot is a direct PUT to
// the same video resource authenticated with the library key.
func (c *Client) Provision(ctx context.Context, params backend.ProvisionParams) (*backend.Provisioned, error) {
	var created createVideoResponse
	err := c.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/library/%s/videos", c.apiBase, c.libraryID),
		map[string]string{"title": params.Title},
		&created,
	)
	metrics.VendorCalls.WithLabelValues(c.Name(), "provision", callResult(err)).Inc()
	if err != nil {
		return nil, err
	}
	if created.GUID == "" {
		return nil, app_errors.New(app_errors.CodeVendor, "bunny returned an empty video guid")
	}

	return &backend.Provisioned{
		Locator: created.GUID,
		Upload: &backend.UploadSlot{
			URL:    fmt.Sprintf("%s/library/%s/videos/%s", c.apiBase, c.libraryID, created.GUID),
			Method: http.MethodPut,
			Headers: map[string]string{
				"AccessKey":    c.apiKey,
				"Content-Type": params.ContentType,
			},
			ExpiresAt: time.Now().Add(params.UploadTTL),
		},
	}, nil
}

// CompleteUpload is a no-op: the admin client uploads straight to Bunny,
// so there is no staged object to measure.
func (c *Client) CompleteUpload(ctx context.Context, locator, storagePath string) (int64, error) {
	return 0, nil
}

// IngestFromURL creates the library entry and asks Bunny to pull the
// source itself.
func (c *Client) IngestFromURL(ctx context.Context, params backend.ProvisionParams, sourceURL string) (string, error) {
	provisioned, err := c.Provision(ctx, params)
	if err != nil {
		return "", err
	}

	err = c.doJSON(ctx, http.MethodPost,
		fmt.Sprintf("%s/library/%s/videos/%s/fetch", c.apiBase, c.libraryID, provisioned.Locator),
		map[string]string{"url": sourceURL},
		nil,
	)
	metrics.VendorCalls.WithLabelValues(c.Name(), "fetch", callResult(err)).Inc()
	if err != nil {
		return "", err
	}
	return provisioned.Locator, nil
}

func (c *Client) ProbeStatus(ctx context.Context, locator string) (*backend.Status, error) {
	var video videoResponse
	err := c.doJSON(ctx, http.MethodGet,
		fmt.Sprintf("%s/library/%s/videos/%s", c.apiBase, c.libraryID, locator),
		nil,
		&video,
	)
	metrics.VendorCalls.WithLabelValues(c.Name(), "probe", callResult(err)).Inc()
	if err != nil {
		return nil, err
	}

	status := &backend.Status{Progress: video.EncodeProgress}
	switch video.Status {
	case statusQueued, statusUploaded:
		status.State = store.StatusPending
	case statusProcessing, statusTranscoding:
		status.State = store.StatusProcessing
	case statusFinished:
		status.State = store.StatusCompleted
	case statusError:
		status.State = store.StatusFailed
	default:
		return nil, app_errors.Newf(app_errors.CodeVendor, "bunny returned unknown status code %d", video.Status)
	}

	if video.Length > 0 {
		length := video.Length
		status.DurationSeconds = &length
	}
	return status, nil
}

// PlaybackURL builds the CDN playlist URL, token-signed when a token auth
// key is configured.
func (c *Client) PlaybackURL(ctx context.Context, locator string, ttl time.Duration) (string, error) {
	if c.cdnHostname == "" {
		return "", app_errors.New(app_errors.CodeVendor, "BUNNY_CDN_HOSTNAME is not configured")
	}

	base := fmt.Sprintf("https://%s/%s/playlist.m3u8", c.cdnHostname, locator)
	if c.tokenKey == "" {
		return base, nil
	}

	expires := time.Now().Add(ttl).Unix()
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%s%d", c.tokenKey, locator, expires)))
	token := base64.RawURLEncoding.EncodeToString(sum[:])
	return fmt.Sprintf("%s?token=%s&expires=%d", base, token, expires), nil
}

func (c *Client) Delete(ctx context.Context, locator string) error {
	err := c.doJSON(ctx, http.MethodDelete,
		fmt.Sprintf("%s/library/%s/videos/%s", c.apiBase, c.libraryID, locator),
		nil,
		nil,
	)
	metrics.VendorCalls.WithLabelValues(c.Name(), "delete", callResult(err)).Inc()
	return err
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("AccessKey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return app_errors.Wrap(app_errors.CodeVendor, "bunny request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return app_errors.New(app_errors.CodeNotFound, "bunny video not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return app_errors.Newf(app_errors.CodeVendor, "bunny returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return app_errors.Wrap(app_errors.CodeVendor, "failed to decode bunny response", err)
		}
	}
	return nil
}

func callResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
