// Package cloudflare drives Cloudflare Stream. The locator is the Stream
// video UID.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/learnloop/video-backend/internal/backend"
	"github.com/learnloop/video-backend/internal/config"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/metrics"
	"github.com/learnloop/video-backend/internal/store"
)

const defaultAPIBase = "https://api.cloudflare.com/client/v4"

type Client struct {
	accountID         string
	apiToken          string
	customerSubdomain string
	apiBase           string
	httpClient        *http.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.CFAccountID == "" || cfg.CFAPIToken == "" {
		return nil, fmt.Errorf("CF_ACCOUNT_ID and CF_API_TOKEN must be set for the cloudflare backend")
	}
	return &Client{
		accountID:         cfg.CFAccountID,
		apiToken:          cfg.CFAPIToken,
		customerSubdomain: cfg.CFCustomerSubdomain,
		apiBase:           defaultAPIBase,
		httpClient:        &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) Name() string { return "cloudflare" }

// envelope is the standard Cloudflare API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type directUploadResult struct {
	UID       string `json:"uid"`
	UploadURL string `json:"uploadURL"`
}

type videoResult struct {
	UID      string  `json:"uid"`
	Duration float64 `json:"duration"`
	Status   struct {
		State string `json:"state"`
		// Stream reports the percentage as a decimal string.
		PctComplete string `json:"pctComplete"`
	} `json:"status"`
}

type tokenResult struct {
	Token string `json:"token"`
}

// Provision asks Stream for a one-time direct upload URL.
func (c *Client) Provision(ctx context.Context, params backend.ProvisionParams) (*backend.Provisioned, error) {
	expiry := time.Now().Add(params.UploadTTL)
	body := map[string]interface{}{
		"maxDurationSeconds": 21600,
		"expiry":             expiry.Format(time.RFC3339),
		"meta":               map[string]string{"name": params.Title},
	}

	var result directUploadResult
	err := c.doJSON(ctx, http.MethodPost, c.streamURL("/direct_upload"), body, &result)
	metrics.VendorCalls.WithLabelValues(c.Name(), "provision", callResult(err)).Inc()
	if err != nil {
		return nil, err
	}
	if result.UID == "" || result.UploadURL == "" {
		return nil, app_errors.New(app_errors.CodeVendor, "cloudflare returned an incomplete direct upload result")
	}

	return &backend.Provisioned{
		Locator: result.UID,
		Upload: &backend.UploadSlot{
			URL:       result.UploadURL,
			Method:    http.MethodPost,
			ExpiresAt: expiry,
		},
	}, nil
}

// CompleteUpload is a no-op: the admin client uploads straight to Stream,
// so there is no staged object to measure.
func (c *Client) CompleteUpload(ctx context.Context, locator, storagePath string) (int64, error) {
	return 0, nil
}

// IngestFromURL uses the Stream copy API, which creates the video and
// pulls the source in one call.
func (c *Client) IngestFromURL(ctx context.Context, params backend.ProvisionParams, sourceURL string) (string, error) {
	body := map[string]interface{}{
		"url":  sourceURL,
		"meta": map[string]string{"name": params.Title},
	}

	var result videoResult
	err := c.doJSON(ctx, http.MethodPost, c.streamURL("/copy"), body, &result)
	metrics.VendorCalls.WithLabelValues(c.Name(), "fetch", callResult(err)).Inc()
	if err != nil {
		return "", err
	}
	if result.UID == "" {
		return "", app_errors.New(app_errors.CodeVendor, "cloudflare returned an empty video uid")
	}
	return result.UID, nil
}

func (c *Client) ProbeStatus(ctx context.Context, locator string) (*backend.Status, error) {
	var result videoResult
	err := c.doJSON(ctx, http.MethodGet, c.streamURL("/"+locator), nil, &result)
	metrics.VendorCalls.WithLabelValues(c.Name(), "probe", callResult(err)).Inc()
	if err != nil {
		return nil, err
	}

	status := &backend.Status{}
	if pct, perr := strconv.ParseFloat(result.Status.PctComplete, 64); perr == nil {
		status.Progress = int32(pct)
	}
	switch result.Status.State {
	case "pendingupload":
		status.State = store.StatusPending
	case "downloading", "queued", "inprogress":
		status.State = store.StatusProcessing
	case "ready":
		status.State = store.StatusCompleted
	case "error":
		status.State = store.StatusFailed
	default:
		return nil, app_errors.Newf(app_errors.CodeVendor, "cloudflare returned unknown state %q", result.Status.State)
	}

	if result.Duration > 0 {
		duration := int32(result.Duration)
		status.DurationSeconds = &duration
	}
	return status, nil
}

// PlaybackURL mints a signed playback token and returns the HLS manifest
// URL on the customer subdomain.
func (c *Client) PlaybackURL(ctx context.Context, locator string, ttl time.Duration) (string, error) {
	if c.customerSubdomain == "" {
		return "", app_errors.New(app_errors.CodeVendor, "CF_CUSTOMER_SUBDOMAIN is not configured")
	}

	body := map[string]interface{}{
		"exp": time.Now().Add(ttl).Unix(),
	}

	var result tokenResult
	err := c.doJSON(ctx, http.MethodPost, c.streamURL("/"+locator+"/token"), body, &result)
	metrics.VendorCalls.WithLabelValues(c.Name(), "playback_token", callResult(err)).Inc()
	if err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", app_errors.New(app_errors.CodeVendor, "cloudflare returned an empty playback token")
	}

	return fmt.Sprintf("https://%s/%s/manifest/video.m3u8", c.customerSubdomain, result.Token), nil
}

func (c *Client) Delete(ctx context.Context, locator string) error {
	err := c.doJSON(ctx, http.MethodDelete, c.streamURL("/"+locator), nil, nil)
	metrics.VendorCalls.WithLabelValues(c.Name(), "delete", callResult(err)).Inc()
	return err
}

func (c *Client) streamURL(suffix string) string {
	return fmt.Sprintf("%s/accounts/%s/stream%s", c.apiBase, c.accountID, suffix)
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
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return app_errors.Wrap(app_errors.CodeVendor, "cloudflare request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return app_errors.New(app_errors.CodeNotFound, "cloudflare video not found")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return app_errors.Wrap(app_errors.CodeVendor, "failed to decode cloudflare response", err)
	}
	if !env.Success {
		msg := "unknown error"
		if len(env.Errors) > 0 {
			msg = env.Errors[0].Message
		}
		return app_errors.Newf(app_errors.CodeVendor, "cloudflare returned an error: %s", msg)
	}

	if out != nil && env.Result != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return app_errors.Wrap(app_errors.CodeVendor, "failed to decode cloudflare result", err)
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
