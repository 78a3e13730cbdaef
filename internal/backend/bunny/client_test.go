package bunny

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/learnloop/video-backend/internal/backend"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/store"
	"github.com/stretchr/testify/assert"
)

func newTestClient(apiBase string) *Client {
	return &Client{
		libraryID:   "42",
		apiKey:      "key",
		cdnHostname: "vz-test.b-cdn.net",
		apiBase:     apiBase,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestClient_Provision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/library/42/videos", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("AccessKey"))
		_ = json.NewEncoder(w).Encode(map[string]string{"guid": "guid-123"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	provisioned, err := c.Provision(context.Background(), provisionParams("Lesson 1"))

	assert.NoError(t, err)
	assert.Equal(t, "guid-123", provisioned.Locator)
	assert.Equal(t, "PUT", provisioned.Upload.Method)
	assert.Contains(t, provisioned.Upload.URL, "/library/42/videos/guid-123")
	assert.Equal(t, "key", provisioned.Upload.Headers["AccessKey"])
}

func TestClient_ProbeStatus_Mapping(t *testing.T) {
	cases := []struct {
		vendor int
		want   string
	}{
		{statusQueued, store.StatusPending},
		{statusUploaded, store.StatusPending},
		{statusProcessing, store.StatusProcessing},
		{statusTranscoding, store.StatusProcessing},
		{statusFinished, store.StatusCompleted},
		{statusError, store.StatusFailed},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("vendor_%d", tc.vendor), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"guid": "guid-123", "status": tc.vendor, "length": 120, "encodeProgress": 65,
				})
			}))
			defer srv.Close()

			c := newTestClient(srv.URL)
			status, err := c.ProbeStatus(context.Background(), "guid-123")

			assert.NoError(t, err)
			assert.Equal(t, tc.want, status.State)
			assert.Equal(t, int32(65), status.Progress)
			assert.Equal(t, int32(120), *status.DurationSeconds)
		})
	}
}

func TestClient_ProbeStatus_UnknownCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"guid": "guid-123", "status": 9})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	status, err := c.ProbeStatus(context.Background(), "guid-123")

	assert.Nil(t, status)
	assert.True(t, app_errors.Is(err, app_errors.CodeVendor))
}

func TestClient_ProbeStatus_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ProbeStatus(context.Background(), "guid-missing")

	assert.True(t, app_errors.Is(err, app_errors.CodeNotFound))
}

func TestClient_PlaybackURL_Unsigned(t *testing.T) {
	c := newTestClient("http://unused")

	url, err := c.PlaybackURL(context.Background(), "guid-123", time.Hour)

	assert.NoError(t, err)
	assert.Equal(t, "https://vz-test.b-cdn.net/guid-123/playlist.m3u8", url)
}

func TestClient_PlaybackURL_Signed(t *testing.T) {
	c := newTestClient("http://unused")
	c.tokenKey = "token-key"

	url, err := c.PlaybackURL(context.Background(), "guid-123", time.Hour)

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://vz-test.b-cdn.net/guid-123/playlist.m3u8?token="))
	assert.Contains(t, url, "&expires=")
}

func provisionParams(title string) backend.ProvisionParams {
	return backend.ProvisionParams{
		Title:       title,
		Filename:    "lesson.mp4",
		ContentType: "video/mp4",
		UploadTTL:   time.Hour,
	}
}
