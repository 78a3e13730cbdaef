package http

import "time"

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// GrantResponse carries the issued playback credential.
type GrantResponse struct {
	Token       string    `json:"token"`
	PlaybackURL string    `json:"playbackUrl"`
	VideoID     string    `json:"videoId"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ValidateGrantRequest presents a grant for validation.
type ValidateGrantRequest struct {
	Token string `json:"token"`
}

// ValidateGrantResponse is the decoded grant state. An invalid grant is a
// normal 200 outcome with Valid=false and Error set; transport errors are
// reserved for malformed requests.
type ValidateGrantResponse struct {
	Valid     bool       `json:"valid"`
	UserID    string     `json:"userId,omitempty"`
	VideoID   string     `json:"videoId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// CreateVideoRequest creates a content item. Either filename/contentType
// (direct upload) or sourceUrl (vendor pull) must be set.
type CreateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	IsPremium   bool   `json:"isPremium"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	SourceURL   string `json:"sourceUrl,omitempty"`
}

// CreateVideoResponse returns the new item and, for direct uploads, the
// time-limited upload slot.
type CreateVideoResponse struct {
	VideoID       string            `json:"videoId"`
	UploadID      string            `json:"uploadId,omitempty"`
	UploadURL     string            `json:"uploadUrl,omitempty"`
	UploadMethod  string            `json:"uploadMethod,omitempty"`
	UploadHeaders map[string]string `json:"uploadHeaders,omitempty"`
	UploadExpires *time.Time        `json:"uploadExpires,omitempty"`
}

// ConfirmUploadRequest reports a finished direct upload.
type ConfirmUploadRequest struct {
	UploadID string `json:"uploadId,omitempty"`
}

// ConfirmUploadResponse acknowledges the transfer. Size is the staged
// object size in bytes; zero when the vendor ingested the bytes directly.
type ConfirmUploadResponse struct {
	VideoID string `json:"videoId"`
	Status  string `json:"status"`
	Size    int64  `json:"size"`
}

// VideoResponse is one catalog entry.
type VideoResponse struct {
	VideoID          string    `json:"videoId"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	ThumbnailURL     string    `json:"thumbnailUrl,omitempty"`
	IsPremium        bool      `json:"isPremium"`
	ProcessingStatus string    `json:"processingStatus"`
	DurationSeconds  *int32    `json:"durationSeconds,omitempty"`
	ViewCount        int64     `json:"viewCount"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

// VideoListResponse pages the catalog.
type VideoListResponse struct {
	Videos []VideoResponse `json:"videos"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// StatusResponse is the normalized processing state. Progress is the
// vendor's transcode percentage, 0-100.
type StatusResponse struct {
	VideoID         string `json:"videoId"`
	Status          string `json:"status"`
	Progress        int32  `json:"progress"`
	DurationSeconds *int32 `json:"durationSeconds,omitempty"`
}

// StartSessionRequest opens a viewing session.
type StartSessionRequest struct {
	VideoID    string `json:"videoId,omitempty"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
}

// SessionResponse describes one session.
type SessionResponse struct {
	SessionID    string    `json:"sessionId"`
	UserID       string    `json:"userId"`
	VideoID      string    `json:"videoId,omitempty"`
	IsActive     bool      `json:"isActive"`
	StartedAt    time.Time `json:"startedAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// ProgressRequest reports a playback position, in seconds.
type ProgressRequest struct {
	Position int64 `json:"position"`
}

// ProgressResponse acknowledges a progress update.
type ProgressResponse struct {
	Position int64 `json:"position"`
	Flagged  bool  `json:"flagged"`
}

// AccessLogEntry is one audit record in the admin log view.
type AccessLogEntry struct {
	AccessID  string    `json:"accessId"`
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId"`
	Timestamp time.Time `json:"timestamp"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
}

// AccessLogListResponse is the admin log view page.
type AccessLogListResponse struct {
	Entries []AccessLogEntry `json:"entries"`
}

// SweepResponse summarizes one sweep run.
type SweepResponse struct {
	Examined int `json:"examined"`
	Swept    int `json:"swept"`
	Errors   int `json:"errors"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
