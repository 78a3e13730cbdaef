package store

import "time"

// User is a platform account. Accounts are provisioned by the identity
// system; this service only reads them.
type User struct {
	UserID      string
	Email       *string
	FullName    *string
	IsPremium   bool
	Role        string
	MaxSessions *int32
	CreatedAt   time.Time
}

// Video is one content item. BackendLocator is the vendor-specific opaque
// reference (Bunny GUID, Cloudflare UID or object key) and may be unset while
// ingestion is still in flight.
type Video struct {
	VideoID          string
	Title            string
	Description      *string
	Category         *string
	BackendLocator   *string
	ThumbnailURL     *string
	IsPremium        bool
	ProcessingStatus string
	DurationSeconds  *int32
	ViewCount        int64
	UploadedAt       time.Time
}

// Session is one viewing session. Only sessions with IsActive=true count
// toward the concurrency ceiling.
type Session struct {
	SessionID    string
	UserID       string
	VideoID      *string
	DeviceInfo   *string
	IsActive     bool
	StartedAt    time.Time
	LastActiveAt time.Time
}

// AccessLog is the append-only audit record of a grant issuance.
// IPAddress and UserAgent carry the literal "unknown" when the request
// metadata was absent; they are never empty.
type AccessLog struct {
	AccessID  string
	UserID    string
	VideoID   string
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// AccessLogFilter narrows audit queries.
type AccessLogFilter struct {
	UserID  string
	VideoID string
	From    *time.Time
	To      *time.Time
	Limit   int
}

// UploadRecord tracks a staged file awaiting transfer to the video backend.
// The sweep deletes the staged object before the record.
type UploadRecord struct {
	UploadID       string
	BackendLocator string
	StoragePath    string
	Status         string
	CreatedAt      time.Time
}

// WatchProgress is the per-user playback position for one video.
type WatchProgress struct {
	UserID    string
	VideoID   string
	Position  int64
	UpdatedAt time.Time
}

// SuspiciousActivity records one anomaly heuristic flag.
type SuspiciousActivity struct {
	ActivityID     string
	UserID         string
	VideoID        string
	ActivityType   string
	PositionDelta  float64
	WallClockDelta float64
	Ratio          float64
	Timestamp      time.Time
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	UploadStatusStaged      = "staged"
	UploadStatusTransferred = "transferred"
)
