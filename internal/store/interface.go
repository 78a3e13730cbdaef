package store

import (
	"context"
	"time"
)

// Database is the document-store surface the services depend on. The YDB
// client implements it; tests substitute hand-written mocks.
type Database interface {
	// Users (read-only here; accounts are provisioned externally)
	GetUser(ctx context.Context, userID string) (*User, error)

	// Videos
	CreateVideo(ctx context.Context, video *Video) error
	GetVideo(ctx context.Context, videoID string) (*Video, error)
	ListVideos(ctx context.Context, limit, offset int) ([]*Video, error)
	UpdateVideoStatus(ctx context.Context, videoID, status string, durationSeconds *int32) error
	IncrementViewCount(ctx context.Context, videoID string) error

	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	CountActiveSessions(ctx context.Context, userID string) (int, error)
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
	DeactivateSession(ctx context.Context, sessionID string) error
	ListActiveSessionsIdleSince(ctx context.Context, cutoff time.Time) ([]*Session, error)

	// Access audit
	CreateAccessLog(ctx context.Context, entry *AccessLog) error
	ListAccessLogs(ctx context.Context, filter *AccessLogFilter) ([]*AccessLog, error)

	// Upload staging
	CreateUploadRecord(ctx context.Context, record *UploadRecord) error
	GetUploadRecord(ctx context.Context, uploadID string) (*UploadRecord, error)
	ListUploadRecordsOlderThan(ctx context.Context, cutoff time.Time) ([]*UploadRecord, error)
	DeleteUploadRecord(ctx context.Context, uploadID string) error

	// Watch progress / anomaly
	GetWatchProgress(ctx context.Context, userID, videoID string) (*WatchProgress, error)
	PutWatchProgress(ctx context.Context, progress *WatchProgress) error
	CreateSuspiciousActivity(ctx context.Context, activity *SuspiciousActivity) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
