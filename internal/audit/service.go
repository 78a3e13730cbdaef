package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/store"
)

// UnknownSentinel is stored when request metadata is absent. The audit
// columns never hold an empty string.
const UnknownSentinel = "unknown"

// Service records and reads the access audit trail. One entry per issued
// grant, written synchronously before the grant leaves the process.
type Service struct {
	db  store.Database
	log *slog.Logger
}

func NewService(db store.Database, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, log: log}
}

// RecordAccess stores one grant-issuance entry.
func (s *Service) RecordAccess(ctx context.Context, userID, videoID, ipAddress, userAgent string) error {
	if userID == "" || videoID == "" {
		return app_errors.New(app_errors.CodeInvalidArgument, "user id and video id are required")
	}
	if ipAddress == "" {
		ipAddress = UnknownSentinel
	}
	if userAgent == "" {
		userAgent = UnknownSentinel
	}

	entry := &store.AccessLog{
		AccessID:  uuid.New().String(),
		UserID:    userID,
		VideoID:   videoID,
		Timestamp: time.Now().UTC(),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := s.db.CreateAccessLog(ctx, entry); err != nil {
		s.log.Error("failed to write access log", "user_id", userID, "video_id", videoID, "error", err)
		return err
	}
	return nil
}

// ListAccess reads audit entries for the admin log view.
func (s *Service) ListAccess(ctx context.Context, filter *store.AccessLogFilter) ([]*store.AccessLog, error) {
	if filter == nil {
		filter = &store.AccessLogFilter{}
	}
	return s.db.ListAccessLogs(ctx, filter)
}
