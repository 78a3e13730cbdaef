// Package sweep implements the scheduled cleanup tasks. Both sweeps are
// per-record fault isolated: one bad record is counted and skipped, the
// rest of the batch still runs.
package sweep

import (
	"context"
	"log/slog"
	"time"

	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/metrics"
	"github.com/learnloop/video-backend/internal/models"
	"github.com/learnloop/video-backend/internal/store"
)

// StagedObjectDeleter is the slice of the storage client the upload sweep
// needs.
type StagedObjectDeleter interface {
	DeleteStagedObject(ctx context.Context, key string) error
}

type Service struct {
	db             store.Database
	storage        StagedObjectDeleter
	sessionTimeout time.Duration
	stagingWindow  time.Duration
	log            *slog.Logger
}

func NewService(db store.Database, storageClient StagedObjectDeleter, sessionTimeout, stagingWindow time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:             db,
		storage:        storageClient,
		sessionTimeout: sessionTimeout,
		stagingWindow:  stagingWindow,
		log:            log,
	}
}

// SweepSessions deactivates active sessions whose heartbeat went quiet
// for longer than the session timeout.
func (s *Service) SweepSessions(ctx context.Context) (*models.SweepReport, error) {
	cutoff := time.Now().UTC().Add(-s.sessionTimeout)

	stale, err := s.db.ListActiveSessionsIdleSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	report := &models.SweepReport{Examined: len(stale)}
	for _, session := range stale {
		if err := s.db.DeactivateSession(ctx, session.SessionID); err != nil {
			s.log.Error("failed to deactivate stale session", "session_id", session.SessionID, "error", err)
			metrics.SweepErrors.WithLabelValues("sessions").Inc()
			report.Errors++
			continue
		}
		metrics.SessionsSwept.Inc()
		report.Swept++
	}

	s.log.Info("session sweep finished", "examined", report.Examined, "swept", report.Swept, "errors", report.Errors)
	return report, nil
}

// SweepUploads removes staging records older than the staging window:
// staged object first, record second. A record whose object is already
// gone still gets cleaned up; any other storage failure keeps the record
// for the next run.
func (s *Service) SweepUploads(ctx context.Context) (*models.SweepReport, error) {
	cutoff := time.Now().UTC().Add(-s.stagingWindow)

	records, err := s.db.ListUploadRecordsOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	report := &models.SweepReport{Examined: len(records)}
	for _, record := range records {
		if record.StoragePath != "" && s.storage != nil {
			err := s.storage.DeleteStagedObject(ctx, record.StoragePath)
			if err != nil && !app_errors.Is(err, app_errors.CodeNotFound) {
				s.log.Error("failed to delete staged object", "upload_id", record.UploadID, "path", record.StoragePath, "error", err)
				metrics.SweepErrors.WithLabelValues("uploads").Inc()
				report.Errors++
				continue
			}
		}

		if err := s.db.DeleteUploadRecord(ctx, record.UploadID); err != nil {
			s.log.Error("failed to delete staging record", "upload_id", record.UploadID, "error", err)
			metrics.SweepErrors.WithLabelValues("uploads").Inc()
			report.Errors++
			continue
		}
		metrics.UploadsSwept.Inc()
		report.Swept++
	}

	s.log.Info("upload sweep finished", "examined", report.Examined, "swept", report.Swept, "errors", report.Errors)
	return report, nil
}
