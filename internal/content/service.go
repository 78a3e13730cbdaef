// Package content handles admin ingestion and processing status.
package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/learnloop/video-backend/internal/backend"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/models"
	"github.com/learnloop/video-backend/internal/notify"
	"github.com/learnloop/video-backend/internal/store"
	"github.com/learnloop/video-backend/internal/validation"
)

type Service struct {
	db           store.Database
	videoBackend backend.VideoBackend
	notify       *notify.Client
	uploadTTL    time.Duration
	log          *slog.Logger
}

func NewService(db store.Database, videoBackend backend.VideoBackend, notifyClient *notify.Client, uploadTTL time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:           db,
		videoBackend: videoBackend,
		notify:       notifyClient,
		uploadTTL:    uploadTTL,
		log:          log,
	}
}

// CreateParams describe a new content item. Exactly one of
// (Filename, ContentType) or SourceURL drives the ingestion path.
type CreateParams struct {
	Title       string
	Description string
	Category    string
	IsPremium   bool
	Filename    string
	ContentType string
	SourceURL   string
}

// CreateContent provisions the vendor container first and writes the
// catalog record second, so a catalog entry always points at a locator
// that exists. A failed catalog write leaves the vendor container as an
// orphan; it is never rolled back inline, only reconciled by polling.
func (s *Service) CreateContent(ctx context.Context, params CreateParams) (*models.CreatedContent, error) {
	if err := validation.ValidateTitle(params.Title); err != nil {
		return nil, app_errors.Wrap(app_errors.CodeInvalidArgument, err.Error(), err)
	}
	if err := validation.ValidateDescription(params.Description); err != nil {
		return nil, app_errors.Wrap(app_errors.CodeInvalidArgument, err.Error(), err)
	}

	provisionParams := backend.ProvisionParams{
		Title:       params.Title,
		Filename:    params.Filename,
		ContentType: params.ContentType,
		UploadTTL:   s.uploadTTL,
	}

	var locator string
	var slot *backend.UploadSlot

	if params.SourceURL != "" {
		ingested, err := s.videoBackend.IngestFromURL(ctx, provisionParams, params.SourceURL)
		if err != nil {
			return nil, err
		}
		locator = ingested
	} else {
		if err := validation.ValidateFilename(params.Filename); err != nil {
			return nil, app_errors.Wrap(app_errors.CodeInvalidArgument, err.Error(), err)
		}
		if err := validation.ValidateVideoContentType(params.ContentType); err != nil {
			return nil, app_errors.Wrap(app_errors.CodeInvalidArgument, err.Error(), err)
		}

		provisioned, err := s.videoBackend.Provision(ctx, provisionParams)
		if err != nil {
			return nil, err
		}
		locator = provisioned.Locator
		slot = provisioned.Upload
	}

	videoID := uuid.New().String()
	video := &store.Video{
		VideoID:          videoID,
		Title:            params.Title,
		BackendLocator:   &locator,
		IsPremium:        params.IsPremium,
		ProcessingStatus: store.StatusPending,
		UploadedAt:       time.Now().UTC(),
	}
	if params.Description != "" {
		video.Description = &params.Description
	}
	if params.Category != "" {
		video.Category = &params.Category
	}

	if err := s.db.CreateVideo(ctx, video); err != nil {
		s.log.Error("catalog write failed after vendor provisioning, leaving orphan for reconciliation",
			"locator", locator, "error", err)
		return nil, err
	}

	result := &models.CreatedContent{
		VideoID: videoID,
		Locator: locator,
	}

	if slot != nil {
		result.UploadURL = slot.URL
		result.UploadVerb = slot.Method
		result.UploadHdrs = slot.Headers
		result.UploadUntil = slot.ExpiresAt

		if slot.StoragePath != "" {
			record := &store.UploadRecord{
				UploadID:       uuid.New().String(),
				BackendLocator: locator,
				StoragePath:    slot.StoragePath,
				Status:         store.UploadStatusStaged,
				CreatedAt:      time.Now().UTC(),
			}
			if err := s.db.CreateUploadRecord(ctx, record); err != nil {
				return nil, err
			}
			result.UploadID = record.UploadID
		}
	}

	s.log.Info("content created", "video_id", videoID, "backend", s.videoBackend.Name(), "via_url", params.SourceURL != "")
	return result, nil
}

// ConfirmUpload finalizes a direct upload the admin client reported done
// and moves the item into processing. It returns the staged object size
// in bytes, zero when the vendor ingested the bytes directly.
func (s *Service) ConfirmUpload(ctx context.Context, videoID, uploadID string) (int64, error) {
	video, err := s.db.GetVideo(ctx, videoID)
	if err != nil {
		return 0, err
	}
	if video.BackendLocator == nil || *video.BackendLocator == "" {
		return 0, app_errors.New(app_errors.CodeFailedPrecondition, "video has no backend locator")
	}

	var record *store.UploadRecord
	storagePath := ""
	if uploadID != "" {
		record, err = s.db.GetUploadRecord(ctx, uploadID)
		if err != nil {
			return 0, err
		}
		if record.BackendLocator != *video.BackendLocator {
			return 0, app_errors.New(app_errors.CodeInvalidArgument, "upload does not belong to this video")
		}
		storagePath = record.StoragePath
	}

	size, err := s.videoBackend.CompleteUpload(ctx, *video.BackendLocator, storagePath)
	if err != nil {
		return 0, err
	}

	if record != nil {
		// The record stays behind as transferred; the upload sweep
		// garbage-collects it once it ages out.
		record.Status = store.UploadStatusTransferred
		if err := s.db.CreateUploadRecord(ctx, record); err != nil {
			s.log.Warn("failed to mark staging record transferred", "upload_id", uploadID, "error", err)
		}
	}

	if err := s.db.UpdateVideoStatus(ctx, videoID, store.StatusProcessing, nil); err != nil {
		return 0, err
	}
	return size, nil
}

// CheckStatus probes the vendor and persists the state only when it
// changed, so repeated polls are idempotent.
func (s *Service) CheckStatus(ctx context.Context, videoID string) (*models.ContentStatus, error) {
	video, err := s.db.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.BackendLocator == nil || *video.BackendLocator == "" {
		status := &models.ContentStatus{
			VideoID:         videoID,
			Status:          video.ProcessingStatus,
			DurationSeconds: video.DurationSeconds,
		}
		if video.ProcessingStatus == store.StatusCompleted {
			status.Progress = 100
		}
		return status, nil
	}

	probed, err := s.videoBackend.ProbeStatus(ctx, *video.BackendLocator)
	if err != nil {
		return nil, err
	}

	if probed.State != video.ProcessingStatus {
		if err := s.db.UpdateVideoStatus(ctx, videoID, probed.State, probed.DurationSeconds); err != nil {
			return nil, err
		}
		s.log.Info("processing status changed", "video_id", videoID, "from", video.ProcessingStatus, "to", probed.State)

		if s.notify != nil {
			switch probed.State {
			case store.StatusCompleted:
				s.notify.TranscodeCompleted(ctx, videoID, video.Title)
			case store.StatusFailed:
				s.notify.TranscodeFailed(ctx, videoID, video.Title)
			}
		}
	}

	duration := probed.DurationSeconds
	if duration == nil {
		duration = video.DurationSeconds
	}
	return &models.ContentStatus{
		VideoID:         videoID,
		Status:          probed.State,
		Progress:        probed.Progress,
		DurationSeconds: duration,
	}, nil
}

// GetContent reads one catalog entry.
func (s *Service) GetContent(ctx context.Context, videoID string) (*store.Video, error) {
	return s.db.GetVideo(ctx, videoID)
}

// ListContent pages the catalog, newest first.
func (s *Service) ListContent(ctx context.Context, limit, offset int) ([]*store.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.db.ListVideos(ctx, limit, offset)
}
