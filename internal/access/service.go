// Package access issues and validates time-limited playback grants.
package access

import (
	"context"
	"log/slog"
	"time"

	"github.com/learnloop/video-backend/internal/audit"
	"github.com/learnloop/video-backend/internal/backend"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/metrics"
	"github.com/learnloop/video-backend/internal/models"
	"github.com/learnloop/video-backend/internal/store"
	"github.com/learnloop/video-backend/internal/token"
)

type Service struct {
	db                 store.Database
	tokens             *token.Manager
	videoBackend       backend.VideoBackend
	audit              *audit.Service
	defaultMaxSessions int
	log                *slog.Logger
}

func NewService(db store.Database, tokens *token.Manager, videoBackend backend.VideoBackend, auditSvc *audit.Service, defaultMaxSessions int, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:                 db,
		tokens:             tokens,
		videoBackend:       videoBackend,
		audit:              auditSvc,
		defaultMaxSessions: defaultMaxSessions,
		log:                log,
	}
}

// IssueGrant runs the full issuance pipeline: entitlement, session
// ceiling, readiness, token, playback URL, audit. The audit entry is
// written before the grant leaves the process; if the write fails the
// caller gets an error and no grant.
func (s *Service) IssueGrant(ctx context.Context, userID, videoID, ipAddress, userAgent string) (*models.Grant, error) {
	grant, err := s.issueGrant(ctx, userID, videoID, ipAddress, userAgent)
	if err != nil {
		metrics.GrantsIssued.WithLabelValues(string(app_errors.CodeOf(err))).Inc()
		return nil, err
	}
	metrics.GrantsIssued.WithLabelValues("ok").Inc()
	return grant, nil
}

func (s *Service) issueGrant(ctx context.Context, userID, videoID, ipAddress, userAgent string) (*models.Grant, error) {
	if videoID == "" {
		return nil, app_errors.New(app_errors.CodeInvalidArgument, "video id is required")
	}

	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		if app_errors.Is(err, app_errors.CodeNotFound) {
			return nil, app_errors.New(app_errors.CodeUnauthenticated, "unknown user")
		}
		return nil, err
	}

	video, err := s.db.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if video.IsPremium && !user.IsPremium {
		return nil, app_errors.New(app_errors.CodePermissionDenied, "premium subscription required")
	}

	// The count/compare is not transactional with session creation, so two
	// concurrent requests can both pass. Accepted: the ceiling is a soft
	// limit and the sweep reclaims the overshoot.
	maxSessions := s.defaultMaxSessions
	if user.MaxSessions != nil && *user.MaxSessions > 0 {
		maxSessions = int(*user.MaxSessions)
	}
	activeCount, err := s.db.CountActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if activeCount >= maxSessions {
		return nil, app_errors.Newf(app_errors.CodeResourceExhausted, "active session limit of %d reached", maxSessions)
	}

	if video.BackendLocator == nil || *video.BackendLocator == "" {
		return nil, app_errors.New(app_errors.CodeFailedPrecondition, "video is not ready for playback")
	}
	if video.ProcessingStatus != store.StatusCompleted {
		return nil, app_errors.New(app_errors.CodeFailedPrecondition, "video is not ready for playback")
	}
	locator := *video.BackendLocator

	signedToken, expiresAt, err := s.tokens.IssueGrant(userID, videoID, locator)
	if err != nil {
		return nil, err
	}

	playbackURL, err := s.videoBackend.PlaybackURL(ctx, locator, time.Until(expiresAt))
	if err != nil {
		return nil, err
	}

	if err := s.audit.RecordAccess(ctx, userID, videoID, ipAddress, userAgent); err != nil {
		return nil, err
	}

	// View counting is best-effort; a failed bump never blocks playback.
	if err := s.db.IncrementViewCount(ctx, videoID); err != nil {
		s.log.Warn("failed to increment view count", "video_id", videoID, "error", err)
	}

	s.log.Info("playback grant issued", "user_id", userID, "video_id", videoID, "expires_at", expiresAt)

	return &models.Grant{
		Token:       signedToken,
		PlaybackURL: playbackURL,
		VideoID:     videoID,
		ExpiresAt:   expiresAt,
	}, nil
}

// ValidateGrant checks a presented grant against the current catalog
// state. A grant is only honored for the locator it was minted with: if
// the item was re-ingested since, the old grant reads as invalid.
func (s *Service) ValidateGrant(ctx context.Context, tokenString string) (*models.GrantValidation, error) {
	claims, err := s.tokens.ValidateGrant(tokenString)
	if err != nil {
		return nil, err
	}

	video, err := s.db.GetVideo(ctx, claims.VideoID)
	if err != nil {
		if app_errors.Is(err, app_errors.CodeNotFound) {
			return nil, app_errors.New(app_errors.CodeInvalidToken, "invalid or expired grant")
		}
		return nil, err
	}

	if video.BackendLocator == nil || *video.BackendLocator != claims.Locator {
		return nil, app_errors.New(app_errors.CodeInvalidToken, "invalid or expired grant")
	}

	return &models.GrantValidation{
		UserID:    claims.UserID,
		VideoID:   claims.VideoID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
