// Package anomaly flags watch-progress updates that advance faster than
// wall-clock time allows.
package anomaly

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/metrics"
	"github.com/learnloop/video-backend/internal/models"
	"github.com/learnloop/video-backend/internal/store"
)

const (
	// A jump is suspicious when the playback position advanced more than
	// twice as fast as wall-clock time and by more than the minimum jump.
	speedFactor    = 2.0
	minJumpSeconds = 30.0

	activityTypeSpeed = "playback_speed"
)

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

// UpdateProgress upserts the playback position and runs the speed
// heuristic against the previous sample. A flagged update is still
// stored; flagging records evidence, it does not block the player.
func (s *Service) UpdateProgress(ctx context.Context, userID, videoID string, position int64) (*models.ProgressResult, error) {
	if position < 0 {
		return nil, app_errors.New(app_errors.CodeInvalidArgument, "position must not be negative")
	}

	now := time.Now().UTC()
	flagged := false

	previous, err := s.db.GetWatchProgress(ctx, userID, videoID)
	switch {
	case err == nil:
		positionDelta := float64(position - previous.Position)
		wallClockDelta := now.Sub(previous.UpdatedAt).Seconds()

		if positionDelta > speedFactor*wallClockDelta && positionDelta > minJumpSeconds {
			flagged = true
			ratio := 0.0
			if wallClockDelta > 0 {
				ratio = positionDelta / wallClockDelta
			}

			activity := &store.SuspiciousActivity{
				ActivityID:     uuid.New().String(),
				UserID:         userID,
				VideoID:        videoID,
				ActivityType:   activityTypeSpeed,
				PositionDelta:  positionDelta,
				WallClockDelta: wallClockDelta,
				Ratio:          ratio,
				Timestamp:      now,
			}
			if err := s.db.CreateSuspiciousActivity(ctx, activity); err != nil {
				return nil, err
			}
			metrics.SuspiciousActivity.Inc()
			s.log.Warn("suspicious playback speed",
				"user_id", userID, "video_id", videoID,
				"position_delta", positionDelta, "wall_clock_delta", wallClockDelta)
		}
	case app_errors.Is(err, app_errors.CodeNotFound):
		// First sample for this pair; nothing to compare against.
	default:
		return nil, err
	}

	progress := &store.WatchProgress{
		UserID:    userID,
		VideoID:   videoID,
		Position:  position,
		UpdatedAt: now,
	}
	if err := s.db.PutWatchProgress(ctx, progress); err != nil {
		return nil, err
	}

	return &models.ProgressResult{Position: position, Flagged: flagged}, nil
}
