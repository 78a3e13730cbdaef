// Package session tracks viewing sessions for the concurrency ceiling.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/store"
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

// Start opens a viewing session. The session counts toward the caller's
// ceiling until it is ended or swept.
func (s *Service) Start(ctx context.Context, userID string, videoID, deviceInfo *string) (*store.Session, error) {
	now := time.Now().UTC()
	session := &store.Session{
		SessionID:    uuid.New().String(),
		UserID:       userID,
		VideoID:      videoID,
		DeviceInfo:   deviceInfo,
		IsActive:     true,
		StartedAt:    now,
		LastActiveAt: now,
	}

	if err := s.db.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("session started", "session_id", session.SessionID, "user_id", userID)
	return session, nil
}

// Heartbeat refreshes the idle timer. Players call it periodically; a
// session that stops beating gets reclaimed by the sweep.
func (s *Service) Heartbeat(ctx context.Context, sessionID, userID string) error {
	session, err := s.db.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return app_errors.New(app_errors.CodePermissionDenied, "session belongs to another user")
	}
	if !session.IsActive {
		return app_errors.New(app_errors.CodeFailedPrecondition, "session is not active")
	}

	return s.db.TouchSession(ctx, sessionID, time.Now().UTC())
}

// End closes a session. Ending a session that is already inactive
// succeeds.
func (s *Service) End(ctx context.Context, sessionID, userID string) error {
	session, err := s.db.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return app_errors.New(app_errors.CodePermissionDenied, "session belongs to another user")
	}
	if !session.IsActive {
		return nil
	}

	if err := s.db.DeactivateSession(ctx, sessionID); err != nil {
		return err
	}

	s.log.Info("session ended", "session_id", sessionID, "user_id", userID)
	return nil
}
