// Package bootstrap wires the application graph once and hands back the
// router. Both the standalone server and the cloud function adapter go
// through Initialize.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/learnloop/video-backend/docs"
	"github.com/learnloop/video-backend/internal/access"
	"github.com/learnloop/video-backend/internal/anomaly"
	"github.com/learnloop/video-backend/internal/audit"
	"github.com/learnloop/video-backend/internal/backend"
	"github.com/learnloop/video-backend/internal/backend/bunny"
	"github.com/learnloop/video-backend/internal/backend/cloudflare"
	"github.com/learnloop/video-backend/internal/backend/s3compat"
	"github.com/learnloop/video-backend/internal/config"
	"github.com/learnloop/video-backend/internal/content"
	httpserver "github.com/learnloop/video-backend/internal/http"
	"github.com/learnloop/video-backend/internal/logger"
	"github.com/learnloop/video-backend/internal/notify"
	"github.com/learnloop/video-backend/internal/rbac"
	"github.com/learnloop/video-backend/internal/session"
	"github.com/learnloop/video-backend/internal/storage"
	"github.com/learnloop/video-backend/internal/store"
	"github.com/learnloop/video-backend/internal/sweep"
	"github.com/learnloop/video-backend/internal/telegram"
	"github.com/learnloop/video-backend/internal/token"
)

// Initialize builds all dependencies and returns the configured router.
func Initialize(ctx context.Context) (http.Handler, error) {
	cfg := config.Load()

	tgClient := telegram.NewClient(cfg)

	log := logger.New(tgClient)
	slog.SetDefault(log)

	db, err := store.NewYDBClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to YDB: %w", err)
	}

	tokens := token.NewManager(cfg.JWTSecretKey, cfg.GrantTTL)
	roles := rbac.New()

	// The staging bucket is shared infrastructure: the upload sweep needs
	// it regardless of which video backend serves playback.
	storageClient, err := storage.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}

	videoBackend, err := selectBackend(cfg, storageClient)
	if err != nil {
		return nil, err
	}
	slog.Info("video backend selected", "backend", videoBackend.Name())

	notifyClient, err := notify.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notify client: %w", err)
	}

	auditService := audit.NewService(db, log)
	accessService := access.NewService(db, tokens, videoBackend, auditService, cfg.DefaultMaxSessions, log)
	contentService := content.NewService(db, videoBackend, notifyClient, cfg.UploadTTL, log)
	sessionService := session.NewService(db, log)
	sweepService := sweep.NewService(db, storageClient, cfg.SessionTimeout, cfg.StagingWindow, log)
	anomalyService := anomaly.NewService(db, log)

	server := httpserver.NewServer(accessService, contentService, sessionService, sweepService, anomalyService, auditService, tokens)

	router := httpserver.SetupRouter(server, tokens, roles, cfg.SchedulerToken)

	slog.Info("Application initialized successfully")
	return router, nil
}

func selectBackend(cfg *config.Config, storageClient *storage.Client) (backend.VideoBackend, error) {
	switch cfg.VideoBackend {
	case "bunny":
		return bunny.NewClient(cfg)
	case "cloudflare":
		return cloudflare.NewClient(cfg)
	case "s3":
		return s3compat.NewClient(storageClient), nil
	default:
		return nil, fmt.Errorf("unknown video backend %q (expected bunny, cloudflare or s3)", cfg.VideoBackend)
	}
}
