package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/learnloop/video-backend/internal/bootstrap"
)

// @title			LearnLoop Video API
// @version		1.0
// @description	Playback grants, content ingestion and session tracking for the LearnLoop e-learning platform

// @host		localhost:8080
// @BasePath	/api/v1

// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description					Bearer token for authentication

func main() {
	ctx := context.Background()

	router, err := bootstrap.Initialize(ctx)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	port := os.Getenv("VB_HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "port", port)
	if err := server.ListenAndServe(); err != nil {
		slog.Error("HTTP server stopped", "error", err)
		os.Exit(1)
	}
}
