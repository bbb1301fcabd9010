package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Conceptual-Machines/vibify-api/internal/api"
	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/observability"
	"github.com/Conceptual-Machines/vibify-api/internal/storage"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	flush := observability.InitSentry(cfg, releaseVersion)
	defer flush()

	if err := storage.EnsureDirectories(cfg); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to create data directories:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := api.NewServer(ctx, cfg, GetVersion())
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize server:", err)
	}

	if err := server.Run(ctx); err != nil {
		sentry.CaptureException(err)
		flush()
		log.Fatal("Failed to start server:", err)
	}
}
