package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/tube-grabber/internal/client/thumbnail"
	"github.com/oshokin/tube-grabber/internal/client/ytdlp"
	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/server"
	"github.com/oshokin/tube-grabber/internal/service/files"
	"github.com/oshokin/tube-grabber/internal/service/media"
)

// drainTimeout bounds how long shutdown waits for a canceled worker to record its outcome.
const drainTimeout = 5 * time.Second

// components holds the wired services of one process.
type components struct {
	// coordinator runs inspections and downloads.
	coordinator media.Coordinator
	// opener opens downloaded files.
	opener files.Opener
}

// newComponents creates the clients and services described by cfg.
// Workers spawned by the coordinator are canceled together with ctx.
func newComponents(ctx context.Context, cfg *config.Config) (*components, error) {
	ytdlpClient, err := ytdlp.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize yt-dlp client: %w", err)
	}

	pathResolver := media.NewPathResolver(cfg.ParsedOutputPath, cfg.MaxTitleLength)
	if err = pathResolver.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	coordinator := media.NewCoordinator(
		ctx,
		cfg,
		media.NewURLValidator(),
		media.NewFormatCatalog(ytdlpClient),
		pathResolver,
		ytdlpClient,
		thumbnail.NewClient(cfg),
		media.NewTagProcessor(),
	)

	return &components{
		coordinator: coordinator,
		opener:      files.NewOpener(cfg.ParsedOutputPath),
	}, nil
}

// shutdown waits briefly for a running worker and prints the statistics.
func (c *components) shutdown(ctx context.Context) {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	if err := c.coordinator.Wait(waitCtx); err != nil {
		logger.Warnf(ctx, "Download did not stop in time: %v", err)
	}

	c.coordinator.PrintDownloadSummary(ctx)
}

// ExecuteServeCommand runs the HTTP server until ctx is canceled.
func ExecuteServeCommand(ctx context.Context, cfg *config.Config) {
	if logger.IsDebugLevel() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	c, err := newComponents(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize application: %v", err)
	}

	// Ensure statistics are printed even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		c.shutdown(ctx)
	}()

	logger.InfoKV(ctx, "Starting tube-grabber",
		"output", cfg.ParsedOutputPath,
		"listen", cfg.ListenAddress)

	srv := server.NewServer(cfg, c.coordinator, c.opener)
	if err = srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf(ctx, "Server stopped: %v", err)
	}
}
