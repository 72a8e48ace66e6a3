package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/service/media"
)

// ErrDownloadUnfinished is returned when polling stops before a terminal status.
var ErrDownloadUnfinished = errors.New("download did not finish")

// ExecuteDownloadCommand downloads formatID of url in the foreground, rendering a progress bar.
func ExecuteDownloadCommand(ctx context.Context, cfg *config.Config, url, formatID string) {
	c, err := newComponents(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize application: %v", err)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		c.shutdown(ctx)
	}()

	metadata, err := c.coordinator.Inspect(ctx, url)
	if err != nil {
		logger.Errorf(ctx, "Failed to inspect '%s': %v", url, err)

		return
	}

	result, err := c.coordinator.StartDownload(ctx, url, formatID)
	if err != nil {
		logger.Errorf(ctx, "Failed to start download: %v", err)

		return
	}

	if result.AlreadyExists {
		logger.Infof(ctx, "File already exists: %s", result.Filename)

		return
	}

	logger.Infof(ctx, "Downloading '%s' to %s", metadata.Title, result.Filename)

	var onSnapshot func(media.ProgressSnapshot)

	// Progress bars would interleave with debug output.
	if logger.Level() <= zap.InfoLevel {
		bar := newProgressBar()
		onSnapshot = bar.update

		defer bar.finish()
	}

	snapshot, err := watchProgress(ctx, c.coordinator, cfg.ParsedProgressInterval, onSnapshot)
	if err != nil {
		logger.Warnf(ctx, "Stopped watching progress: %v", err)

		return
	}

	if snapshot.Status == media.ProgressStatusError {
		logger.Errorf(ctx, "Download failed: %s", snapshot.Error)

		return
	}

	logger.Infof(ctx, "Saved %s", snapshot.Filename)
}

// watchProgress polls the coordinator every interval until the download reaches a terminal status.
// onSnapshot, when set, receives every polled snapshot including the last one.
func watchProgress(
	ctx context.Context,
	coordinator media.Coordinator,
	interval time.Duration,
	onSnapshot func(media.ProgressSnapshot),
) (media.ProgressSnapshot, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snapshot := coordinator.Progress()
		if onSnapshot != nil {
			onSnapshot(snapshot)
		}

		switch {
		case snapshot.Status.IsTerminal():
			return snapshot, nil
		case snapshot.Status == media.ProgressStatusNotStarted:
			return snapshot, fmt.Errorf("%w: no download is running", ErrDownloadUnfinished)
		}

		select {
		case <-ctx.Done():
			return snapshot, fmt.Errorf("%w: %w", ErrDownloadUnfinished, ctx.Err())
		case <-ticker.C:
		}
	}
}

// progressBar renders snapshots on the terminal.
type progressBar struct {
	// bar is the underlying byte counter.
	bar *progressbar.ProgressBar
	// filename is the last described file.
	filename string
}

func newProgressBar() *progressBar {
	return &progressBar{
		bar: progressbar.DefaultBytes(-1, "Downloading"),
	}
}

func (p *progressBar) update(snapshot media.ProgressSnapshot) {
	if snapshot.TotalBytes > 0 && snapshot.TotalBytes != p.bar.GetMax64() {
		p.bar.ChangeMax64(snapshot.TotalBytes)
	}

	if snapshot.Filename != "" && snapshot.Filename != p.filename {
		p.filename = snapshot.Filename
		p.bar.Describe(filepath.Base(snapshot.Filename))
	}

	_ = p.bar.Set64(snapshot.DownloadedBytes)
}

func (p *progressBar) finish() {
	_ = p.bar.Finish()
}
