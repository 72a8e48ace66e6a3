package media

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/tube-grabber/internal/logger"
)

const summarySeparator = "═══════════════════════════════════════════════════════════════"

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

func (c *CoordinatorImpl) incrementStarted() {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()

	c.stats.DownloadsStarted++
}

func (c *CoordinatorImpl) incrementSkipped() {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()

	c.stats.DownloadsSkipped++
}

func (c *CoordinatorImpl) incrementFinished(bytes int64) {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()

	c.stats.DownloadsFinished++
	c.stats.BytesDownloaded += bytes
}

func (c *CoordinatorImpl) incrementFailed(downloadErr DownloadError) {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()

	c.stats.DownloadsFailed++
	c.stats.Errors = append(c.stats.Errors, downloadErr)
}

// Statistics returns a copy of the counters.
func (c *CoordinatorImpl) Statistics() DownloadStatistics {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()

	stats := *c.stats
	stats.Errors = slices.Clone(c.stats.Errors)
	//nolint:gosec // BytesDownloaded is always positive, no overflow risk.
	stats.BytesText = humanize.Bytes(uint64(stats.BytesDownloaded))
	stats.Uptime = formatUptime(time.Since(stats.StartTime))

	return stats
}

// PrintDownloadSummary prints a formatted summary of download statistics.
func (c *CoordinatorImpl) PrintDownloadSummary(ctx context.Context) {
	stats := c.Statistics()

	// If nothing was processed, don't print summary.
	if stats.DownloadsStarted == 0 && stats.DownloadsSkipped == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)
	logger.Info(ctx, "                     DOWNLOAD SUMMARY")
	logger.Info(ctx, summarySeparator)

	logger.Infof(ctx, "Downloads:        %d started", stats.DownloadsStarted)

	if stats.DownloadsFinished > 0 {
		logger.Infof(ctx, "  Finished:        %d", stats.DownloadsFinished)
	}

	if stats.DownloadsFailed > 0 {
		logger.Infof(ctx, "  Failed:          %d", stats.DownloadsFailed)
	}

	if stats.DownloadsSkipped > 0 {
		logger.Infof(ctx, "Already Existed:  %d", stats.DownloadsSkipped)
	}

	if stats.BytesDownloaded > 0 {
		logger.Info(ctx, "")
		logger.Infof(ctx, "Data Downloaded:  %s", stats.BytesText)
	}

	logger.Infof(ctx, "Uptime:           %s", stats.Uptime)
	logger.Info(ctx, summarySeparator)

	c.printErrorDetails(ctx, stats.Errors)
}

// printErrorDetails prints detailed error information if any errors occurred.
func (c *CoordinatorImpl) printErrorDetails(ctx context.Context, errs []DownloadError) {
	if len(errs) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(errs))

	for i := range errs {
		logger.Info(ctx, "")
		logger.Errorf(ctx, "  [%d] %s", i+1, errs[i].URL)
		logger.Errorf(ctx, "      Format: %s", errs[i].FormatID)
		logger.Errorf(ctx, "      Path: %s", errs[i].Path)
		logger.Errorf(ctx, "      Error: %s", errs[i].Message)
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)
}
