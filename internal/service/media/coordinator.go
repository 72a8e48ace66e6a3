package media

//go:generate $MOCKGEN -source=coordinator.go -destination=mocks/coordinator_mock.go

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/tube-grabber/internal/client/thumbnail"
	"github.com/oshokin/tube-grabber/internal/client/ytdlp"
	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/constants"
	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/utils"
)

// Coordinator owns the current session and runs at most one download at a time.
type Coordinator interface {
	// Inspect validates url and returns its metadata, replacing the current session
	// when url differs from the session's. Metadata of the current session is not fetched again.
	Inspect(ctx context.Context, url string) (*Metadata, error)
	// StartDownload starts downloading formatID of url in the background and returns immediately.
	StartDownload(ctx context.Context, url, formatID string) (*StartResult, error)
	// Progress returns the progress of the current session's download. It never blocks on the worker.
	Progress() ProgressSnapshot
	// Wait blocks until no download is running or ctx is done.
	Wait(ctx context.Context) error
	// Statistics returns the counters of this process.
	Statistics() DownloadStatistics
	// PrintDownloadSummary logs the counters of this process.
	PrintDownloadSummary(ctx context.Context)
}

// CoordinatorImpl implements Coordinator.
type CoordinatorImpl struct {
	// baseCtx bounds the lifetime of every worker.
	baseCtx context.Context //nolint:containedctx // Workers outlive the request that started them.
	// cfg contains the application configuration.
	cfg *config.Config
	// urlValidator checks inspected URLs.
	urlValidator URLValidator
	// formatCatalog extracts metadata.
	formatCatalog FormatCatalog
	// pathResolver computes output paths.
	pathResolver PathResolver
	// downloader runs yt-dlp.
	downloader ytdlp.Client
	// thumbnailClient downloads cover images.
	thumbnailClient thumbnail.Client
	// tagProcessor writes tags into audio files.
	tagProcessor TagProcessor
	// mu protects session and active.
	mu sync.Mutex
	// session is the current session, nil before the first inspection.
	session *session
	// active is the most recently spawned download of any session.
	active *download
	// stats tracks download statistics for this process.
	stats *DownloadStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// session is the state of one inspected URL.
type session struct {
	// id identifies the session in logs.
	id string
	// url is the inspected URL.
	url string
	// metadata is fetched once per session.
	metadata *Metadata
	// download is the latest download of the session, nil before the first start.
	download *download
}

// download is one started download.
type download struct {
	// id identifies the download in logs.
	id string
	// format is the selected stream.
	format FormatDescriptor
	// path is the destination file.
	path string
	// tracker is the progress record written by the worker.
	tracker *ProgressTracker
	// done is set by the worker as its last action.
	done atomic.Bool
	// doneCh is closed together with done.
	doneCh chan struct{}
}

// NewCoordinator creates a coordinator whose workers run until ctx is canceled.
func NewCoordinator(
	ctx context.Context,
	cfg *config.Config,
	urlValidator URLValidator,
	formatCatalog FormatCatalog,
	pathResolver PathResolver,
	downloader ytdlp.Client,
	thumbnailClient thumbnail.Client,
	tagProcessor TagProcessor,
) Coordinator {
	return &CoordinatorImpl{
		baseCtx:         ctx,
		cfg:             cfg,
		urlValidator:    urlValidator,
		formatCatalog:   formatCatalog,
		pathResolver:    pathResolver,
		downloader:      downloader,
		thumbnailClient: thumbnailClient,
		tagProcessor:    tagProcessor,
		stats:           &DownloadStatistics{StartTime: time.Now()},
		statsMutex:      new(sync.Mutex),
	}
}

// Inspect validates url and returns its metadata.
func (c *CoordinatorImpl) Inspect(ctx context.Context, url string) (*Metadata, error) {
	s, err := c.sessionFor(ctx, url)
	if err != nil {
		return nil, err
	}

	return s.metadata, nil
}

// StartDownload starts downloading formatID of url in the background.
// A second start while a worker is running is rejected with ErrDownloadInProgress.
// When the destination already exists no worker is started and the download is reported as finished.
func (c *CoordinatorImpl) StartDownload(ctx context.Context, url, formatID string) (*StartResult, error) {
	s, err := c.sessionFor(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	format, ok := s.metadata.FindFormat(formatID)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrFormatNotFound, formatID)
	}

	if c.active != nil && !c.active.done.Load() {
		return nil, fmt.Errorf("%w: %s", ErrDownloadInProgress, c.active.path)
	}

	path := c.pathResolver.Resolve(s.metadata.Title, format.IsVideo(), format.QualityLabel(), c.outputExtension(format))

	d := &download{
		id:      uuid.NewString(),
		format:  *format,
		path:    path,
		tracker: NewProgressTracker(),
		doneCh:  make(chan struct{}),
	}

	ctx = logger.WithKV(ctx, "download_id", d.id)

	size, err := utils.FileSize(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check output file: %w", err)
	}

	if size >= 0 {
		d.tracker.Reset()
		d.tracker.RecordProgress(size, size, 0, path)
		d.tracker.RecordFinished(path)
		d.markDone()

		s.download = d
		c.incrementSkipped()

		logger.InfoKV(ctx, "File already exists, skipping download", "path", path)

		return &StartResult{
			Status:        startedStatus,
			Filename:      path,
			AlreadyExists: true,
		}, nil
	}

	if err = c.pathResolver.EnsureDirectories(); err != nil {
		return nil, err
	}

	d.tracker.Reset()

	s.download = d
	c.active = d
	c.incrementStarted()

	logger.InfoKV(ctx, "Starting download",
		"url", s.url,
		"format", format.FormatID,
		"quality", format.QualityLabel(),
		"path", path)

	go c.runWorker(s, d)

	return &StartResult{
		Status:   startedStatus,
		Filename: path,
	}, nil
}

// Progress returns the progress of the current session's download.
// A worker that ended without a terminal status is reported as finished with the destination path.
func (c *CoordinatorImpl) Progress() ProgressSnapshot {
	c.mu.Lock()

	var d *download
	if c.session != nil {
		d = c.session.download
	}

	c.mu.Unlock()

	if d == nil {
		return NotStartedSnapshot()
	}

	snapshot := d.tracker.Snapshot()
	if !d.done.Load() || snapshot.Status != ProgressStatusDownloading {
		return snapshot
	}

	d.tracker.RecordFinished(d.path)

	return d.tracker.Snapshot()
}

// Wait blocks until no download is running or ctx is done.
func (c *CoordinatorImpl) Wait(ctx context.Context) error {
	c.mu.Lock()
	d := c.active
	c.mu.Unlock()

	if d == nil {
		return nil
	}

	select {
	case <-d.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sessionFor returns the session of url, fetching metadata and replacing the current session when needed.
func (c *CoordinatorImpl) sessionFor(ctx context.Context, url string) (*session, error) {
	url = strings.TrimSpace(url)

	videoID, err := c.urlValidator.Validate(url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	current := c.session
	c.mu.Unlock()

	if current != nil && current.url == url {
		return current, nil
	}

	metadata, err := c.formatCatalog.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataFetch, err)
	}

	if metadata.ID == "" {
		metadata.ID = videoID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.url == url {
		return c.session, nil
	}

	c.session = &session{
		id:       uuid.NewString(),
		url:      url,
		metadata: metadata,
	}

	logger.InfoKV(ctx, "New session",
		"session_id", c.session.id,
		"title", metadata.Title,
		"formats", len(metadata.Formats))

	return c.session, nil
}

// outputExtension is the extension of the converted file.
func (c *CoordinatorImpl) outputExtension(format *FormatDescriptor) string {
	if format.IsVideo() {
		return c.cfg.VideoContainer
	}

	return c.cfg.AudioFormat
}

// runWorker performs the download. Every failure, panics included, ends up in the tracker.
func (c *CoordinatorImpl) runWorker(s *session, d *download) {
	ctx := logger.WithKV(c.baseCtx, "download_id", d.id)

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Download worker panicked: %v", r)
			c.fail(ctx, s, d, fmt.Errorf("%w: unexpected failure: %v", ErrDownloadFailed, r))
		}

		d.markDone()
	}()

	kind := ytdlp.MediaKindAudio
	if d.format.IsVideo() {
		kind = ytdlp.MediaKindVideo
	}

	err := c.downloader.Download(ctx, &ytdlp.DownloadRequest{
		URL:        s.url,
		FormatID:   d.format.FormatID,
		Kind:       kind,
		OutputPath: d.path,
		TempDir:    c.pathResolver.TempDir(),
	}, d.onProgress)
	if err != nil {
		c.fail(ctx, s, d, workerError(err))

		return
	}

	size, err := utils.FileSize(d.path)
	if err != nil || size < 0 {
		c.fail(ctx, s, d, fmt.Errorf("%w: %s", ErrOutputMissing, d.path))

		return
	}

	if !d.format.IsVideo() {
		c.tagAudio(ctx, s, d)
	}

	d.tracker.RecordFinished(d.path)
	c.incrementFinished(size)

	logger.InfoKV(ctx, "Download finished", "path", d.path, "size", size)
}

// onProgress forwards yt-dlp events into the tracker.
func (d *download) onProgress(event ytdlp.ProgressEvent) {
	switch event.Stage {
	case ytdlp.ProgressStageDownloading:
		d.tracker.RecordProgress(event.DownloadedBytes, event.TotalBytes, event.Speed, event.Filename)
	case ytdlp.ProgressStageStreamFinished:
		d.tracker.RecordStreamFinished(event.DownloadedBytes, event.TotalBytes, event.Filename)
	case ytdlp.ProgressStagePostProcessing:
		d.tracker.RecordPostProcessing()
	}
}

// markDone signals that the worker has returned.
func (d *download) markDone() {
	if d.done.CompareAndSwap(false, true) {
		close(d.doneCh)
	}
}

func (c *CoordinatorImpl) fail(ctx context.Context, s *session, d *download, err error) {
	d.tracker.RecordError(err.Error())
	c.incrementFailed(DownloadError{
		URL:      s.url,
		FormatID: d.format.FormatID,
		Path:     d.path,
		Message:  err.Error(),
	})

	logger.ErrorKV(ctx, "Download failed", "path", d.path, "error", err)
}

// workerError maps client errors to the errors reported to the user.
func workerError(err error) error {
	switch {
	case errors.Is(err, ytdlp.ErrFFmpegNotFound):
		return fmt.Errorf("%w: %w", ErrFFmpegNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: interrupted", ErrDownloadFailed)
	default:
		return fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
}

// tagAudio writes title, artist and cover into the audio file. Failures are only logged.
func (c *CoordinatorImpl) tagAudio(ctx context.Context, s *session, d *download) {
	req := &WriteTagsRequest{
		TrackPath: d.path,
		Title:     s.metadata.Title,
		Artist:    s.metadata.Uploader,
		SourceURL: s.url,
	}

	if c.cfg.EmbedThumbnail {
		req.Cover = c.fetchCover(ctx, s.metadata)
	}

	if err := c.tagProcessor.WriteTags(ctx, req); err != nil {
		logger.Warnf(ctx, "Failed to write tags to '%s': %v", d.path, err)
	}
}

// fetchCover downloads the thumbnail and keeps a copy in the thumbnail folder.
func (c *CoordinatorImpl) fetchCover(ctx context.Context, metadata *Metadata) *CoverImage {
	if metadata.ThumbnailURL == "" || c.thumbnailClient == nil {
		return nil
	}

	image, err := c.thumbnailClient.Fetch(ctx, metadata.ThumbnailURL)
	if err != nil {
		logger.Warnf(ctx, "Failed to download thumbnail: %v", err)

		return nil
	}

	name := utils.SanitizeFilename(metadata.ID)
	if name == "" {
		name = uuid.NewString()
	}

	path := filepath.Join(c.pathResolver.ThumbnailDir(), name+thumbnailExtension(image.MimeType))
	if err = os.WriteFile(path, image.Data, constants.DefaultFilePermissions); err != nil {
		logger.Warnf(ctx, "Failed to save thumbnail '%s': %v", path, err)
	}

	return &CoverImage{
		Data:     image.Data,
		MimeType: image.MimeType,
	}
}

func thumbnailExtension(mimeType string) string {
	switch mimeType {
	case utils.ImagePNGMimeType:
		return constants.ExtensionPNG
	case utils.ImageWebPMimeType:
		return constants.ExtensionWebP
	default:
		return constants.ExtensionJPG
	}
}
