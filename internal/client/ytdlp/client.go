package ytdlp

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lrstanley/go-ytdlp"

	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/logger"
)

// Client extracts metadata and downloads media through yt-dlp.
type Client interface {
	// FetchInfo returns the metadata of a single video. Results are cached per URL.
	FetchInfo(ctx context.Context, url string) (*VideoInfo, error)
	// Download runs one download job and blocks until yt-dlp exits.
	// onProgress is invoked synchronously for every progress report.
	Download(ctx context.Context, req *DownloadRequest, onProgress ProgressFunc) error
}

// ClientImpl implements Client with github.com/lrstanley/go-ytdlp.
type ClientImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// ffmpeg locates the ffmpeg executable.
	ffmpeg *FFmpegLocator
	// infoCache caches extracted metadata by URL.
	infoCache *lru.Cache[string, *VideoInfo]
	// installOnce guards the optional yt-dlp installation.
	installOnce sync.Once
	// installErr is the result of the installation attempt.
	installErr error
}

const (
	codecNone = "none"

	// videoAudioReencodeArgs keep the video stream and convert audio to AAC so MP4 players accept it.
	videoAudioReencodeArgs = "Merger+ffmpeg:-c:v copy -c:a aac -b:a 192k"
)

// NewClient creates and returns a new instance of ClientImpl.
func NewClient(cfg *config.Config) (Client, error) {
	infoCache, err := lru.New[string, *VideoInfo](max(cfg.MetadataCacheSize, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}

	return &ClientImpl{
		cfg:       cfg,
		ffmpeg:    NewFFmpegLocator(cfg.FFmpegLocation),
		infoCache: infoCache,
	}, nil
}

// FetchInfo returns the metadata of a single video.
func (c *ClientImpl) FetchInfo(ctx context.Context, url string) (*VideoInfo, error) {
	if info, ok := c.infoCache.Get(url); ok {
		logger.Debugf(ctx, "Using cached metadata for %s", url)

		return info, nil
	}

	if err := c.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	if c.cfg.ParsedFetchTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.cfg.ParsedFetchTimeout)
		defer cancel()
	}

	cmd := c.newCommand().
		SkipDownload().
		DumpSingleJSON()

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	info, err := ParseVideoInfo(result.Stdout)
	if err != nil {
		return nil, err
	}

	c.infoCache.Add(url, info)

	logger.DebugKV(ctx, "Extracted metadata",
		"url", url,
		"title", info.Title,
		"formats", len(info.Formats))

	return info, nil
}

// Download runs one download job.
func (c *ClientImpl) Download(ctx context.Context, req *DownloadRequest, onProgress ProgressFunc) error {
	if req == nil || req.URL == "" || req.FormatID == "" || req.OutputPath == "" {
		return ErrInvalidRequest
	}

	ffmpegPath, err := c.ffmpeg.Locate()
	if err != nil {
		return err
	}

	if err = c.ensureInstalled(ctx); err != nil {
		return err
	}

	cmd := c.newCommand().
		FFmpegLocation(ffmpegPath).
		Output(OutputTemplate(req.OutputPath))

	if req.TempDir != "" {
		cmd = cmd.Paths("temp:" + req.TempDir)
	}

	switch req.Kind {
	case MediaKindAudio:
		cmd = cmd.
			Format(req.FormatID).
			ExtractAudio().
			AudioFormat(c.cfg.AudioFormat).
			AudioQuality(strconv.Itoa(c.cfg.AudioQuality) + "K")
	case MediaKindVideo:
		cmd = cmd.
			Format(VideoFormatSelector(req.FormatID)).
			MergeOutputFormat(c.cfg.VideoContainer)

		if c.cfg.VideoContainer == "mp4" {
			cmd = cmd.PostProcessorArgs(videoAudioReencodeArgs)
		}
	default:
		return fmt.Errorf("%w: unknown kind '%s'", ErrInvalidRequest, req.Kind)
	}

	if onProgress != nil {
		cmd = cmd.ProgressFunc(c.cfg.ParsedProgressInterval, func(update ytdlp.ProgressUpdate) {
			event, ok := EventFromUpdate(&update, time.Now())
			if ok {
				onProgress(event)
			}
		})
	}

	logger.InfoKV(ctx, "Starting yt-dlp download",
		"url", req.URL,
		"format", req.FormatID,
		"kind", req.Kind,
		"output", req.OutputPath)

	if _, err = cmd.Run(ctx, req.URL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	return nil
}

func (c *ClientImpl) newCommand() *ytdlp.Command {
	cmd := ytdlp.New().
		NoPlaylist().
		NoWarnings()

	if c.cfg.YTDLPPath != "" {
		cmd = cmd.SetExecutable(c.cfg.YTDLPPath)
	}

	return cmd
}

// ensureInstalled downloads a private yt-dlp build once when auto-install is enabled.
func (c *ClientImpl) ensureInstalled(ctx context.Context) error {
	if !c.cfg.AutoInstallYTDLP || c.cfg.YTDLPPath != "" {
		return nil
	}

	c.installOnce.Do(func() {
		logger.Info(ctx, "Ensuring yt-dlp is installed")

		if _, err := ytdlp.Install(ctx, nil); err != nil {
			c.installErr = fmt.Errorf("failed to install yt-dlp: %w", err)
		}
	})

	return c.installErr
}

// ParseVideoInfo decodes the output of --dump-single-json.
func ParseVideoInfo(stdout string) (*VideoInfo, error) {
	stdout = strings.TrimSpace(stdout)
	if stdout == "" {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidMetadata)
	}

	var info VideoInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	if info.ID == "" && info.Title == "" {
		return nil, fmt.Errorf("%w: missing id and title", ErrInvalidMetadata)
	}

	return &info, nil
}

// OutputTemplate turns a final file path into a yt-dlp output template.
// The extension is left to yt-dlp and literal percent signs are escaped.
func OutputTemplate(outputPath string) string {
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))

	return strings.ReplaceAll(base, "%", "%%") + ".%(ext)s"
}

// VideoFormatSelector pairs a video stream with the best audio,
// falling back to the stream alone when no separate audio exists.
func VideoFormatSelector(formatID string) string {
	return formatID + "+bestaudio/" + formatID
}

// EventFromUpdate converts a yt-dlp progress update.
// It reports false for updates that carry nothing useful.
func EventFromUpdate(update *ytdlp.ProgressUpdate, now time.Time) (ProgressEvent, bool) {
	event := ProgressEvent{
		DownloadedBytes: int64(max(update.DownloadedBytes, 0)),
		TotalBytes:      int64(max(update.TotalBytes, 0)),
		Filename:        update.Filename,
	}

	// go-ytdlp already substitutes total_bytes_estimate; fragmented streams may report neither.
	if event.TotalBytes == 0 {
		event.TotalBytes = estimateFromFragments(event.DownloadedBytes, update.FragmentIndex, update.FragmentCount)
	}

	switch update.Status {
	case ytdlp.ProgressStatusDownloading:
		event.Stage = ProgressStageDownloading
	case ytdlp.ProgressStatusFinished:
		event.Stage = ProgressStageStreamFinished
	case ytdlp.ProgressStatusPostProcessing:
		event.Stage = ProgressStagePostProcessing
	default:
		return ProgressEvent{}, false
	}

	if !update.Started.IsZero() {
		if elapsed := now.Sub(update.Started).Seconds(); elapsed > 0 {
			event.Speed = float64(event.DownloadedBytes) / elapsed
		}
	}

	return event, true
}

// estimateFromFragments extrapolates the stream size from the share of fragments received.
func estimateFromFragments(downloaded int64, index, count int) int64 {
	if downloaded <= 0 || index <= 0 || count <= 0 {
		return 0
	}

	index = min(index, count)

	return downloaded * int64(count) / int64(index)
}
