package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/constants"
)

const sampleDump = `{
  "id": "dQw4w9WgXcQ",
  "title": "Never Gonna Give You Up",
  "uploader": "Rick Astley",
  "duration": 213,
  "thumbnail": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
  "webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
  "thumbnails": [
    {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg", "width": 120, "height": 90, "preference": -10},
    {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/sq.jpg", "width": 720, "height": 720, "preference": -5}
  ],
  "formats": [
    {"format_id": "140", "ext": "m4a", "vcodec": "none", "acodec": "mp4a.40.2", "abr": 129.5, "filesize": 3433514},
    {"format_id": "137", "ext": "mp4", "vcodec": "avc1.640028", "acodec": "none", "height": 1080, "fps": 25,
     "tbr": 4400.1, "filesize": null, "filesize_approx": 117000000},
    {"format_id": "sb0", "ext": "mhtml", "vcodec": "none", "acodec": "none"}
  ]
}`

// newTestClient creates a client with validated defaults.
func newTestClient(t *testing.T, modify func(cfg *config.Config)) *ClientImpl {
	t.Helper()

	cfg := config.Defaults()
	cfg.OutputPath = t.TempDir()

	if modify != nil {
		modify(cfg)
	}

	require.NoError(t, config.ValidateConfig(cfg))

	client, err := NewClient(cfg)
	require.NoError(t, err)

	impl, ok := client.(*ClientImpl)
	require.True(t, ok)

	return impl
}

// TestParseVideoInfo tests decoding of yt-dlp JSON output.
func TestParseVideoInfo(t *testing.T) {
	t.Parallel()

	info, err := ParseVideoInfo(sampleDump)
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", info.ID)
	assert.Equal(t, "Never Gonna Give You Up", info.Title)
	assert.Equal(t, "Rick Astley", info.Uploader)
	assert.InDelta(t, 213.0, info.Duration, 0.001)
	require.Len(t, info.Thumbnails, 2)
	assert.Equal(t, 720, info.Thumbnails[1].Width)
	require.Len(t, info.Formats, 3)

	audio := info.Formats[0]
	assert.True(t, audio.HasAudio())
	assert.False(t, audio.HasVideo())
	assert.InDelta(t, 129.5, audio.ABR, 0.001)
	assert.InDelta(t, 3433514.0, audio.Filesize, 0.001)

	video := info.Formats[1]
	assert.True(t, video.HasVideo())
	assert.False(t, video.HasAudio())
	assert.InDelta(t, 1080.0, video.Height, 0.001)
	assert.Zero(t, video.Filesize)
	assert.InDelta(t, 117000000.0, video.FilesizeApprox, 0.001)

	storyboard := info.Formats[2]
	assert.False(t, storyboard.HasVideo())
	assert.False(t, storyboard.HasAudio())
}

// TestParseVideoInfo_Errors tests rejection of unusable output.
func TestParseVideoInfo_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stdout string
	}{
		{
			name:   "empty output",
			stdout: "  \n",
		},
		{
			name:   "not json",
			stdout: "ERROR: Video unavailable",
		},
		{
			name:   "json without identity",
			stdout: `{"formats": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info, err := ParseVideoInfo(tt.stdout)
			require.ErrorIs(t, err, ErrInvalidMetadata)
			assert.Nil(t, info)
		})
	}
}

// TestOutputTemplate tests the output template builder.
func TestOutputTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "video path",
			path:     filepath.Join("base", "Video", "Title (720p).mp4"),
			expected: filepath.Join("base", "Video", "Title (720p)") + ".%(ext)s",
		},
		{
			name:     "percent signs are escaped",
			path:     filepath.Join("base", "Audio", "100% Hits (128kbps).mp3"),
			expected: filepath.Join("base", "Audio", "100%% Hits (128kbps)") + ".%(ext)s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, OutputTemplate(tt.path))
		})
	}
}

// TestVideoFormatSelector tests the video format selector.
func TestVideoFormatSelector(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "137+bestaudio/137", VideoFormatSelector("137"))
}

// TestEventFromUpdate tests conversion of yt-dlp progress updates.
func TestEventFromUpdate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		update   ytdlp.ProgressUpdate
		expected ProgressEvent
		ok       bool
	}{
		{
			name: "downloading with speed",
			update: ytdlp.ProgressUpdate{
				Status:          ytdlp.ProgressStatusDownloading,
				DownloadedBytes: 4000,
				TotalBytes:      10000,
				Filename:        "clip.f137.mp4",
				Started:         now.Add(-2 * time.Second),
			},
			expected: ProgressEvent{
				Stage:           ProgressStageDownloading,
				DownloadedBytes: 4000,
				TotalBytes:      10000,
				Speed:           2000,
				Filename:        "clip.f137.mp4",
			},
			ok: true,
		},
		{
			name: "stream finished",
			update: ytdlp.ProgressUpdate{
				Status:          ytdlp.ProgressStatusFinished,
				DownloadedBytes: 10000,
				TotalBytes:      10000,
				Filename:        "clip.f137.mp4",
			},
			expected: ProgressEvent{
				Stage:           ProgressStageStreamFinished,
				DownloadedBytes: 10000,
				TotalBytes:      10000,
				Filename:        "clip.f137.mp4",
			},
			ok: true,
		},
		{
			name: "post processing",
			update: ytdlp.ProgressUpdate{
				Status: ytdlp.ProgressStatusPostProcessing,
			},
			expected: ProgressEvent{
				Stage: ProgressStagePostProcessing,
			},
			ok: true,
		},
		{
			name: "negative counters are clamped",
			update: ytdlp.ProgressUpdate{
				Status:          ytdlp.ProgressStatusDownloading,
				DownloadedBytes: -1,
				TotalBytes:      -1,
			},
			expected: ProgressEvent{
				Stage: ProgressStageDownloading,
			},
			ok: true,
		},
		{
			name: "fragmented stream without total is extrapolated",
			update: ytdlp.ProgressUpdate{
				Status:          ytdlp.ProgressStatusDownloading,
				DownloadedBytes: 3000,
				FragmentIndex:   3,
				FragmentCount:   10,
				Filename:        "clip.f95.mp4",
			},
			expected: ProgressEvent{
				Stage:           ProgressStageDownloading,
				DownloadedBytes: 3000,
				TotalBytes:      10000,
				Filename:        "clip.f95.mp4",
			},
			ok: true,
		},
		{
			name: "reported total wins over fragments",
			update: ytdlp.ProgressUpdate{
				Status:          ytdlp.ProgressStatusDownloading,
				DownloadedBytes: 3000,
				TotalBytes:      12000,
				FragmentIndex:   3,
				FragmentCount:   10,
			},
			expected: ProgressEvent{
				Stage:           ProgressStageDownloading,
				DownloadedBytes: 3000,
				TotalBytes:      12000,
			},
			ok: true,
		},
		{
			name: "unknown total without fragments stays unknown",
			update: ytdlp.ProgressUpdate{
				Status:          ytdlp.ProgressStatusDownloading,
				DownloadedBytes: 3000,
			},
			expected: ProgressEvent{
				Stage:           ProgressStageDownloading,
				DownloadedBytes: 3000,
			},
			ok: true,
		},
		{
			name: "starting is skipped",
			update: ytdlp.ProgressUpdate{
				Status: ytdlp.ProgressStatus("starting"),
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			event, ok := EventFromUpdate(&tt.update, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, event)
		})
	}
}

// TestClientImpl_FetchInfo_UsesCache tests that cached metadata is returned without running yt-dlp.
func TestClientImpl_FetchInfo_UsesCache(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, nil)

	cached, err := ParseVideoInfo(sampleDump)
	require.NoError(t, err)

	url := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	client.infoCache.Add(url, cached)

	info, err := client.FetchInfo(context.Background(), url)
	require.NoError(t, err)
	assert.Same(t, cached, info)
}

// TestClientImpl_Download_InvalidRequest tests request validation.
func TestClientImpl_Download_InvalidRequest(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, nil)

	tests := []struct {
		name string
		req  *DownloadRequest
	}{
		{
			name: "nil request",
			req:  nil,
		},
		{
			name: "missing format",
			req:  &DownloadRequest{URL: "https://youtu.be/dQw4w9WgXcQ", OutputPath: "out.mp4"},
		},
		{
			name: "missing output",
			req:  &DownloadRequest{URL: "https://youtu.be/dQw4w9WgXcQ", FormatID: "137"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := client.Download(context.Background(), tt.req, nil)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

// TestClientImpl_Download_MissingFFmpeg tests that a missing ffmpeg is reported before yt-dlp runs.
func TestClientImpl_Download_MissingFFmpeg(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "no-such-ffmpeg")
	client := newTestClient(t, func(cfg *config.Config) {
		cfg.FFmpegLocation = missing
	})

	err := client.Download(context.Background(), &DownloadRequest{
		URL:        "https://youtu.be/dQw4w9WgXcQ",
		FormatID:   "140",
		Kind:       MediaKindAudio,
		OutputPath: filepath.Join(t.TempDir(), "out.mp3"),
	}, nil)
	require.ErrorIs(t, err, ErrFFmpegNotFound)
}

// TestFFmpegLocator_Locate tests the lookup order of the ffmpeg locator.
func TestFFmpegLocator_Locate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	binary := filepath.Join(dir, ffmpegExecutableName())
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), constants.DefaultFolderPermissions))

	notInPath := func(string) (string, error) { return "", errors.New("not found") }
	inPath := func(string) (string, error) { return "/usr/bin/ffmpeg", nil }

	tests := []struct {
		name        string
		locator     *FFmpegLocator
		expected    string
		expectedErr error
	}{
		{
			name:     "explicit binary",
			locator:  &FFmpegLocator{explicit: binary, lookPath: inPath},
			expected: binary,
		},
		{
			name:     "explicit directory",
			locator:  &FFmpegLocator{explicit: dir, lookPath: inPath},
			expected: binary,
		},
		{
			name:        "explicit location without ffmpeg",
			locator:     &FFmpegLocator{explicit: t.TempDir(), lookPath: inPath},
			expectedErr: ErrFFmpegNotFound,
		},
		{
			name:     "found in PATH",
			locator:  &FFmpegLocator{lookPath: inPath, bundledDir: dir},
			expected: "/usr/bin/ffmpeg",
		},
		{
			name:     "bundled fallback",
			locator:  &FFmpegLocator{lookPath: notInPath, bundledDir: dir},
			expected: binary,
		},
		{
			name:        "nowhere",
			locator:     &FFmpegLocator{lookPath: notInPath, bundledDir: filepath.Join(dir, "missing")},
			expectedErr: ErrFFmpegNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, err := tt.locator.Locate()
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
		})
	}
}

// TestNewFFmpegLocator tests the default locator wiring.
func TestNewFFmpegLocator(t *testing.T) {
	t.Parallel()

	locator := NewFFmpegLocator("  /opt/ffmpeg  ")
	assert.Equal(t, "/opt/ffmpeg", locator.explicit)
	assert.NotNil(t, locator.lookPath)
	assert.Equal(t, BundledToolsDir(), locator.bundledDir)
}
