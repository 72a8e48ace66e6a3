package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_thumbnail "github.com/oshokin/tube-grabber/internal/client/thumbnail/mocks"
	"github.com/oshokin/tube-grabber/internal/client/ytdlp"
	mock_ytdlp "github.com/oshokin/tube-grabber/internal/client/ytdlp/mocks"
	"github.com/oshokin/tube-grabber/internal/config"
)

const (
	testVideoURL   = "https://www.youtube.com/watch?v=AAAAAAAAAAA"
	testVideoID    = "AAAAAAAAAAA"
	testVideoTitle = "Test Video"

	eventuallyTimeout = 5 * time.Second
	eventuallyTick    = 10 * time.Millisecond
)

// testCoordinatorSetup encapsulates common test dependencies and configuration.
type testCoordinatorSetup struct {
	ctrl            *gomock.Controller
	ytdlpClient     *mock_ytdlp.MockClient
	thumbnailClient *mock_thumbnail.MockClient
	tagProcessor    *MockTagProcessor
	resolver        PathResolver
	coordinator     Coordinator
	config          *config.Config
	tempDir         string
}

// newTestCoordinatorSetup creates a coordinator over mocked clients with optional config overrides.
func newTestCoordinatorSetup(t *testing.T, configOverrides ...func(*config.Config)) *testCoordinatorSetup {
	t.Helper()

	ctrl := gomock.NewController(t)
	tempDir := t.TempDir()

	cfg := &config.Config{
		OutputPath:     tempDir,
		VideoContainer: "mp4",
		AudioFormat:    "mp3",
		AudioQuality:   192,
		EmbedThumbnail: false,
		MaxTitleLength: config.DefaultMaxTitleLength,
	}

	for _, override := range configOverrides {
		override(cfg)
	}

	setup := &testCoordinatorSetup{
		ctrl:            ctrl,
		ytdlpClient:     mock_ytdlp.NewMockClient(ctrl),
		thumbnailClient: mock_thumbnail.NewMockClient(ctrl),
		tagProcessor:    NewMockTagProcessor(ctrl),
		resolver:        NewPathResolver(tempDir, cfg.MaxTitleLength),
		config:          cfg,
		tempDir:         tempDir,
	}

	setup.coordinator = NewCoordinator(
		t.Context(),
		cfg,
		NewURLValidator(),
		NewFormatCatalog(setup.ytdlpClient),
		setup.resolver,
		setup.ytdlpClient,
		setup.thumbnailClient,
		setup.tagProcessor,
	)

	return setup
}

// expectFetch registers a single metadata extraction of the test video.
func (s *testCoordinatorSetup) expectFetch() {
	s.ytdlpClient.EXPECT().
		FetchInfo(gomock.Any(), testVideoURL).
		Return(newTestVideoInfo(), nil).
		Times(1)
}

// videoPath returns the destination of a video format of the test video.
func (s *testCoordinatorSetup) videoPath(height string) string {
	return filepath.Join(s.tempDir, "Video", testVideoTitle+" ("+height+").mp4")
}

// waitForTerminal waits until the coordinator reports a terminal status and returns the snapshot.
func (s *testCoordinatorSetup) waitForTerminal(t *testing.T) ProgressSnapshot {
	t.Helper()

	var snapshot ProgressSnapshot

	require.Eventually(t, func() bool {
		snapshot = s.coordinator.Progress()

		return snapshot.Status.IsTerminal()
	}, eventuallyTimeout, eventuallyTick)

	return snapshot
}

// newTestVideoInfo returns metadata with two video formats and one audio format.
func newTestVideoInfo() *ytdlp.VideoInfo {
	return &ytdlp.VideoInfo{
		ID:        testVideoID,
		Title:     testVideoTitle,
		Uploader:  "Test Channel",
		Duration:  3725,
		Thumbnail: "https://i.ytimg.com/vi/AAAAAAAAAAA/maxresdefault.jpg",
		Formats: []ytdlp.Format{
			{FormatID: "format-720p", Ext: "mp4", VCodec: "avc1.64001F", ACodec: "none", Height: 720, TBR: 2500, Filesize: 1000},
			{FormatID: "format-480p", Ext: "mp4", VCodec: "avc1.4d401e", ACodec: "none", Height: 480, TBR: 1000},
			{FormatID: "format-128k", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", ABR: 128, TBR: 128},
		},
	}
}

// writeOutput creates the file yt-dlp would have produced.
func writeOutput(path string, size int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, make([]byte, size), 0o600)
}

// waitDone waits for the download worker, failing the test on timeout.
func waitDone(t *testing.T, c Coordinator) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), eventuallyTimeout)
	defer cancel()

	require.NoError(t, c.Wait(ctx))
}
