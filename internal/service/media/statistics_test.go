package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUptime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		duration time.Duration
		want     string
	}{
		{500 * time.Millisecond, "500ms"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + time.Minute + time.Second, "2h 1m 1s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, formatUptime(tt.duration))
		})
	}
}

func TestCoordinator_Statistics(t *testing.T) {
	t.Parallel()

	setup := newTestCoordinatorSetup(t)
	c, ok := setup.coordinator.(*CoordinatorImpl)
	if !assert.True(t, ok) {
		return
	}

	c.incrementStarted()
	c.incrementStarted()
	c.incrementFinished(1500)
	c.incrementSkipped()
	c.incrementFailed(DownloadError{URL: testVideoURL, FormatID: "18", Message: "boom"})

	stats := c.Statistics()
	assert.Equal(t, int64(2), stats.DownloadsStarted)
	assert.Equal(t, int64(1), stats.DownloadsFinished)
	assert.Equal(t, int64(1), stats.DownloadsSkipped)
	assert.Equal(t, int64(1), stats.DownloadsFailed)
	assert.Equal(t, "1.5 kB", stats.BytesText)
	assert.NotEmpty(t, stats.Uptime)
	assert.Len(t, stats.Errors, 1)

	// The returned copy is detached from the coordinator.
	stats.Errors[0].Message = "changed"
	assert.Equal(t, "boom", c.Statistics().Errors[0].Message)

	c.PrintDownloadSummary(t.Context())
}
