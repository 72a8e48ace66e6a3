package media

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// FormatKind tells whether a format carries video.
type FormatKind string

const (
	// FormatKindVideo is a stream with a video codec, with or without audio.
	FormatKindVideo FormatKind = "video"
	// FormatKindAudio is an audio-only stream.
	FormatKindAudio FormatKind = "audio"
)

// QualityBucket is a coarse quality label shown to the user.
type QualityBucket string

const (
	// QualityBucketLow is below 480p or below 64 kbps.
	QualityBucketLow QualityBucket = "low"
	// QualityBucketMedium is 480p-719p or 64-127 kbps.
	QualityBucketMedium QualityBucket = "medium"
	// QualityBucketHigh is 720p and above or 128 kbps and above.
	QualityBucketHigh QualityBucket = "high"
)

const (
	videoHighMinHeight   = 720
	videoMediumMinHeight = 480
	audioHighMinABR      = 128
	audioMediumMinABR    = 64
)

// FormatDescriptor is one selectable stream.
type FormatDescriptor struct {
	// FormatID is the opaque identifier passed back when starting a download.
	FormatID string `json:"format_id"`
	// Kind is video when a video codec is present, audio otherwise.
	Kind FormatKind `json:"kind"`
	// Height is the frame height for video formats.
	Height int `json:"height,omitempty"`
	// ABR is the rounded audio bitrate in kbps for audio formats.
	ABR int `json:"abr,omitempty"`
	// FPS is the frame rate for video formats.
	FPS int `json:"fps,omitempty"`
	// Ext is the source container extension.
	Ext string `json:"ext"`
	// VCodec is the video codec, empty for audio formats.
	VCodec string `json:"vcodec,omitempty"`
	// ACodec is the audio codec, empty for video-only formats.
	ACodec string `json:"acodec,omitempty"`
	// Filesize is the size in bytes, 0 when unknown.
	Filesize int64 `json:"filesize"`
	// HasAudio reports a muxed video stream.
	HasAudio bool `json:"has_audio"`
	// SizeText is Filesize in human-readable form, empty when unknown.
	SizeText string `json:"size_text,omitempty"`
	// TBR is the total bitrate used to break ties during de-duplication.
	TBR float64 `json:"-"`
}

// IsVideo reports whether the format is a video stream.
func (f *FormatDescriptor) IsVideo() bool {
	return f.Kind == FormatKindVideo
}

// QualityBucket derives the bucket from the numeric quality.
func (f *FormatDescriptor) QualityBucket() QualityBucket {
	if f.IsVideo() {
		switch {
		case f.Height >= videoHighMinHeight:
			return QualityBucketHigh
		case f.Height >= videoMediumMinHeight:
			return QualityBucketMedium
		default:
			return QualityBucketLow
		}
	}

	switch {
	case f.ABR >= audioHighMinABR:
		return QualityBucketHigh
	case f.ABR >= audioMediumMinABR:
		return QualityBucketMedium
	default:
		return QualityBucketLow
	}
}

// QualityLabel is the label used in file names, e.g. "720p" or "128kbps".
func (f *FormatDescriptor) QualityLabel() string {
	if f.IsVideo() {
		return fmt.Sprintf("%dp", f.Height)
	}

	return fmt.Sprintf("%dkbps", f.ABR)
}

// qualityValue is the numeric quality used for sorting and de-duplication.
func (f *FormatDescriptor) qualityValue() int {
	if f.IsVideo() {
		return f.Height
	}

	return f.ABR
}

// MarshalJSON adds the derived quality fields.
func (f FormatDescriptor) MarshalJSON() ([]byte, error) {
	type plain FormatDescriptor

	return json.Marshal(struct {
		plain
		QualityBucket QualityBucket `json:"quality_bucket"`
		QualityLabel  string        `json:"quality_label"`
	}{
		plain:         plain(f),
		QualityBucket: f.QualityBucket(),
		QualityLabel:  f.QualityLabel(),
	})
}

// Metadata is the inspected description of one video.
type Metadata struct {
	// ID is the platform video identifier.
	ID string `json:"id"`
	// Title is the video title.
	Title string `json:"title"`
	// Uploader is the channel name.
	Uploader string `json:"uploader,omitempty"`
	// Duration is the length in whole seconds.
	Duration int64 `json:"duration"`
	// DurationText is Duration formatted as HH:MM:SS or MM:SS.
	DurationText string `json:"duration_text"`
	// ThumbnailURL is the chosen thumbnail.
	ThumbnailURL string `json:"thumbnail"`
	// Formats are the de-duplicated formats, best first within each kind.
	Formats []FormatDescriptor `json:"formats"`
}

// FindFormat returns the descriptor with the given identifier.
func (m *Metadata) FindFormat(formatID string) (*FormatDescriptor, bool) {
	for i := range m.Formats {
		if m.Formats[i].FormatID == formatID {
			return &m.Formats[i], true
		}
	}

	return nil, false
}

// ProgressStatus is the state of a download.
type ProgressStatus string

const (
	// ProgressStatusNotStarted means no download exists yet.
	ProgressStatusNotStarted ProgressStatus = "not_started"
	// ProgressStatusDownloading means a worker is running.
	ProgressStatusDownloading ProgressStatus = "downloading"
	// ProgressStatusFinished is terminal success.
	ProgressStatusFinished ProgressStatus = "finished"
	// ProgressStatusError is terminal failure.
	ProgressStatusError ProgressStatus = "error"
)

// IsTerminal reports whether the status can no longer change.
func (s ProgressStatus) IsTerminal() bool {
	return s == ProgressStatusFinished || s == ProgressStatusError
}

// ProgressSnapshot is an immutable copy of a progress record.
type ProgressSnapshot struct {
	// Status is the download state.
	Status ProgressStatus `json:"status"`
	// DownloadedBytes is the number of bytes received, non-decreasing during a download.
	DownloadedBytes int64 `json:"downloaded_bytes"`
	// TotalBytes is the expected size, 0 when unknown.
	TotalBytes int64 `json:"total_bytes"`
	// Speed is the current rate in bytes per second.
	Speed float64 `json:"speed"`
	// Percentage is DownloadedBytes relative to TotalBytes, 0-100.
	Percentage float64 `json:"percentage"`
	// Filename is the file being written or the final output path.
	Filename string `json:"filename"`
	// Error is the failure message for the error status.
	Error string `json:"error,omitempty"`
}

// NotStartedSnapshot is returned when there is nothing to report.
func NotStartedSnapshot() ProgressSnapshot {
	return ProgressSnapshot{Status: ProgressStatusNotStarted}
}

// percentage returns downloaded relative to total, rounded to one decimal place.
func percentage(downloaded, total int64) float64 {
	if total <= 0 {
		return 0
	}

	value := float64(downloaded) / float64(total) * 100 //nolint:mnd // Percent.

	return math.Min(math.Round(value*10)/10, 100) //nolint:mnd // One decimal place.
}

// StartResult is returned by a successful StartDownload.
type StartResult struct {
	// Status is always "started".
	Status string `json:"status"`
	// Filename is the destination path.
	Filename string `json:"filename"`
	// AlreadyExists is set when the file was already on disk and no worker was started.
	AlreadyExists bool `json:"already_exists,omitempty"`
}

// startedStatus is the status returned by StartDownload.
const startedStatus = "started"

// DownloadStatistics aggregates the downloads of one process.
type DownloadStatistics struct {
	// DownloadsStarted counts spawned workers.
	DownloadsStarted int64 `json:"downloads_started"`
	// DownloadsSkipped counts starts served from an existing file.
	DownloadsSkipped int64 `json:"downloads_skipped"`
	// DownloadsFinished counts successful workers.
	DownloadsFinished int64 `json:"downloads_finished"`
	// DownloadsFailed counts failed workers.
	DownloadsFailed int64 `json:"downloads_failed"`
	// BytesDownloaded is the size of all finished output files.
	BytesDownloaded int64 `json:"bytes_downloaded"`
	// BytesText is BytesDownloaded in human-readable form.
	BytesText string `json:"bytes_text"`
	// StartTime is when the coordinator was created.
	StartTime time.Time `json:"start_time"`
	// Uptime is the time since StartTime, formatted.
	Uptime string `json:"uptime"`
	// Errors lists the failed downloads.
	Errors []DownloadError `json:"errors,omitempty"`
}

// DownloadError describes one failed download.
type DownloadError struct {
	// URL is the page URL.
	URL string `json:"url"`
	// FormatID is the selected stream.
	FormatID string `json:"format_id"`
	// Path is the destination file.
	Path string `json:"path"`
	// Message is the error text.
	Message string `json:"message"`
}
