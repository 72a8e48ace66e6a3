package ytdlp

// VideoInfo is the subset of yt-dlp's JSON dump used by the application.
type VideoInfo struct {
	// ID is the platform video identifier.
	ID string `json:"id"`
	// Title is the video title.
	Title string `json:"title"`
	// Uploader is the channel or uploader name.
	Uploader string `json:"uploader"`
	// Duration is the length in seconds.
	Duration float64 `json:"duration"`
	// Thumbnail is the default thumbnail URL.
	Thumbnail string `json:"thumbnail"`
	// Thumbnails lists every available thumbnail.
	Thumbnails []Thumbnail `json:"thumbnails"`
	// Formats lists every available stream.
	Formats []Format `json:"formats"`
	// WebpageURL is the canonical page URL.
	WebpageURL string `json:"webpage_url"`
}

// Thumbnail is one thumbnail variant.
type Thumbnail struct {
	// URL is the image location.
	URL string `json:"url"`
	// Width is the image width in pixels, 0 when unknown.
	Width int `json:"width"`
	// Height is the image height in pixels, 0 when unknown.
	Height int `json:"height"`
	// Preference is yt-dlp's ranking, higher is better.
	Preference int `json:"preference"`
}

// Format is one downloadable stream.
type Format struct {
	// FormatID is the identifier passed back to yt-dlp.
	FormatID string `json:"format_id"`
	// FormatNote is a short human description such as "720p" or "medium".
	FormatNote string `json:"format_note"`
	// Ext is the container extension.
	Ext string `json:"ext"`
	// VCodec is the video codec or "none".
	VCodec string `json:"vcodec"`
	// ACodec is the audio codec or "none".
	ACodec string `json:"acodec"`
	// Width is the frame width.
	Width float64 `json:"width"`
	// Height is the frame height.
	Height float64 `json:"height"`
	// FPS is the frame rate.
	FPS float64 `json:"fps"`
	// ABR is the audio bitrate in kbps.
	ABR float64 `json:"abr"`
	// TBR is the total bitrate in kbps.
	TBR float64 `json:"tbr"`
	// Filesize is the exact size in bytes, 0 when unknown.
	Filesize float64 `json:"filesize"`
	// FilesizeApprox is the estimated size in bytes, 0 when unknown.
	FilesizeApprox float64 `json:"filesize_approx"`
	// Protocol is the transfer protocol, e.g. "https" or "m3u8_native".
	Protocol string `json:"protocol"`
}

// HasVideo reports whether the stream carries video.
func (f *Format) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != codecNone
}

// HasAudio reports whether the stream carries audio.
func (f *Format) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != codecNone
}

// MediaKind selects how a download is post-processed.
type MediaKind string

const (
	// MediaKindVideo merges the selected video stream with the best audio.
	MediaKindVideo MediaKind = "video"
	// MediaKindAudio extracts and converts audio.
	MediaKindAudio MediaKind = "audio"
)

// DownloadRequest describes one download job.
type DownloadRequest struct {
	// URL is the page URL.
	URL string
	// FormatID is the selected stream.
	FormatID string
	// Kind selects video merging or audio extraction.
	Kind MediaKind
	// OutputPath is the exact final file path, extension included.
	OutputPath string
	// TempDir holds intermediate files.
	TempDir string
}

// ProgressStage tells what a progress event describes.
type ProgressStage string

const (
	// ProgressStageDownloading is a byte-count update for the current stream.
	ProgressStageDownloading ProgressStage = "downloading"
	// ProgressStageStreamFinished marks the end of one stream; more streams or post-processing may follow.
	ProgressStageStreamFinished ProgressStage = "stream_finished"
	// ProgressStagePostProcessing marks the start of merging or conversion.
	ProgressStagePostProcessing ProgressStage = "post_processing"
)

// ProgressEvent is a single progress report from yt-dlp.
type ProgressEvent struct {
	// Stage is the kind of report.
	Stage ProgressStage
	// DownloadedBytes is the number of bytes of the current stream received so far.
	DownloadedBytes int64
	// TotalBytes is the expected size of the current stream, 0 when unknown.
	TotalBytes int64
	// Speed is the average rate of the current stream in bytes per second.
	Speed float64
	// Filename is the file the current stream is written to.
	Filename string
}

// ProgressFunc receives progress events. It is called on the downloading goroutine.
type ProgressFunc func(event ProgressEvent)
