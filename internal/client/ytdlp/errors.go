package ytdlp

import "errors"

var (
	// ErrExtractionFailed indicates that yt-dlp could not extract metadata.
	ErrExtractionFailed = errors.New("metadata extraction failed")
	// ErrInvalidMetadata indicates that yt-dlp produced output that is not valid metadata.
	ErrInvalidMetadata = errors.New("invalid metadata output")
	// ErrDownloadFailed indicates that yt-dlp exited with an error while downloading.
	ErrDownloadFailed = errors.New("yt-dlp download failed")
	// ErrFFmpegNotFound indicates that no ffmpeg executable could be located.
	ErrFFmpegNotFound = errors.New("ffmpeg not found")
	// ErrInvalidRequest indicates an incomplete download request.
	ErrInvalidRequest = errors.New("invalid download request")
)
