package media

import "errors"

// Common errors for the media service.
var (
	// ErrInvalidURL indicates that the URL is not a supported video page.
	ErrInvalidURL = errors.New("invalid or unsupported URL")
	// ErrMetadataFetch indicates that extracting metadata failed.
	ErrMetadataFetch = errors.New("failed to fetch video metadata")
	// ErrFormatNotFound indicates that the requested format is not in the cached metadata.
	ErrFormatNotFound = errors.New("format not found")
	// ErrDownloadInProgress indicates that a download is already running for the session.
	ErrDownloadInProgress = errors.New("download already in progress")
	// ErrDownloadFailed indicates that the external download or conversion failed.
	ErrDownloadFailed = errors.New("download failed")
	// ErrOutputMissing indicates that the output file is absent after a reported success.
	ErrOutputMissing = errors.New("download finished but the output file is missing")
	// ErrFFmpegNotFound indicates that ffmpeg could not be located.
	ErrFFmpegNotFound = errors.New("ffmpeg is required for conversion")
	// ErrEmptyTrackPath indicates that the audio file path is empty.
	ErrEmptyTrackPath = errors.New("track path cannot be empty")
)
