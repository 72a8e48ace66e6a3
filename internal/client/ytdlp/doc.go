// Package ytdlp wraps the yt-dlp executable.
// It extracts video metadata, downloads and transcodes a selected format into a
// fixed destination and reports byte progress through a callback.
// Extracted metadata is cached per URL.
// FFmpeg is located through the configuration, PATH or the application's bundled tools directory.
package ytdlp
