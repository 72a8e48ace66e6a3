// Package media implements the download workflow behind the web UI:
// URL validation, the format catalog, output path resolution,
// progress tracking and the single-session download coordinator.
package media
