// Package thumbnail downloads video thumbnails so they can be embedded into audio files.
package thumbnail
