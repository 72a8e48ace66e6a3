// Package server exposes the media coordinator over a local HTTP API built on gin.
package server
