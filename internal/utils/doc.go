// Package utils provides small helpers shared across the application:
// filename sanitizing and truncation, filesystem checks, safe numeric conversions
// and content type detection.
package utils
