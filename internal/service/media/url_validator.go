package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/oshokin/tube-grabber/internal/utils"
)

// URLValidator checks that a URL points at a single supported video.
type URLValidator interface {
	// Validate returns the video identifier carried by rawURL.
	Validate(rawURL string) (string, error)
}

// URLValidatorImpl implements URLValidator with a host allow-list and path patterns.
type URLValidatorImpl struct{}

// videoIDGroup is the named group holding the video identifier.
const videoIDGroup = "ID"

// allowedHosts lists the accepted hosts.
//
//nolint:gochecknoglobals // Immutable lookup table.
var allowedHosts = map[string]struct{}{
	"youtube.com":       {},
	"www.youtube.com":   {},
	"m.youtube.com":     {},
	"music.youtube.com": {},
	"youtu.be":          {},
}

// videoURLPatterns match the path and query of a video URL.
// Short links are only accepted on the short host.
//
//nolint:gochecknoglobals // Immutable lookup table.
var videoURLPatterns = []struct {
	// ShortHostOnly restricts the pattern to youtu.be.
	ShortHostOnly bool
	// Pattern matches "path?query" and captures the identifier.
	Pattern *regexp.Regexp
}{
	{false, regexp.MustCompile(`^/watch\?(?:.*&)?v=(?<ID>[A-Za-z0-9_-]{11})(?:&|$)`)},
	{false, regexp.MustCompile(`^/embed/(?<ID>[A-Za-z0-9_-]{11})(?:[/?]|$)`)},
	{false, regexp.MustCompile(`^/v/(?<ID>[A-Za-z0-9_-]{11})(?:[/?]|$)`)},
	{true, regexp.MustCompile(`^/(?<ID>[A-Za-z0-9_-]{11})(?:[/?]|$)`)},
}

const shortHost = "youtu.be"

// NewURLValidator creates and returns a new instance of URLValidatorImpl.
func NewURLValidator() URLValidator {
	return new(URLValidatorImpl)
}

// Validate returns the video identifier carried by rawURL.
func (v *URLValidatorImpl) Validate(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidURL)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme '%s'", ErrInvalidURL, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if _, ok := allowedHosts[host]; !ok {
		return "", fmt.Errorf("%w: unsupported host '%s'", ErrInvalidURL, host)
	}

	target := parsed.EscapedPath()
	if parsed.RawQuery != "" {
		target += "?" + parsed.RawQuery
	}

	for _, p := range videoURLPatterns {
		if p.ShortHostOnly != (host == shortHost) {
			continue
		}

		if id := utils.ExtractNamedGroup(p.Pattern, videoIDGroup, target); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: no video identifier in '%s'", ErrInvalidURL, rawURL)
}
