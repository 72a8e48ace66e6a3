package thumbnail

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oshokin/tube-grabber/internal/config"
	http_transport "github.com/oshokin/tube-grabber/internal/transport/http"
	"github.com/oshokin/tube-grabber/internal/utils"
)

// Client downloads thumbnail images.
type Client interface {
	// Fetch downloads the image at url.
	Fetch(ctx context.Context, url string) (*Image, error)
}

// Image is a downloaded thumbnail.
type Image struct {
	// Data is the raw image content.
	Data []byte
	// MimeType is the detected MIME type, e.g. "image/jpeg".
	MimeType string
}

// ClientImpl implements Client on top of resty.
type ClientImpl struct {
	// resty is the configured HTTP client.
	resty *resty.Client
}

const (
	retryWaitTime    = 500 * time.Millisecond
	retryMaxWaitTime = 3 * time.Second
)

// NewClient creates a thumbnail client using the shared transport chain.
func NewClient(cfg *config.Config) Client {
	userAgentProvider := utils.NewStaticUserAgentProvider(cfg.UserAgent, http_transport.DefaultUserAgent)

	return NewClientWithTransport(
		http_transport.NewTransport(http.DefaultTransport, userAgentProvider, cfg.ParsedMaxLogLength),
		userAgentProvider,
		cfg.ParsedThumbnailTimeout)
}

// NewClientWithTransport creates a thumbnail client over an explicit transport.
func NewClientWithTransport(
	transport http.RoundTripper,
	userAgentProvider utils.UserAgentProvider,
	timeout time.Duration,
) Client {
	if timeout <= 0 {
		timeout = http_transport.DefaultTimeout
	}

	restyClient := resty.New().
		SetTransport(transport).
		SetTimeout(timeout).
		SetRetryCount(http_transport.DefaultRetryCount).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		SetHeader("User-Agent", userAgentProvider.GetUserAgent()).
		SetHeader("Accept", "image/avif,image/webp,image/png,image/jpeg,*/*;q=0.8")

	restyClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}

		return r.StatusCode() >= http.StatusInternalServerError || r.StatusCode() == http.StatusTooManyRequests
	})

	return &ClientImpl{resty: restyClient}
}

// Fetch downloads the image at url and detects its MIME type.
func (c *ClientImpl) Fetch(ctx context.Context, url string) (*Image, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}

	resp, err := c.resty.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thumbnail: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, resp.StatusCode())
	}

	data := resp.Body()
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	mimeType := detectMimeType(resp.Header().Get("Content-Type"), data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, mimeType)
	}

	return &Image{
		Data:     data,
		MimeType: mimeType,
	}, nil
}

// detectMimeType trusts an image Content-Type header and sniffs the content otherwise.
func detectMimeType(contentType string, data []byte) string {
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(parsed, "image/") {
		return parsed
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))

	return sniffed
}
