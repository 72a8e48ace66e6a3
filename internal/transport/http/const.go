package http

import "time"

const (
	// DefaultTimeout is the default timeout duration for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryCount is the number of retries for idempotent requests.
	DefaultRetryCount = 2

	// DefaultUserAgent mimics a common browser; some image CDNs reject unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36" //nolint: lll
)
