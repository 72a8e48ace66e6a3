package thumbnail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/utils"
)

//nolint:gochecknoglobals // Test fixtures.
var (
	pngHeader     = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	testUserAgent = utils.NewStaticUserAgentProvider("", "ThumbTest/0.1")
)

// TestClientImpl_Fetch tests the Fetch method against a local server.
func TestClientImpl_Fetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		handler      http.HandlerFunc
		expectedErr  error
		expectedMime string
	}{
		{
			name: "image with content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "image/webp")
				_, _ = w.Write([]byte("RIFF....WEBPVP8 "))
			},
			expectedMime: utils.ImageWebPMimeType,
		},
		{
			name: "image detected from content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = w.Write(pngHeader)
			},
			expectedMime: utils.ImagePNGMimeType,
		},
		{
			name: "not an image",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte("<html>nope</html>"))
			},
			expectedErr: ErrNotAnImage,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expectedErr: ErrUnexpectedHTTPStatus,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			expectedErr: ErrEmptyImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClientWithTransport(http.DefaultTransport, testUserAgent, 5*time.Second)

			image, err := client.Fetch(context.Background(), server.URL+"/maxresdefault.jpg")
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, image)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, image)
			assert.Equal(t, tt.expectedMime, image.MimeType)
			assert.NotEmpty(t, image.Data)
		})
	}
}

// TestClientImpl_Fetch_EmptyURL tests that an empty URL is rejected without a request.
func TestClientImpl_Fetch_EmptyURL(t *testing.T) {
	t.Parallel()

	client := NewClientWithTransport(http.DefaultTransport, testUserAgent, 0)

	_, err := client.Fetch(context.Background(), " ")
	require.ErrorIs(t, err, ErrEmptyURL)
}

// TestNewClient tests that the configured user agent reaches the server.
func TestNewClient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ThumbTest/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer server.Close()

	cfg := config.Defaults()
	cfg.UserAgent = "ThumbTest/1.0"
	cfg.ParsedThumbnailTimeout = 5 * time.Second

	image, err := NewClient(cfg).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, utils.ImagePNGMimeType, image.MimeType)
}
