package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewStaticUserAgentProvider tests the NewStaticUserAgentProvider function.
func TestNewStaticUserAgentProvider(t *testing.T) {
	t.Parallel()

	provider := NewStaticUserAgentProvider("TestAgent/1.0", "Fallback/1.0")

	assert.NotNil(t, provider)
	assert.Implements(t, (*UserAgentProvider)(nil), provider)
}

// TestStaticUserAgentProvider_GetUserAgent tests the GetUserAgent method.
func TestStaticUserAgentProvider_GetUserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		userAgent string
		fallback  string
		expected  string
	}{
		{
			name:      "configured user agent",
			userAgent: "Mozilla/5.0",
			fallback:  "Fallback/1.0",
			expected:  "Mozilla/5.0",
		},
		{
			name:      "empty user agent uses fallback",
			userAgent: "",
			fallback:  "Fallback/1.0",
			expected:  "Fallback/1.0",
		},
		{
			name:      "blank user agent uses fallback",
			userAgent: "   ",
			fallback:  "Fallback/1.0",
			expected:  "Fallback/1.0",
		},
		{
			name:      "surrounding whitespace is trimmed",
			userAgent: "  TubeGrabber/1.0.0 ",
			fallback:  "Fallback/1.0",
			expected:  "TubeGrabber/1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := NewStaticUserAgentProvider(tt.userAgent, tt.fallback)
			assert.Equal(t, tt.expected, provider.GetUserAgent())
		})
	}
}

// TestStaticUserAgentProvider_MultipleInstances tests that multiple instances work independently.
func TestStaticUserAgentProvider_MultipleInstances(t *testing.T) {
	t.Parallel()

	provider1 := NewStaticUserAgentProvider("Agent1", "")
	provider2 := NewStaticUserAgentProvider("Agent2", "")

	assert.Equal(t, "Agent1", provider1.GetUserAgent())
	assert.Equal(t, "Agent2", provider2.GetUserAgent())
}
