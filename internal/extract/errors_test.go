package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errpkg "github.com/billzhuang6569/gravity/internal/errors"
)

func TestMapError_Classification(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		message   string
		permanent bool
	}{
		{
			name:      "deleted video",
			output:    "ERROR: [youtube] abc: Video unavailable",
			message:   "the video does not exist or has been deleted",
			permanent: true,
		},
		{
			name:      "private video",
			output:    "ERROR: [youtube] abc: Private video. Sign in if you've been granted access",
			message:   "the video is private and cannot be accessed",
			permanent: true,
		},
		{
			name:      "age gate",
			output:    "ERROR: Sign in to confirm your age. This video may be inappropriate",
			message:   "the video requires age verification",
			permanent: true,
		},
		{
			name:      "unsupported platform",
			output:    "ERROR: Unsupported URL: https://example.com/clip",
			message:   "the URL points to an unsupported platform",
			permanent: true,
		},
		{
			name:      "missing resource",
			output:    "ERROR: unable to download video data: HTTP Error 404: Not Found",
			message:   "the video does not exist or the link is invalid",
			permanent: true,
		},
		{
			name:      "rate limited",
			output:    "ERROR: unable to download video data: HTTP Error 429: Too Many Requests",
			message:   "too many requests, slow down and retry",
			permanent: false,
		},
		{
			name:      "forbidden",
			output:    "ERROR: unable to download video data: HTTP Error 403: Forbidden",
			message:   "access was denied, possibly rate-limited",
			permanent: false,
		},
		{
			name:      "geo restriction",
			output:    "ERROR: The uploader has not made this video available in your country",
			message:   "the video is region-restricted",
			permanent: true,
		},
		{
			name:      "geo block",
			output:    "ERROR: This video is blocked in your country",
			message:   "the video is blocked in this region",
			permanent: true,
		},
		{
			name:      "server fault",
			output:    "ERROR: unable to download webpage: HTTP Error 500: Internal Server Error",
			message:   "the source server reported an error",
			permanent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ee := mapError(tt.output, errors.New("exit status 1"))
			assert.Equal(t, tt.message, ee.Message)
			assert.Equal(t, tt.permanent, ee.Permanent)
			assert.Equal(t, tt.permanent, errpkg.IsPermanent(ee))
		})
	}
}

func TestMapError_CaseInsensitiveMatch(t *testing.T) {
	ee := mapError("ERROR: VIDEO UNAVAILABLE", errors.New("exit status 1"))
	assert.Equal(t, "the video does not exist or has been deleted", ee.Message)
	assert.True(t, ee.Permanent)

	ee = mapError("error: private Video. sign in if you've been granted access", errors.New("exit status 1"))
	assert.Equal(t, "the video is private and cannot be accessed", ee.Message)
	assert.True(t, ee.Permanent)
}

func TestMapError_UnknownFailureIsRetryable(t *testing.T) {
	ee := mapError("something completely novel went wrong", errors.New("exit status 1"))
	assert.Equal(t, "download failed, please try again later", ee.Message)
	assert.False(t, ee.Permanent)
}

func TestMapError_FallsBackToWrappedError(t *testing.T) {
	cause := errors.New("signal: killed after Connection timeout")
	ee := mapError("", cause)
	assert.Equal(t, "network error while reaching the source", ee.Message)
	assert.False(t, ee.Permanent)
	require.ErrorIs(t, ee, cause)
}
