package extract

import (
	"strings"

	errpkg "github.com/billzhuang6569/gravity/internal/errors"
)

// errorMapping translates raw engine output into a user-facing message and
// classifies whether retrying can ever help.
type errorMapping struct {
	match     string
	message   string
	permanent bool
}

var errorMappings = []errorMapping{
	{"Video unavailable", "the video does not exist or has been deleted", true},
	{"This video has been removed", "the video has been deleted", true},
	{"Video removed", "the video has been removed", true},
	{"Private video", "the video is private and cannot be accessed", true},
	{"Sign in to confirm your age", "the video requires age verification", true},
	{"This video requires payment", "the video requires payment to watch", true},
	{"Unsupported URL", "the URL points to an unsupported platform", true},
	{"HTTP Error 404", "the video does not exist or the link is invalid", true},

	{"not available in your country", "the video is region-restricted", true},
	{"blocked in your country", "the video is blocked in this region", true},
	{"Requested format not available", "the requested format is not available", false},
	{"No video formats found", "no downloadable formats were found", false},
	{"HTTP Error 403", "access was denied, possibly rate-limited", false},
	{"HTTP Error 429", "too many requests, slow down and retry", false},
	{"HTTP Error 500", "the source server reported an error", false},
	{"Connection timeout", "network error while reaching the source", false},
	{"Network error", "network error while reaching the source", false},
}

// mapError wraps raw engine failure output in an ExtractionError carrying
// the mapped user-facing message. Matching is case-insensitive; engine
// output varies its casing between versions. Unrecognized failures default
// to a generic retryable message.
func mapError(output string, err error) *errpkg.ExtractionError {
	text := output
	if text == "" && err != nil {
		text = err.Error()
	}
	text = strings.ToLower(text)

	for _, m := range errorMappings {
		if strings.Contains(text, strings.ToLower(m.match)) {
			return &errpkg.ExtractionError{
				Message:   m.message,
				Permanent: m.permanent,
				Err:       err,
			}
		}
	}

	return &errpkg.ExtractionError{
		Message: "download failed, please try again later",
		Err:     err,
	}
}
