package validation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	errpkg "github.com/billzhuang6569/gravity/internal/errors"
)

// Platform identifies a supported source platform.
type Platform string

const (
	PlatformYouTube  Platform = "youtube"
	PlatformBilibili Platform = "bilibili"
)

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?i)^https?://youtu\.be/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?i)^https?://(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`(?i)^https?://(?:m\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]+)`),
}

var bilibiliPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://(?:www\.)?bilibili\.com/video/(av\d+|BV[a-zA-Z0-9]+|[a-zA-Z0-9]+)`),
	regexp.MustCompile(`(?i)^https?://(?:m\.)?bilibili\.com/video/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`(?i)^https?://b23\.tv/([a-zA-Z0-9]+)`),
}

// DetectPlatform returns the platform matching the URL, or "" when the URL
// belongs to no supported platform.
func DetectPlatform(raw string) Platform {
	raw = strings.TrimSpace(raw)
	for _, p := range youtubePatterns {
		if p.MatchString(raw) {
			return PlatformYouTube
		}
	}
	for _, p := range bilibiliPatterns {
		if p.MatchString(raw) {
			return PlatformBilibili
		}
	}
	return ""
}

// ValidateURL checks a source URL against the platform allow-list. It
// returns the detected platform, or a *errors.ValidationError describing
// why the URL was rejected.
func ValidateURL(raw string) (Platform, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errpkg.NewValidationError("EMPTY_URL", "URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errpkg.NewValidationError("INVALID_FORMAT", "invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errpkg.NewValidationError("INVALID_FORMAT", "only http and https URLs are supported")
	}

	platform := DetectPlatform(raw)
	if platform == "" {
		return "", errpkg.NewValidationError("UNSUPPORTED_PLATFORM",
			"unsupported platform: only YouTube and Bilibili URLs are accepted")
	}

	return platform, nil
}

// Register adds the platform_url rule to a validator instance so request
// structs can carry `validate:"platform_url"` tags.
func Register(v *validator.Validate) error {
	return v.RegisterValidation("platform_url", func(fl validator.FieldLevel) bool {
		_, err := ValidateURL(fl.Field().String())
		return err == nil
	})
}
