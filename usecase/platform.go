package usecase

import (
	"regexp"

	"vidfeed/domain/model"
)

var (
	tiktokURLPattern    = regexp.MustCompile(`^https?://(www\.)?(tiktok\.com|vm\.tiktok\.com)/[^\s]*$`)
	instagramURLPattern = regexp.MustCompile(`^https?://(www\.)?(instagram\.com|instagr\.am)/[^\s]*$`)
)

// ClassifyURL maps a submitted link to its platform. Anything else is PlatformUnsupported.
func ClassifyURL(raw string) model.Platform {
	switch {
	case tiktokURLPattern.MatchString(raw):
		return model.PlatformTikTok
	case instagramURLPattern.MatchString(raw):
		return model.PlatformInstagram
	}
	return model.PlatformUnsupported
}

// filenamePlatform is the platform prefix used in stored file names.
func filenamePlatform(originalURL string) string {
	if p := ClassifyURL(originalURL); p != model.PlatformUnsupported {
		return string(p)
	}
	return "unknown"
}
