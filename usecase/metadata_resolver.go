package usecase

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"vidfeed/domain/apperror"
	"vidfeed/domain/model"
	"vidfeed/domain/repository"
	"vidfeed/infrastructure/logger"
)

// IMetadataResolver is one scraping session. Close must be called when the
// submission is finished, whatever its outcome.
type IMetadataResolver interface {
	Resolve(ctx context.Context, platform model.Platform, url string) (*model.VideoMetadata, error)
	Close() error
}

// ResolverFactory opens a new scraping session.
type ResolverFactory func() (IMetadataResolver, error)

type ActorConfig struct {
	TikTokActor    string
	InstagramActor string
	WaitTimeout    time.Duration
}

type metadataResolver struct {
	runner  repository.IActorRunner
	fetcher repository.IMediaFetcher
	actors  ActorConfig
}

// NewMetadataResolver wraps an actor session. fetcher may be nil, in which case
// bytes are always fetched later by the publisher.
func NewMetadataResolver(runner repository.IActorRunner, fetcher repository.IMediaFetcher, actors ActorConfig) IMetadataResolver {
	if actors.WaitTimeout <= 0 {
		actors.WaitTimeout = 5 * time.Minute
	}
	return &metadataResolver{runner: runner, fetcher: fetcher, actors: actors}
}

type tiktokScrapeInput struct {
	ExcludePinnedPosts            bool     `json:"excludePinnedPosts"`
	PostURLs                      []string `json:"postURLs"`
	ProxyCountryCode              string   `json:"proxyCountryCode"`
	ResultsPerPage                int      `json:"resultsPerPage"`
	ScrapeRelatedVideos           bool     `json:"scrapeRelatedVideos"`
	ShouldDownloadAvatars         bool     `json:"shouldDownloadAvatars"`
	ShouldDownloadCovers          bool     `json:"shouldDownloadCovers"`
	ShouldDownloadMusicCovers     bool     `json:"shouldDownloadMusicCovers"`
	ShouldDownloadSlideshowImages bool     `json:"shouldDownloadSlideshowImages"`
	ShouldDownloadSubtitles       bool     `json:"shouldDownloadSubtitles"`
	ShouldDownloadVideos          bool     `json:"shouldDownloadVideos"`
}

type instagramScrapeInput struct {
	AddParentData                     bool     `json:"addParentData"`
	DirectURLs                        []string `json:"directUrls"`
	EnhanceUserSearchWithFacebookPage bool     `json:"enhanceUserSearchWithFacebookPage"`
	IsUserReelFeedURL                 bool     `json:"isUserReelFeedURL"`
	IsUserTaggedFeedURL               bool     `json:"isUserTaggedFeedURL"`
	ResultsLimit                      int      `json:"resultsLimit"`
	ResultsType                       string   `json:"resultsType"`
	SearchLimit                       int      `json:"searchLimit"`
	SearchType                        string   `json:"searchType"`
}

// Scraped records are read loosely: a field of an unexpected type reads as its
// zero value instead of rejecting the record.
type tiktokRecord struct {
	Text       looseString     `json:"text"`
	MediaURLs  looseStrings    `json:"mediaUrls"`
	VideoMeta  tiktokVideoMeta `json:"videoMeta"`
	AuthorMeta tiktokAuthor    `json:"authorMeta"`
}

type tiktokVideoMeta struct {
	DownloadAddr looseString `json:"downloadAddr"`
	Duration     looseFloat  `json:"duration"`
}

type tiktokAuthor struct {
	Name     looseString `json:"name"`
	NickName looseString `json:"nickName"`
}

type instagramRecord struct {
	Caption       looseString `json:"caption"`
	VideoURL      looseString `json:"videoUrl"`
	DisplayURL    looseString `json:"displayUrl"`
	OwnerUsername looseString `json:"ownerUsername"`
	OwnerFullName looseString `json:"ownerFullName"`
	VideoDuration looseFloat  `json:"videoDuration"`
}

type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var v string
	if json.Unmarshal(b, &v) == nil {
		*s = looseString(v)
	}
	return nil
}

type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	var v interface{}
	if json.Unmarshal(b, &v) != nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		*f = looseFloat(n)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			*f = looseFloat(parsed)
		}
	}
	return nil
}

// looseStrings keeps the string entries of an array; a bare string is a one-element list.
type looseStrings []string

func (l *looseStrings) UnmarshalJSON(b []byte) error {
	var v interface{}
	if json.Unmarshal(b, &v) != nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		*l = looseStrings{x}
	case []interface{}:
		out := make(looseStrings, 0, len(x))
		for _, e := range x {
			if str, ok := e.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		*l = out
	}
	return nil
}

func (m *tiktokVideoMeta) UnmarshalJSON(b []byte) error {
	type plain tiktokVideoMeta
	var p plain
	if json.Unmarshal(b, &p) == nil {
		*m = tiktokVideoMeta(p)
	}
	return nil
}

func (a *tiktokAuthor) UnmarshalJSON(b []byte) error {
	type plain tiktokAuthor
	var p plain
	if json.Unmarshal(b, &p) == nil {
		*a = tiktokAuthor(p)
	}
	return nil
}

// scrapeJob returns the actor id and input for the platform.
func (r *metadataResolver) scrapeJob(platform model.Platform, url string) (string, interface{}, error) {
	switch platform {
	case model.PlatformTikTok:
		return r.actors.TikTokActor, tiktokScrapeInput{
			PostURLs:             []string{url},
			ProxyCountryCode:     "None",
			ResultsPerPage:       100,
			ShouldDownloadVideos: true,
		}, nil
	case model.PlatformInstagram:
		return r.actors.InstagramActor, instagramScrapeInput{
			DirectURLs:   []string{url},
			ResultsLimit: 200,
			ResultsType:  "details",
			SearchLimit:  1,
			SearchType:   "hashtag",
		}, nil
	}
	return "", nil, apperror.Newf(apperror.KindValidation, "unsupported platform %q", platform)
}

func (r *metadataResolver) Resolve(ctx context.Context, platform model.Platform, url string) (*model.VideoMetadata, error) {
	actorID, input, err := r.scrapeJob(platform, url)
	if err != nil {
		return nil, err
	}
	log := logger.GetLogger().WithFields(map[string]interface{}{"platform": platform, "url": url, "actor": actorID})

	handle, err := r.runner.SubmitJob(ctx, actorID, input)
	if err != nil {
		return nil, err
	}
	items, err := r.runner.AwaitResult(ctx, handle, r.actors.WaitTimeout)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperror.New(apperror.KindNotFound, "No video data found for this URL")
	}

	meta, err := extractMetadata(platform, items[0])
	if err != nil {
		return nil, err
	}
	log.WithField("video_url", meta.VideoURL).Info("Video metadata resolved")

	meta.VideoBuffer = r.fetchBestEffort(ctx, meta.VideoURL)
	return meta, nil
}

func extractMetadata(platform model.Platform, raw json.RawMessage) (*model.VideoMetadata, error) {
	meta := &model.VideoMetadata{Platform: platform}
	switch platform {
	case model.PlatformTikTok:
		var rec tiktokRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, apperror.Wrap(apperror.KindNotFound, err, "unreadable scrape record")
		}
		if len(rec.MediaURLs) > 0 {
			meta.VideoURL = rec.MediaURLs[0]
		}
		meta.VideoURL = firstNonEmpty(meta.VideoURL, string(rec.VideoMeta.DownloadAddr))
		meta.Title = string(rec.Text)
		meta.Description = string(rec.Text)
		meta.Author = firstNonEmpty(string(rec.AuthorMeta.Name), string(rec.AuthorMeta.NickName))
		meta.Duration = float64(rec.VideoMeta.Duration)
	case model.PlatformInstagram:
		var rec instagramRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, apperror.Wrap(apperror.KindNotFound, err, "unreadable scrape record")
		}
		meta.VideoURL = firstNonEmpty(string(rec.VideoURL), string(rec.DisplayURL))
		meta.Title = string(rec.Caption)
		meta.Description = string(rec.Caption)
		meta.Author = firstNonEmpty(string(rec.OwnerUsername), string(rec.OwnerFullName))
		meta.Duration = float64(rec.VideoDuration)
	}
	if meta.VideoURL == "" {
		return nil, apperror.New(apperror.KindNotFound, "No video URL found in scraped data")
	}
	return meta, nil
}

// fetchBestEffort downloads the media eagerly. A nil result means the download is
// deferred to the publisher; the error is logged and dropped.
func (r *metadataResolver) fetchBestEffort(ctx context.Context, url string) []byte {
	if r.fetcher == nil {
		return nil
	}
	data, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		logger.GetLogger().WithField("video_url", url).WithField("error", err).Warn("Eager video download failed, deferring to upload")
		return nil
	}
	return data
}

func (r *metadataResolver) Close() error {
	return r.runner.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
