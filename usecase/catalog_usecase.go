package usecase

import (
	"context"
	"path"
	"sort"
	"strings"
	"time"

	"vidfeed/domain/model"
	"vidfeed/domain/repository"
	"vidfeed/infrastructure/logger"
	"vidfeed/infrastructure/metrics"
)

// URL strategies for catalog entries.
const (
	URLStrategyDomain = "domain"
	URLStrategySigned = "signed"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".webm": {},
}

type ICatalogUsecase interface {
	ListVideos(ctx context.Context, tag string) ([]model.CatalogEntry, error)
}

type catalogUsecase struct {
	storage  repository.IFileStorage
	strategy string
}

func NewCatalogUsecase(storage repository.IFileStorage, strategy string) ICatalogUsecase {
	if strategy != URLStrategySigned {
		strategy = URLStrategyDomain
	}
	return &catalogUsecase{storage: storage, strategy: strategy}
}

func (u *catalogUsecase) ListVideos(ctx context.Context, tag string) ([]model.CatalogEntry, error) {
	tag = strings.TrimSpace(tag)
	entries, err := u.listVideos(ctx, tag)
	metrics.RecordCatalogListing(metrics.Status(err), tag != "", len(entries))
	if err != nil {
		logger.GetLogger().WithField("tag", tag).WithField("error", err).Error("Catalog listing failed")
		return nil, err
	}
	return entries, nil
}

func (u *catalogUsecase) listVideos(ctx context.Context, tag string) ([]model.CatalogEntry, error) {
	files, err := u.storage.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	kept := make([]model.StoredFile, 0, len(files))
	for _, f := range files {
		if !isVideoFile(f.Name) {
			continue
		}
		if tag != "" && !hasTag(f.CustomID, tag) {
			continue
		}
		kept = append(kept, f)
	}

	var signed map[string]string
	if u.strategy == URLStrategySigned && len(kept) > 0 {
		keys := make([]string, 0, len(kept))
		for _, f := range kept {
			keys = append(keys, f.Key)
		}
		if signed, err = u.storage.GetFileURLs(ctx, keys); err != nil {
			return nil, err
		}
	}

	entries := make([]model.CatalogEntry, 0, len(kept))
	for _, f := range kept {
		url, ok := signed[f.Key]
		if !ok {
			if url, err = u.storage.PublicURL(f.Key); err != nil {
				return nil, err
			}
		}
		entries = append(entries, newCatalogEntry(f, url))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UploadedAt > entries[j].UploadedAt
	})
	return entries, nil
}

func newCatalogEntry(f model.StoredFile, url string) model.CatalogEntry {
	return model.CatalogEntry{
		ID:         f.Key,
		URL:        url,
		Source:     sourceLabel(f.Name),
		CreatedAt:  time.UnixMilli(f.UploadedAt).UTC().Format("2006-01-02T15:04:05.000Z"),
		UploadedAt: f.UploadedAt,
		Tags:       splitTags(f.CustomID),
	}
}

func isVideoFile(name string) bool {
	_, ok := videoExtensions[strings.ToLower(path.Ext(name))]
	return ok
}

func sourceLabel(name string) string {
	switch {
	case strings.HasPrefix(name, "tiktok_"):
		return "TikTok"
	case strings.HasPrefix(name, "instagram_"):
		return "Instagram"
	}
	return "UploadThing"
}

// splitTags breaks a stored identifier into trimmed, non-empty tags.
func splitTags(customID string) []string {
	tags := []string{}
	for _, t := range strings.Split(customID, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func hasTag(customID, tag string) bool {
	if customID == "" {
		return false
	}
	want := strings.ToLower(strings.TrimSpace(tag))
	for _, t := range strings.Split(customID, ",") {
		if strings.ToLower(strings.TrimSpace(t)) == want {
			return true
		}
	}
	return false
}
