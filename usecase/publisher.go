package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"vidfeed/domain/apperror"
	"vidfeed/domain/model"
	"vidfeed/domain/repository"
	"vidfeed/infrastructure/logger"
	"vidfeed/infrastructure/metrics"

	"github.com/gabriel-vasile/mimetype"
)

const (
	storedVideoType       = "video/mp4"
	DefaultUploadMaxBytes = 512 << 20
)

type IPublisher interface {
	// Publish uploads the resolved video, preferring the eagerly fetched bytes.
	Publish(ctx context.Context, meta *model.VideoMetadata, originalURL, tags string) (*model.UploadResult, error)
	// UploadVideoFromURL accepts an http(s) URL or a base64 data URI.
	UploadVideoFromURL(ctx context.Context, source, originalURL, tags string) (*model.UploadResult, error)
	UploadVideoBuffer(ctx context.Context, buf []byte, originalURL, tags string) (*model.UploadResult, error)
}

type publisher struct {
	storage  repository.IFileStorage
	fetcher  repository.IMediaFetcher
	names    *FileNamer
	maxBytes int64
}

// NewPublisher wires the storage provider with the downloader used when no bytes
// were fetched during resolution.
func NewPublisher(storage repository.IFileStorage, fetcher repository.IMediaFetcher, names *FileNamer, maxBytes int64) IPublisher {
	if names == nil {
		names = NewFileNamer(nil)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	return &publisher{storage: storage, fetcher: fetcher, names: names, maxBytes: maxBytes}
}

func (p *publisher) Publish(ctx context.Context, meta *model.VideoMetadata, originalURL, tags string) (*model.UploadResult, error) {
	if meta == nil {
		return nil, apperror.New(apperror.KindInternal, "no metadata to publish")
	}
	if len(meta.VideoBuffer) > 0 {
		return p.UploadVideoBuffer(ctx, meta.VideoBuffer, originalURL, tags)
	}
	return p.UploadVideoFromURL(ctx, meta.VideoURL, originalURL, tags)
}

func (p *publisher) UploadVideoFromURL(ctx context.Context, source, originalURL, tags string) (*model.UploadResult, error) {
	var (
		buf []byte
		err error
	)
	if strings.HasPrefix(source, "data:") {
		buf, err = decodeDataURI(source)
	} else {
		if p.fetcher == nil {
			return nil, apperror.New(apperror.KindConfiguration, "no media downloader configured")
		}
		buf, err = p.fetcher.Fetch(ctx, source)
	}
	if err != nil {
		return nil, err
	}
	return p.UploadVideoBuffer(ctx, buf, originalURL, tags)
}

func decodeDataURI(uri string) ([]byte, error) {
	idx := strings.Index(uri, ",")
	if idx < 0 {
		return nil, apperror.New(apperror.KindValidation, "malformed data URI")
	}
	data, err := base64.StdEncoding.DecodeString(uri[idx+1:])
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, err, "malformed data URI payload")
	}
	return data, nil
}

func (p *publisher) UploadVideoBuffer(ctx context.Context, buf []byte, originalURL, tags string) (*model.UploadResult, error) {
	if len(buf) == 0 {
		return nil, apperror.New(apperror.KindDownload, "video buffer is empty")
	}
	if int64(len(buf)) > p.maxBytes {
		return nil, apperror.Newf(apperror.KindTooLarge, "video file too large: %d bytes exceeds limit of %d bytes", len(buf), p.maxBytes)
	}

	platform := filenamePlatform(originalURL)
	name := p.names.Next(platform)
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"file_name": name,
		"size":      len(buf),
		"detected":  mimetype.Detect(buf).String(),
		"tags":      tags,
	})
	log.Info("Uploading video to storage")

	results, err := p.storage.UploadFiles(ctx, []model.UploadFile{{
		Name:     name,
		Type:     storedVideoType,
		CustomID: tags,
		Data:     buf,
	}})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			return nil, apperror.Wrap(apperror.KindUpload, err, "upload failed")
		}
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if len(results) != 1 {
		return nil, apperror.Newf(apperror.KindUpload, "upload returned %d results for one file", len(results))
	}
	if results[0].Error != nil {
		return nil, apperror.Wrap(apperror.KindUpload, results[0].Error, "upload failed")
	}
	data := results[0].Data
	if data == nil {
		return nil, apperror.New(apperror.KindUpload, "upload succeeded but no data returned")
	}
	metrics.RecordUploadBytes(platform, len(buf))
	log.WithField("file_key", data.Key).Info("Video stored")

	res := &model.UploadResult{
		FileID:   data.Key,
		FileURL:  data.URL,
		FileName: data.Name,
		FileSize: data.Size,
	}
	if res.FileName == "" {
		res.FileName = name
	}
	if res.FileSize == 0 {
		res.FileSize = int64(len(buf))
	}
	return res, nil
}
