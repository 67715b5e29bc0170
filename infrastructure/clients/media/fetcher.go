package media

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"vidfeed/domain/apperror"
	"vidfeed/domain/repository"
	"vidfeed/infrastructure/logger"
)

// DefaultMaxBytes is the ceiling for eager downloads during metadata resolution.
const DefaultMaxBytes = 50 << 20

// MobileAppHeaders mimic the platform's Android client so CDN hosts serve the file.
func MobileAppHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "com.zhiliaoapp.musically/2021600040 (Linux; U; Android 5.0; en_US; SM-N900T; Build/LRX21V; Cronet/TTNetVersion:6c7b701a 2020-04-23 QuicVersion:0144d358 2020-03-24)")
	h.Set("Referer", "https://www.tiktok.com/")
	h.Set("Accept", "video/webm,video/ogg,video/*;q=0.9,application/ogg;q=0.7,audio/*;q=0.6,*/*;q=0.5")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept-Encoding", "identity")
	h.Set("Connection", "keep-alive")
	h.Set("Range", "bytes=0-")
	h.Set("Sec-Fetch-Dest", "video")
	h.Set("Sec-Fetch-Mode", "no-cors")
	h.Set("Sec-Fetch-Site", "cross-site")
	return h
}

type Fetcher struct {
	client   *http.Client
	maxBytes int64
	headers  http.Header
}

// NewFetcher returns a fetcher that refuses bodies larger than maxBytes.
// headers may be nil.
func NewFetcher(client *http.Client, maxBytes int64, headers http.Header) repository.IMediaFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes, headers: headers}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDownload, err, "build media request")
	}
	for k, vs := range f.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDownload, err, "failed to download video")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.Newf(apperror.KindDownload, "failed to download video: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if resp.ContentLength > f.maxBytes {
		return nil, f.tooLarge(resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDownload, err, "read video body")
	}
	if int64(len(data)) > f.maxBytes {
		return nil, f.tooLarge(int64(len(data)))
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"url":  rawURL,
		"size": len(data),
	}).Debug("Media downloaded")
	return data, nil
}

func (f *Fetcher) tooLarge(size int64) error {
	return apperror.New(apperror.KindTooLarge, fmt.Sprintf("video file too large: %d bytes exceeds limit of %d bytes", size, f.maxBytes))
}
