package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vidfeed/domain/model"
)

func newFeedServer(h *FeedHub) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stream", h.Serve)
	return httptest.NewServer(r)
}

func openStream(t *testing.T, ctx context.Context, url string) (*http.Response, *bufio.Reader) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, bufio.NewReader(resp.Body)
}

// nextEvent skips comments and returns the event name and data of the next frame.
func nextEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestFeedHubStreamsPublishedVideos(t *testing.T) {
	hub := NewFeedHub()
	srv := newFeedServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp, reader := openStream(t, ctx, srv.URL+"/stream")
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no", resp.Header.Get("X-Accel-Buffering"))
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastVideoPublished(&model.VideoPublishedEvent{
		Type:         "video.published",
		SubmissionID: "s1",
		Video:        model.CatalogEntry{ID: "abc", Source: "TikTok", Tags: []string{"cats"}},
	})

	name, data := nextEvent(t, reader)
	assert.Equal(t, "video_published", name)
	var evt model.VideoPublishedEvent
	require.NoError(t, json.Unmarshal([]byte(data), &evt))
	assert.Equal(t, "abc", evt.Video.ID)

	cancel()
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestFeedHubTagFilter(t *testing.T) {
	hub := NewFeedHub()
	srv := newFeedServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp, reader := openStream(t, ctx, srv.URL+"/stream?tag=Cat")
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastVideoPublished(&model.VideoPublishedEvent{Video: model.CatalogEntry{ID: "skip", Tags: []string{"category"}}})
	hub.BroadcastVideoPublished(&model.VideoPublishedEvent{Video: model.CatalogEntry{ID: "keep", Tags: []string{"dog", " cat "}}})

	_, data := nextEvent(t, reader)
	var evt model.VideoPublishedEvent
	require.NoError(t, json.Unmarshal([]byte(data), &evt))
	assert.Equal(t, "keep", evt.Video.ID)
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewFeedHub()
	ch := make(chan model.VideoPublishedEvent)
	hub.addSubscriber(ch, "")

	done := make(chan struct{})
	go func() {
		hub.BroadcastVideoPublished(&model.VideoPublishedEvent{SubmissionID: "s1"})
		hub.BroadcastVideoPublished(nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}
	hub.removeSubscriber(ch)
	assert.Zero(t, hub.Subscribers())
}
