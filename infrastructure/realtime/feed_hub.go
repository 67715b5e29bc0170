package realtime

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"vidfeed/domain/model"
)

const (
	videoPublishedEvent = "video_published"
	heartbeatInterval   = 25 * time.Second
)

// FeedHub fans published videos out to live catalog subscribers.
type FeedHub struct {
	mu        sync.RWMutex
	subs      map[chan model.VideoPublishedEvent]string
	heartbeat time.Duration
}

func NewFeedHub() *FeedHub {
	return &FeedHub{
		subs:      make(map[chan model.VideoPublishedEvent]string),
		heartbeat: heartbeatInterval,
	}
}

// Serve streams video_published events. An optional ?tag= narrows the stream
// the same way the catalog filter does.
func (h *FeedHub) Serve(c *gin.Context) {
	tag := strings.ToLower(strings.TrimSpace(c.Query("tag")))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan model.VideoPublishedEvent, 8)
	h.addSubscriber(ch, tag)
	defer h.removeSubscriber(ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			_, _ = c.Writer.Write([]byte(":ping\n\n"))
			c.Writer.Flush()
		case evt := <-ch:
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			_, _ = c.Writer.Write([]byte("event: " + videoPublishedEvent + "\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *FeedHub) addSubscriber(ch chan model.VideoPublishedEvent, tag string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = tag
}

func (h *FeedHub) removeSubscriber(ch chan model.VideoPublishedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// Subscribers reports how many streams are open.
func (h *FeedHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// BroadcastVideoPublished never blocks; slow subscribers miss events.
func (h *FeedHub) BroadcastVideoPublished(evt *model.VideoPublishedEvent) {
	if evt == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, tag := range h.subs {
		if tag != "" && !matchesTag(evt.Video.Tags, tag) {
			continue
		}
		select {
		case ch <- *evt:
		default:
		}
	}
}

func matchesTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.ToLower(strings.TrimSpace(t)) == want {
			return true
		}
	}
	return false
}
