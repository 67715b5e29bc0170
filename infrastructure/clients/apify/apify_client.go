package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"vidfeed/domain/apperror"
	"vidfeed/domain/model"
	"vidfeed/domain/repository"
	"vidfeed/infrastructure/logger"
	"vidfeed/infrastructure/metrics"

	"github.com/google/go-querystring/query"
)

// Run statuses reported by the actor service.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborting  = "ABORTING"
	StatusAborted   = "ABORTED"
	StatusTimingOut = "TIMING-OUT"
	StatusTimedOut  = "TIMED-OUT"
)

// maxWaitPerPoll is the longest waitForFinish the service honours in one call.
const maxWaitPerPoll = 60 * time.Second

type Config struct {
	BaseURL      string
	Token        string
	HTTPClient   *http.Client
	PollInterval time.Duration
}

type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration

	mu   sync.Mutex
	live map[string]*model.JobHandle
}

type runData struct {
	ID               string    `json:"id"`
	ActID            string    `json:"actId"`
	Status           string    `json:"status"`
	DefaultDatasetID string    `json:"defaultDatasetId"`
	StartedAt        time.Time `json:"startedAt"`
}

type runEnvelope struct {
	Data runData `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type waitQuery struct {
	WaitForFinish int `url:"waitForFinish"`
}

type datasetItemsQuery struct {
	Format string `url:"format"`
	Clean  bool   `url:"clean"`
}

// NewClient opens a session against the actor service. A missing token is a configuration error.
func NewClient(cfg Config) (repository.IActorRunner, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, apperror.New(apperror.KindConfiguration, "APIFY_TOKEN is not configured")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.apify.com"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	return &Client{
		baseURL:      base,
		token:        cfg.Token,
		httpClient:   hc,
		pollInterval: poll,
		live:         map[string]*model.JobHandle{},
	}, nil
}

func (c *Client) SubmitJob(ctx context.Context, actorID string, input interface{}) (*model.JobHandle, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode actor input: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v2/acts/%s/runs", c.baseURL, url.PathEscape(actorID))
	var env runEnvelope
	if err := c.do(ctx, http.MethodPost, endpoint, body, &env); err != nil {
		return nil, err
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"actor":  actorID,
		"run_id": env.Data.ID,
		"status": env.Data.Status,
	}).Info("Actor run started")
	handle := &model.JobHandle{
		RunID:     env.Data.ID,
		ActorID:   actorID,
		DatasetID: env.Data.DefaultDatasetID,
		Status:    env.Data.Status,
		StartedAt: env.Data.StartedAt,
	}
	if !isTerminal(handle.Status) {
		c.track(handle)
	}
	return handle, nil
}

func (c *Client) AwaitResult(ctx context.Context, handle *model.JobHandle, timeout time.Duration) ([]json.RawMessage, error) {
	if handle == nil || handle.RunID == "" {
		return nil, apperror.New(apperror.KindInternal, "actor run handle is empty")
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for !isTerminal(handle.Status) {
		wait := maxWaitPerPoll
		if dl, ok := waitCtx.Deadline(); ok {
			if left := time.Until(dl); left < wait {
				wait = left
			}
		}
		if wait < time.Second {
			wait = time.Second
		}
		qs, _ := query.Values(waitQuery{WaitForFinish: int(wait / time.Second)})
		endpoint := fmt.Sprintf("%s/v2/actor-runs/%s?%s", c.baseURL, url.PathEscape(handle.RunID), qs.Encode())

		var env runEnvelope
		err := c.do(waitCtx, http.MethodGet, endpoint, nil, &env)
		if err != nil {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return nil, c.timedOut(handle, timeout, err)
			}
			if ctx.Err() != nil {
				c.abort(handle)
			}
			return nil, err
		}
		handle.Status = env.Data.Status
		if env.Data.DefaultDatasetID != "" {
			handle.DatasetID = env.Data.DefaultDatasetID
		}
		if isTerminal(handle.Status) {
			break
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				c.abort(handle)
				return nil, ctx.Err()
			}
			return nil, c.timedOut(handle, timeout, waitCtx.Err())
		case <-time.After(c.pollInterval):
		}
	}

	c.untrack(handle)
	metrics.RecordScrapeJob(handle.ActorID, handle.Status)
	if handle.Status != StatusSucceeded {
		return nil, apperror.Newf(apperror.KindInternal, "actor run %s finished with status %s", handle.RunID, handle.Status)
	}
	return c.datasetItems(ctx, handle.DatasetID)
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]json.RawMessage, error) {
	if datasetID == "" {
		return nil, apperror.New(apperror.KindNotFound, "actor run has no dataset")
	}
	qs, _ := query.Values(datasetItemsQuery{Format: "json", Clean: true})
	endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?%s", c.baseURL, url.PathEscape(datasetID), qs.Encode())
	var items []json.RawMessage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) timedOut(handle *model.JobHandle, timeout time.Duration, cause error) error {
	c.abort(handle)
	metrics.RecordScrapeJob(handle.ActorID, "timeout")
	return apperror.Wrap(apperror.KindTimeout, cause, fmt.Sprintf("actor run %s did not finish within %s", handle.RunID, timeout))
}

// abort stops a run that outlived its wait budget or its caller. Failures are only logged.
func (c *Client) abort(handle *model.JobHandle) {
	c.untrack(handle)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	endpoint := fmt.Sprintf("%s/v2/actor-runs/%s/abort", c.baseURL, url.PathEscape(handle.RunID))
	if err := c.do(ctx, http.MethodPost, endpoint, nil, nil); err != nil {
		logger.GetLogger().WithField("run_id", handle.RunID).WithField("error", err).Warn("Failed aborting actor run")
	}
}

func (c *Client) track(handle *model.JobHandle) {
	c.mu.Lock()
	c.live[handle.RunID] = handle
	c.mu.Unlock()
}

func (c *Client) untrack(handle *model.JobHandle) {
	c.mu.Lock()
	delete(c.live, handle.RunID)
	c.mu.Unlock()
}

// Close aborts runs that never reached a terminal status, then drops idle connections.
func (c *Client) Close() error {
	c.mu.Lock()
	pending := make([]*model.JobHandle, 0, len(c.live))
	for _, h := range c.live {
		pending = append(pending, h)
	}
	c.mu.Unlock()

	for _, h := range pending {
		c.abort(h)
	}
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperror.Wrap(apperror.KindTimeout, err, "actor service request timed out")
		}
		return apperror.Wrap(apperror.KindInternal, err, "actor service request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, err, "read actor service response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorEnvelope
		_ = json.Unmarshal(raw, &e)
		msg := e.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		kind := apperror.KindInternal
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = apperror.KindConfiguration
		}
		return apperror.Newf(kind, "actor service returned %d: %s", resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Wrap(apperror.KindInternal, err, "decode actor service response")
	}
	return nil
}

func isTerminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTimedOut:
		return true
	}
	return false
}
