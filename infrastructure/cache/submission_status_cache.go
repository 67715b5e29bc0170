package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vidfeed/domain/model"
	"vidfeed/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "submission:"

type SubmissionStatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSubmissionStatusCache keeps live submission states in Redis. A nil client
// turns every call into a no-op.
func NewSubmissionStatusCache(client *redis.Client, ttl time.Duration) *SubmissionStatusCache {
	return &SubmissionStatusCache{client: client, ttl: ttl}
}

func statusKey(id string) string { return statusKeyPrefix + id }

func (c *SubmissionStatusCache) SetStatus(ctx context.Context, status *model.SubmissionStatus) error {
	if c.client == nil || status == nil {
		return nil
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, statusKey(status.ID), raw, c.ttl).Err(); err != nil {
		logger.GetLogger().WithField("submission_id", status.ID).WithField("error", err).Error("Error while caching submission status")
		return err
	}
	return nil
}

func (c *SubmissionStatusCache) GetStatus(ctx context.Context, id string) (*model.SubmissionStatus, error) {
	if c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, statusKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	status := &model.SubmissionStatus{}
	if err := json.Unmarshal(raw, status); err != nil {
		return nil, err
	}
	return status, nil
}
