package repository

import (
	"context"
	"encoding/json"
	"time"

	"vidfeed/domain/model"
)

// IActorRunner is a session against the scraping actor service.
type IActorRunner interface {
	// SubmitJob starts an actor run with the given input and returns without waiting.
	SubmitJob(ctx context.Context, actorID string, input interface{}) (*model.JobHandle, error)
	// AwaitResult blocks until the run finishes or timeout elapses and returns its dataset items.
	AwaitResult(ctx context.Context, handle *model.JobHandle, timeout time.Duration) ([]json.RawMessage, error)
	Close() error
}

// IMediaFetcher downloads raw media bytes from a direct URL.
type IMediaFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}
