package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"
)

// NewPubSub creates a Google Cloud Pub/Sub client for projectID.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	return pubsub.NewClient(ctx, projectID)
}
