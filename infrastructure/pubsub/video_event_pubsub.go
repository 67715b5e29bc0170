package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"cloud.google.com/go/pubsub"
	"vidfeed/domain/apperror"
	"vidfeed/domain/model"
	"vidfeed/infrastructure/logger"
)

type VideoEventPubSub struct {
	PubSubClient *pubsub.Client
	topicName    string

	mu    sync.Mutex
	topic *pubsub.Topic
}

// NewVideoEventPubSub publishes video events on topicName, creating the topic on first use.
func NewVideoEventPubSub(pubSubClient *pubsub.Client, topicName string) *VideoEventPubSub {
	return &VideoEventPubSub{PubSubClient: pubSubClient, topicName: topicName}
}

func (p *VideoEventPubSub) PublishVideoEvent(ctx context.Context, evt *model.VideoPublishedEvent) error {
	if p.PubSubClient == nil {
		return apperror.New(apperror.KindConfiguration, "pubsub client not configured")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":     evt.Type,
			"platform": evt.Video.Source,
		},
	}).Get(ctx)
	if err != nil {
		return err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"server_id":     serverID,
		"submission_id": evt.SubmissionID,
	}).Info("Video event published")
	return nil
}

func (p *VideoEventPubSub) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}

	topic := p.PubSubClient.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		if topic, err = p.PubSubClient.CreateTopic(ctx, p.topicName); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

// Stop flushes pending messages.
func (p *VideoEventPubSub) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
