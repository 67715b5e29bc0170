package servicebus

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"vidfeed/domain/apperror"
	"vidfeed/domain/model"
	"vidfeed/infrastructure/logger"
)

const jsonContentType = "application/json"

type VideoEventServiceBus struct {
	AzservicebusClient *azservicebus.Client
	queue              string
}

func NewVideoEventServiceBus(azServiceBusClient *azservicebus.Client, queue string) *VideoEventServiceBus {
	return &VideoEventServiceBus{AzservicebusClient: azServiceBusClient, queue: queue}
}

func (s *VideoEventServiceBus) PublishVideoEvent(ctx context.Context, evt *model.VideoPublishedEvent) error {
	if s.AzservicebusClient == nil {
		return apperror.New(apperror.KindConfiguration, "service bus client not configured")
	}
	msg, err := newVideoEventMessage(evt)
	if err != nil {
		return err
	}

	sender, err := s.AzservicebusClient.NewSender(s.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender) {
		if err := sender.Close(context.Background()); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender)

	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	logger.GetLogger().WithField("submission_id", evt.SubmissionID).Info("Video event sent to service bus")
	return nil
}

// newVideoEventMessage keys the message by submission so duplicate detection
// on the queue drops replays.
func newVideoEventMessage(evt *model.VideoPublishedEvent) (*azservicebus.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	contentType := jsonContentType
	subject := evt.Type
	messageID := evt.SubmissionID
	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		MessageID:   &messageID,
		ApplicationProperties: map[string]interface{}{
			"source": evt.Video.Source,
		},
	}, nil
}
