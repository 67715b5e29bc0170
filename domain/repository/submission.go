package repository

import (
	"context"

	"vidfeed/domain/model"
)

// ISubmission is the durable submission log.
type ISubmission interface {
	Create(ctx context.Context, rec *model.SubmissionRecord) error
	UpdateState(ctx context.Context, rec *model.SubmissionRecord) error
	GetByID(ctx context.Context, id string) (*model.SubmissionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*model.SubmissionRecord, error)
}

// ISubmissionStatus keeps the live state of in-flight submissions.
type ISubmissionStatus interface {
	SetStatus(ctx context.Context, status *model.SubmissionStatus) error
	// GetStatus returns nil without error when the id is unknown or expired.
	GetStatus(ctx context.Context, id string) (*model.SubmissionStatus, error)
}

// IVideoEventPublisher announces published videos on the event bus.
type IVideoEventPublisher interface {
	PublishVideoEvent(ctx context.Context, evt *model.VideoPublishedEvent) error
}
