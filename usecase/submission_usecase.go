package usecase

import (
	"context"
	"time"

	"vidfeed/domain/apperror"
	"vidfeed/domain/dto"
	"vidfeed/domain/model"
	"vidfeed/domain/repository"
	"vidfeed/infrastructure/logger"
	"vidfeed/infrastructure/metrics"

	"github.com/google/uuid"
)

const (
	InvalidURLMessage   = "Invalid URL format. Only TikTok and Instagram URLs are supported."
	VideoPublishedEvent = "video.published"

	defaultListLimit = 20
	maxListLimit     = 100
)

type ISubmissionUsecase interface {
	Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitData, error)
	GetStatus(ctx context.Context, id string) (*model.SubmissionStatus, error)
	ListRecent(ctx context.Context, limit int) ([]*model.SubmissionRecord, error)
}

// SubmissionUsecase drives a link through validating, scraping, uploading and done.
// Status cache, submission log, event bus and broadcaster are all optional.
type SubmissionUsecase struct {
	newResolver ResolverFactory
	publisher   IPublisher
	status      repository.ISubmissionStatus
	log         repository.ISubmission
	events      repository.IVideoEventPublisher
	broadcast   func(*model.VideoPublishedEvent)
	newID       func() string
	now         func() time.Time
}

func NewSubmissionUsecase(newResolver ResolverFactory, publisher IPublisher) *SubmissionUsecase {
	return &SubmissionUsecase{
		newResolver: newResolver,
		publisher:   publisher,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// WithStatusCache records every transition in the live status store (fluent)
func (u *SubmissionUsecase) WithStatusCache(status repository.ISubmissionStatus) *SubmissionUsecase {
	u.status = status
	return u
}

// WithSubmissionLog persists every transition to the durable log (fluent)
func (u *SubmissionUsecase) WithSubmissionLog(log repository.ISubmission) *SubmissionUsecase {
	u.log = log
	return u
}

// WithEventPublisher announces published videos on the event bus (fluent)
func (u *SubmissionUsecase) WithEventPublisher(events repository.IVideoEventPublisher) *SubmissionUsecase {
	u.events = events
	return u
}

// WithBroadcaster pushes published videos to live feed subscribers (fluent)
func (u *SubmissionUsecase) WithBroadcaster(fn func(*model.VideoPublishedEvent)) *SubmissionUsecase {
	u.broadcast = fn
	return u
}

func (u *SubmissionUsecase) Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitData, error) {
	start := u.now()
	platform := ClassifyURL(req.URL)
	if platform == model.PlatformUnsupported {
		metrics.RecordSubmission(string(model.SubmissionFailed), "unsupported", apperror.KindValidation.String(), time.Since(start).Seconds())
		logger.GetLogger().WithField("url", req.URL).Info("Rejected unsupported URL")
		return nil, apperror.New(apperror.KindValidation, InvalidURLMessage)
	}
	// a started submission runs to a terminal state even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	rec := &model.SubmissionRecord{
		ID:        u.newID(),
		URL:       req.URL,
		Platform:  platform,
		Tags:      req.Tags,
		State:     model.SubmissionScraping,
		CreatedAt: start.UTC(),
		UpdatedAt: start.UTC(),
	}
	u.record(ctx, rec, true)

	data, err := u.run(ctx, rec)
	if err != nil {
		u.fail(ctx, rec, err)
		metrics.RecordSubmission(string(model.SubmissionFailed), string(platform), apperror.KindOf(err).String(), time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordSubmission(string(model.SubmissionDone), string(platform), "", time.Since(start).Seconds())
	return data, nil
}

func (u *SubmissionUsecase) run(ctx context.Context, rec *model.SubmissionRecord) (*dto.SubmitData, error) {
	log := logger.GetLogger().WithFields(map[string]interface{}{
		"submission_id": rec.ID,
		"platform":      rec.Platform,
		"url":           rec.URL,
	})

	resolver, err := u.newResolver()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resolver.Close(); cerr != nil {
			log.WithField("error", cerr).Warn("Scraper session teardown failed")
		}
	}()

	meta, err := resolver.Resolve(ctx, rec.Platform, rec.URL)
	if err != nil {
		return nil, err
	}

	u.transition(ctx, rec, model.SubmissionUploading)
	res, err := u.publisher.Publish(ctx, meta, rec.URL, rec.Tags)
	if err != nil {
		return nil, err
	}

	rec.FileKey = &res.FileID
	rec.FileURL = &res.FileURL
	u.transition(ctx, rec, model.SubmissionDone)
	log.WithField("file_key", res.FileID).Info("Submission published")
	u.announce(ctx, rec, meta, res)

	return &dto.SubmitData{
		SubmissionID: rec.ID,
		FileID:       res.FileID,
		FileURL:      res.FileURL,
		FileName:     res.FileName,
		FileSize:     res.FileSize,
		Metadata: dto.SubmitMetadata{
			Title:       meta.Title,
			Author:      meta.Author,
			Platform:    meta.Platform,
			OriginalURL: rec.URL,
		},
	}, nil
}

func (u *SubmissionUsecase) transition(ctx context.Context, rec *model.SubmissionRecord, state model.SubmissionState) {
	rec.State = state
	rec.UpdatedAt = u.now().UTC()
	u.record(ctx, rec, false)
}

func (u *SubmissionUsecase) fail(ctx context.Context, rec *model.SubmissionRecord, cause error) {
	kind := apperror.KindOf(cause).String()
	msg := cause.Error()
	rec.ErrorKind = &kind
	rec.ErrorMessage = &msg
	u.transition(ctx, rec, model.SubmissionFailed)
	logger.GetLogger().WithFields(map[string]interface{}{
		"submission_id": rec.ID,
		"platform":      rec.Platform,
		"kind":          kind,
	}).WithField("error", cause).Warn("Submission failed")
}

// record writes the state to the status cache and the log. Failures never affect the submission.
func (u *SubmissionUsecase) record(ctx context.Context, rec *model.SubmissionRecord, create bool) {
	if u.status != nil {
		if err := u.status.SetStatus(ctx, statusOf(rec)); err != nil {
			logger.GetLogger().WithField("submission_id", rec.ID).WithField("error", err).Warn("Failed caching submission status")
		}
	}
	if u.log != nil {
		var err error
		if create {
			err = u.log.Create(ctx, rec)
		} else {
			err = u.log.UpdateState(ctx, rec)
		}
		if err != nil {
			logger.GetLogger().WithField("submission_id", rec.ID).WithField("error", err).Warn("Failed writing submission log")
		}
	}
}

func (u *SubmissionUsecase) announce(ctx context.Context, rec *model.SubmissionRecord, meta *model.VideoMetadata, res *model.UploadResult) {
	if u.events == nil && u.broadcast == nil {
		return
	}
	evt := &model.VideoPublishedEvent{
		Type:         VideoPublishedEvent,
		SubmissionID: rec.ID,
		OriginalURL:  rec.URL,
		Title:        meta.Title,
		Author:       meta.Author,
		Video: newCatalogEntry(model.StoredFile{
			Key:        res.FileID,
			Name:       res.FileName,
			UploadedAt: rec.UpdatedAt.UnixMilli(),
			CustomID:   rec.Tags,
		}, res.FileURL),
	}
	if u.events != nil {
		if err := u.events.PublishVideoEvent(ctx, evt); err != nil {
			logger.GetLogger().WithField("submission_id", rec.ID).WithField("error", err).Warn("Failed publishing video event")
		}
	}
	if u.broadcast != nil {
		u.broadcast(evt)
	}
}

func statusOf(rec *model.SubmissionRecord) *model.SubmissionStatus {
	s := &model.SubmissionStatus{
		ID:        rec.ID,
		State:     rec.State,
		Platform:  rec.Platform,
		UpdatedAt: rec.UpdatedAt.UnixMilli(),
	}
	if rec.FileKey != nil {
		s.FileID = *rec.FileKey
	}
	if rec.ErrorMessage != nil {
		s.Error = *rec.ErrorMessage
	}
	return s
}

func (u *SubmissionUsecase) GetStatus(ctx context.Context, id string) (*model.SubmissionStatus, error) {
	if u.status != nil {
		s, err := u.status.GetStatus(ctx, id)
		if err != nil {
			logger.GetLogger().WithField("submission_id", id).WithField("error", err).Warn("Status cache lookup failed")
		} else if s != nil {
			return s, nil
		}
	}
	if u.log != nil {
		rec, err := u.log.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return statusOf(rec), nil
		}
	}
	return nil, apperror.Newf(apperror.KindNotFound, "submission %s not found", id)
}

func (u *SubmissionUsecase) ListRecent(ctx context.Context, limit int) ([]*model.SubmissionRecord, error) {
	if u.log == nil {
		return []*model.SubmissionRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	list, err := u.log.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*model.SubmissionRecord{}
	}
	return list, nil
}
