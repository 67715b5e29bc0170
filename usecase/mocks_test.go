package usecase_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
	"vidfeed/domain/model"
	"vidfeed/usecase"
)

type MockActorRunner struct {
	mock.Mock
}

func (m *MockActorRunner) SubmitJob(ctx context.Context, actorID string, input interface{}) (*model.JobHandle, error) {
	args := m.Called(ctx, actorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JobHandle), args.Error(1)
}

func (m *MockActorRunner) AwaitResult(ctx context.Context, handle *model.JobHandle, timeout time.Duration) ([]json.RawMessage, error) {
	args := m.Called(ctx, handle, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]json.RawMessage), args.Error(1)
}

func (m *MockActorRunner) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockMediaFetcher struct {
	mock.Mock
}

func (m *MockMediaFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) UploadFiles(ctx context.Context, files []model.UploadFile) ([]model.UploadFileResult, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadFileResult), args.Error(1)
}

func (m *MockFileStorage) ListFiles(ctx context.Context) ([]model.StoredFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StoredFile), args.Error(1)
}

func (m *MockFileStorage) GetFileURLs(ctx context.Context, keys []string) (map[string]string, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockFileStorage) PublicURL(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, platform model.Platform, url string) (*model.VideoMetadata, error) {
	args := m.Called(ctx, platform, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoMetadata), args.Error(1)
}

func (m *MockResolver) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, meta *model.VideoMetadata, originalURL, tags string) (*model.UploadResult, error) {
	args := m.Called(ctx, meta, originalURL, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResult), args.Error(1)
}

func (m *MockPublisher) UploadVideoFromURL(ctx context.Context, source, originalURL, tags string) (*model.UploadResult, error) {
	args := m.Called(ctx, source, originalURL, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResult), args.Error(1)
}

func (m *MockPublisher) UploadVideoBuffer(ctx context.Context, buf []byte, originalURL, tags string) (*model.UploadResult, error) {
	args := m.Called(ctx, buf, originalURL, tags)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResult), args.Error(1)
}

type MockStatusCache struct {
	mock.Mock
}

func (m *MockStatusCache) SetStatus(ctx context.Context, status *model.SubmissionStatus) error {
	// copy so later transitions do not rewrite recorded arguments
	cp := *status
	args := m.Called(ctx, &cp)
	return args.Error(0)
}

func (m *MockStatusCache) GetStatus(ctx context.Context, id string) (*model.SubmissionStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubmissionStatus), args.Error(1)
}

type MockSubmissionLog struct {
	mock.Mock
}

func (m *MockSubmissionLog) Create(ctx context.Context, rec *model.SubmissionRecord) error {
	cp := *rec
	args := m.Called(ctx, &cp)
	return args.Error(0)
}

func (m *MockSubmissionLog) UpdateState(ctx context.Context, rec *model.SubmissionRecord) error {
	cp := *rec
	args := m.Called(ctx, &cp)
	return args.Error(0)
}

func (m *MockSubmissionLog) GetByID(ctx context.Context, id string) (*model.SubmissionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubmissionRecord), args.Error(1)
}

func (m *MockSubmissionLog) ListRecent(ctx context.Context, limit int) ([]*model.SubmissionRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SubmissionRecord), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishVideoEvent(ctx context.Context, evt *model.VideoPublishedEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// compile-time checks
var (
	_ usecase.IMetadataResolver = (*MockResolver)(nil)
	_ usecase.IPublisher        = (*MockPublisher)(nil)
)
