package http_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
	"vidfeed/domain/dto"
	"vidfeed/domain/model"
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
	return m.Called().Error(0)
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

type MockSubmissionUsecase struct {
	mock.Mock
}

func (m *MockSubmissionUsecase) Submit(ctx context.Context, req dto.SubmitRequest) (*dto.SubmitData, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubmitData), args.Error(1)
}

func (m *MockSubmissionUsecase) GetStatus(ctx context.Context, id string) (*model.SubmissionStatus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubmissionStatus), args.Error(1)
}

func (m *MockSubmissionUsecase) ListRecent(ctx context.Context, limit int) ([]*model.SubmissionRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SubmissionRecord), args.Error(1)
}

type MockCatalogUsecase struct {
	mock.Mock
}

func (m *MockCatalogUsecase) ListVideos(ctx context.Context, tag string) ([]model.CatalogEntry, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CatalogEntry), args.Error(1)
}
