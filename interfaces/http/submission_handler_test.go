package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"vidfeed/domain/apperror"
	"vidfeed/domain/dto"
	"vidfeed/domain/model"
	handler "vidfeed/interfaces/http"
	"vidfeed/usecase"
)

func submissionRouter(uc usecase.ISubmissionUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewSubmissionHandler(uc)
	r.POST("/api/submit", h.Submit)
	r.GET("/api/submissions/:id", h.GetSubmission)
	r.GET("/api/submissions", h.ListSubmissions)
	return r
}

func postSubmit(r http.Handler, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/submit", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestSubmitEndToEnd(t *testing.T) {
	runner := new(MockActorRunner)
	fetcher := new(MockMediaFetcher)
	storage := new(MockFileStorage)
	url := "https://www.tiktok.com/@user/video/123"
	handle := &model.JobHandle{RunID: "run1", DatasetID: "ds1"}

	runner.On("SubmitJob", mock.Anything, "tiktok-actor", mock.Anything).Return(handle, nil).Once()
	runner.On("AwaitResult", mock.Anything, handle, time.Minute).
		Return([]json.RawMessage{json.RawMessage(`{"text":"funny cat","mediaUrls":["https://cdn/example.mp4"],"authorMeta":{"name":"user"}}`)}, nil).Once()
	runner.On("Close").Return(nil).Once()
	fetcher.On("Fetch", mock.Anything, "https://cdn/example.mp4").Return([]byte("0123456789"), nil).Once()

	name := regexp.MustCompile(`^tiktok_\d+_[0-9a-z]{6}\.mp4$`)
	storage.On("UploadFiles", mock.Anything, mock.MatchedBy(func(files []model.UploadFile) bool {
		return len(files) == 1 && name.MatchString(files[0].Name) && files[0].CustomID == "funny,cats" && len(files[0].Data) == 10
	})).Return([]model.UploadFileResult{{Data: &model.UploadedFile{Key: "abc", URL: "https://files/abc", Name: "tiktok_1700000000000_a1b2c3.mp4", Size: 10}}}, nil).Once()

	actors := usecase.ActorConfig{TikTokActor: "tiktok-actor", InstagramActor: "instagram-actor", WaitTimeout: time.Minute}
	factory := func() (usecase.IMetadataResolver, error) {
		return usecase.NewMetadataResolver(runner, fetcher, actors), nil
	}
	uc := usecase.NewSubmissionUsecase(factory, usecase.NewPublisher(storage, fetcher, nil, 0))

	w, out := postSubmit(submissionRouter(uc), `{"url":"`+url+`","tags":"funny,cats"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Video uploaded successfully", out["message"])

	data := out["data"].(map[string]interface{})
	assert.Equal(t, "abc", data["fileId"])
	assert.Equal(t, "https://files/abc", data["fileUrl"])
	assert.Equal(t, float64(10), data["fileSize"])
	assert.NotEmpty(t, data["submissionId"])
	metadata := data["metadata"].(map[string]interface{})
	assert.Equal(t, "tiktok", metadata["platform"])
	assert.Equal(t, "funny cat", metadata["title"])
	assert.Equal(t, "user", metadata["author"])
	assert.Equal(t, url, metadata["originalUrl"])

	runner.AssertExpectations(t)
	fetcher.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestSubmitUnsupportedURLMakesNoCalls(t *testing.T) {
	runner := new(MockActorRunner)
	fetcher := new(MockMediaFetcher)
	storage := new(MockFileStorage)
	factoryCalls := 0
	factory := func() (usecase.IMetadataResolver, error) {
		factoryCalls++
		return usecase.NewMetadataResolver(runner, fetcher, usecase.ActorConfig{}), nil
	}
	uc := usecase.NewSubmissionUsecase(factory, usecase.NewPublisher(storage, fetcher, nil, 0))

	w, out := postSubmit(submissionRouter(uc), `{"url":"https://example.com/video"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, usecase.InvalidURLMessage, out["error"])

	assert.Zero(t, factoryCalls)
	assert.Empty(t, runner.Calls)
	assert.Empty(t, fetcher.Calls)
	assert.Empty(t, storage.Calls)
}

func TestSubmitMissingURLIsInvalid(t *testing.T) {
	factoryCalls := 0
	uc := usecase.NewSubmissionUsecase(func() (usecase.IMetadataResolver, error) {
		factoryCalls++
		return nil, nil
	}, nil)

	for _, body := range []string{`{}`, `{"url":""}`, `{"tags":"cats"}`} {
		w, out := postSubmit(submissionRouter(uc), body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, usecase.InvalidURLMessage, out["error"], body)
	}
	assert.Zero(t, factoryCalls)
}

func TestSubmitMapsErrorKindToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperror.New(apperror.KindNotFound, "No video data found for this URL"), http.StatusNotFound},
		{apperror.New(apperror.KindTimeout, "actor run did not finish"), http.StatusRequestTimeout},
		{apperror.New(apperror.KindTooLarge, "video file too large"), http.StatusRequestEntityTooLarge},
		{apperror.New(apperror.KindUpload, "upload failed"), http.StatusInternalServerError},
		{apperror.New(apperror.KindDownload, "status 403"), http.StatusInternalServerError},
		// message text never picks the status
		{errors.New("request timeout: not found"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			uc := new(MockSubmissionUsecase)
			uc.On("Submit", mock.Anything, dto.SubmitRequest{URL: "https://www.tiktok.com/@u/video/1"}).Return(nil, tc.err).Once()

			w, out := postSubmit(submissionRouter(uc), `{"url":"https://www.tiktok.com/@u/video/1"}`)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tc.err.Error(), out["error"])
		})
	}
}

func TestSubmitMalformedBody(t *testing.T) {
	uc := new(MockSubmissionUsecase)
	w, out := postSubmit(submissionRouter(uc), `{"url":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, out["success"])
	uc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestGetSubmission(t *testing.T) {
	uc := new(MockSubmissionUsecase)
	uc.On("GetStatus", mock.Anything, "s1").Return(&model.SubmissionStatus{ID: "s1", State: model.SubmissionUploading}, nil).Once()
	uc.On("GetStatus", mock.Anything, "nope").Return(nil, apperror.New(apperror.KindNotFound, "submission nope not found")).Once()
	r := submissionRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/submissions/s1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"s1","state":"uploading","updatedAt":0}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/submissions/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSubmissions(t *testing.T) {
	uc := new(MockSubmissionUsecase)
	uc.On("ListRecent", mock.Anything, 5).Return([]*model.SubmissionRecord{{ID: "s1"}}, nil).Once()
	r := submissionRouter(uc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/submissions?limit=5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var list []model.SubmissionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/submissions?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
