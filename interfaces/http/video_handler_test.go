package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"vidfeed/domain/apperror"
	"vidfeed/domain/dto"
	"vidfeed/domain/model"
	handler "vidfeed/interfaces/http"
)

func videoRouter(h handler.IVideoHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/videos", h.ListVideos)
	r.GET("/api/videos/stream", h.Stream)
	return r
}

func TestListVideos(t *testing.T) {
	uc := new(MockCatalogUsecase)
	uc.On("ListVideos", mock.Anything, "cats").Return([]model.CatalogEntry{
		{ID: "k2", URL: "https://u/k2", Source: "TikTok", UploadedAt: 2, Tags: []string{"cats"}},
	}, nil).Once()
	uc.On("ListVideos", mock.Anything, "").Return([]model.CatalogEntry{}, nil).Once()
	r := videoRouter(handler.NewVideoHandler(uc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos?tag=cats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var entries []model.CatalogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "k2", entries[0].ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListVideosFailure(t *testing.T) {
	uc := new(MockCatalogUsecase)
	uc.On("ListVideos", mock.Anything, "").
		Return(nil, apperror.New(apperror.KindConfiguration, "UPLOADTHING_APP_ID is not set")).Once()
	r := videoRouter(handler.NewVideoHandler(uc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body dto.CatalogErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, dto.CatalogErrorResponse{
		Error:   "Internal server error",
		Details: "UPLOADTHING_APP_ID is not set",
		Type:    "ConfigurationError",
	}, body)
}

func TestListVideosUntypedFailure(t *testing.T) {
	uc := new(MockCatalogUsecase)
	uc.On("ListVideos", mock.Anything, "").Return(nil, errors.New("boom")).Once()
	r := videoRouter(handler.NewVideoHandler(uc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error","details":"boom","type":"InternalError"}`, w.Body.String())
}

func TestStream(t *testing.T) {
	r := videoRouter(handler.NewVideoHandler(new(MockCatalogUsecase), nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	called := false
	r = videoRouter(handler.NewVideoHandler(new(MockCatalogUsecase), func(c *gin.Context) {
		called = true
		c.Status(http.StatusNoContent)
	}))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/videos/stream", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
