package http

import (
	"net/http"

	"vidfeed/domain/apperror"
	"vidfeed/domain/dto"
	"vidfeed/usecase"

	"github.com/gin-gonic/gin"
)

type IVideoHandler interface {
	ListVideos(ctx *gin.Context)
	Stream(ctx *gin.Context)
}

type VideoHandler struct {
	catalogUsecase usecase.ICatalogUsecase
	stream         gin.HandlerFunc
}

// NewVideoHandler serves the catalog. stream may be nil when live updates are off.
func NewVideoHandler(catalogUsecase usecase.ICatalogUsecase, stream gin.HandlerFunc) IVideoHandler {
	return &VideoHandler{catalogUsecase: catalogUsecase, stream: stream}
}

// ListVideos handles GET /api/videos?tag=
func (h *VideoHandler) ListVideos(ctx *gin.Context) {
	entries, err := h.catalogUsecase.ListVideos(ctx.Request.Context(), ctx.Query("tag"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.CatalogErrorResponse{
			Error:   "Internal server error",
			Details: err.Error(),
			Type:    apperror.KindOf(err).String(),
		})
		return
	}
	ctx.JSON(http.StatusOK, entries)
}

// Stream handles GET /api/videos/stream
func (h *VideoHandler) Stream(ctx *gin.Context) {
	if h.stream == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed disabled"})
		return
	}
	h.stream(ctx)
}
