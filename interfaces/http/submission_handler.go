package http

import (
	"net/http"
	"strconv"

	"vidfeed/domain/apperror"
	"vidfeed/domain/dto"
	"vidfeed/infrastructure/logger"
	"vidfeed/usecase"

	"github.com/gin-gonic/gin"
)

const submitSuccessMessage = "Video uploaded successfully"

type ISubmissionHandler interface {
	Submit(ctx *gin.Context)
	GetSubmission(ctx *gin.Context)
	ListSubmissions(ctx *gin.Context)
}

type SubmissionHandler struct {
	submissionUsecase usecase.ISubmissionUsecase
}

func NewSubmissionHandler(submissionUsecase usecase.ISubmissionUsecase) ISubmissionHandler {
	return &SubmissionHandler{submissionUsecase: submissionUsecase}
}

// Submit handles POST /api/submit
func (h *SubmissionHandler) Submit(ctx *gin.Context) {
	var req dto.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.SubmitResponse{Success: false, Error: "Invalid request body"})
		return
	}
	logger.GetLogger().WithField("url", req.URL).Info("Processing video submission")

	data, err := h.submissionUsecase.Submit(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(apperror.KindOf(err).HTTPStatus(), dto.SubmitResponse{Success: false, Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.SubmitResponse{Success: true, Message: submitSuccessMessage, Data: data})
}

// GetSubmission handles GET /api/submissions/:id
func (h *SubmissionHandler) GetSubmission(ctx *gin.Context) {
	status, err := h.submissionUsecase.GetStatus(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(apperror.KindOf(err).HTTPStatus(), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, status)
}

// ListSubmissions handles GET /api/submissions?limit=n
func (h *SubmissionHandler) ListSubmissions(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = val
	}
	list, err := h.submissionUsecase.ListRecent(ctx.Request.Context(), limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while listing submissions")
		ctx.JSON(apperror.KindOf(err).HTTPStatus(), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, list)
}
