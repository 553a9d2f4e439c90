package http

import (
	"errors"
	"net/http"
	"strconv"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IPublishHandler interface {
	Publish(ctx *gin.Context)
	GetJob(ctx *gin.Context)
	ListJobs(ctx *gin.Context)
	ProcessJobs(ctx *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPublishHandler(uc usecase.IPublishUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: uc}
}

func (h *PublishHandler) Publish(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return
	}
	var req dto.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.UserID = userID

	resp, err := h.publishUsecase.Publish(ctx.Request.Context(), &req)
	if err != nil {
		logger.GetLogger().
			WithField("user_id", userID).
			WithField("error", err.Error()).
			Warn("publish request failed")
		writePublishError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *PublishHandler) GetJob(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	jobID, err := strconv.ParseInt(ctx.Param("jobId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}
	job, err := h.publishUsecase.GetJob(ctx.Request.Context(), userID, jobID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	ctx.JSON(http.StatusOK, job)
}

func (h *PublishHandler) ListJobs(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	limit := 50
	if v := ctx.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	jobs, err := h.publishUsecase.ListJobs(ctx.Request.Context(), userID, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if jobs == nil {
		jobs = []*model.PublishJob{}
	}
	ctx.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// ProcessJobs allows manual triggering of pending publish job processing (admin/dev utility)
func (h *PublishHandler) ProcessJobs(ctx *gin.Context) {
	batchSize := 10
	if v := ctx.Query("batch"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			batchSize = n
		}
	}
	if err := h.publishUsecase.ProcessPending(ctx.Request.Context(), batchSize); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"processed": false, "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"processed": true, "batch": batchSize})
}

// writePublishError maps publish error codes onto HTTP statuses and always
// surfaces the advice text so the dashboard can show the user what to do.
func writePublishError(ctx *gin.Context, err error) {
	var pe *model.PublishError
	if !errors.As(err, &pe) {
		// Plain errors out of the usecase are validation failures
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusBadGateway
	switch pe.Code {
	case model.ErrNoCredential, model.ErrAuthDenied:
		status = http.StatusUnauthorized
	case model.ErrPermissionDenied:
		status = http.StatusForbidden
	case model.ErrFileNotFound, model.ErrSchedulingInvalid:
		status = http.StatusBadRequest
	case model.ErrUploadIncomplete:
		status = http.StatusGatewayTimeout
	case model.ErrRefreshFailed, model.ErrProviderError:
		status = http.StatusBadGateway
	}
	ctx.JSON(status, gin.H{
		"error":  pe.Message,
		"code":   string(pe.Code),
		"advice": pe.Advice,
	})
}
