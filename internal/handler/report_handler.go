package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linlihub/linli-backend/internal/common"
	"github.com/linlihub/linli-backend/internal/domain"
	"github.com/linlihub/linli-backend/internal/middleware"
	"github.com/linlihub/linli-backend/internal/service"
)

// ReportHandler handles report requests
type ReportHandler struct {
	service *service.ModerationService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *service.ModerationService) *ReportHandler {
	return &ReportHandler{service: service}
}

// CreateReport handles POST /api/v1/reports
// @Summary 檢舉內容
// @Description 檢舉貼文或留言，檢舉一律進入審核佇列
// @Tags reports
// @Accept json
// @Produce json
// @Param request body domain.CreateReportRequest true "檢舉內容"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 404 {object} common.Response
// @Security BearerAuth
// @Router /reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req domain.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
		return
	}

	report, err := h.service.SubmitReport(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidInput):
			common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
		case errors.Is(err, common.ErrPostNotFound), errors.Is(err, common.ErrCommentNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "找不到檢舉對象", nil)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "檢舉送出失敗", err)
		}
		return
	}

	common.Created(c, report)
}
