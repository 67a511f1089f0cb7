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

// ModerationHandler handles moderation queue requests
type ModerationHandler struct {
	service *service.ModerationService
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(service *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// ListQueue handles GET /api/v1/moderation/queue
// @Summary 審核佇列
// @Description 取得待審核項目列表（管理端）
// @Tags moderation
// @Produce json
// @Param priority query string false "優先度 (urgent, high, medium)"
// @Param page query int false "頁碼"
// @Param limit query int false "每頁筆數"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Security BearerAuth
// @Router /moderation/queue [get]
func (h *ModerationHandler) ListQueue(c *gin.Context) {
	priority := c.Query("priority")
	page, limit := parsePagination(c)

	items, total, err := h.service.ListQueue(priority, page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "審核佇列查詢失敗", err)
		return
	}

	common.SuccessWithMeta(c, items, common.NewMeta(page, limit, total))
}

// Summary handles GET /api/v1/moderation/queue/summary
// @Summary 審核佇列統計
// @Description 取得各優先度的待審數量與逾期數
// @Tags moderation
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Security BearerAuth
// @Router /moderation/queue/summary [get]
func (h *ModerationHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "審核統計查詢失敗", err)
		return
	}

	common.Success(c, summary)
}

// Resolve handles POST /api/v1/moderation/queue/:id/resolve
// @Summary 處置審核項目
// @Description 對佇列項目做出終局處置，每個項目只能處置一次
// @Tags moderation
// @Accept json
// @Produce json
// @Param id path string true "佇列項目 ID"
// @Param request body domain.ResolveRequest true "處置內容"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Failure 409 {object} common.Response
// @Security BearerAuth
// @Router /moderation/queue/{id}/resolve [post]
func (h *ModerationHandler) Resolve(c *gin.Context) {
	var req domain.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
		return
	}

	err := h.service.Resolve(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Action, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrQueueItemNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "找不到佇列項目", nil)
		case errors.Is(err, common.ErrAlreadyResolved):
			common.ErrorResponse(c, http.StatusConflict, "此項目已處置完畢", nil)
		case errors.Is(err, common.ErrInvalidAction):
			common.ErrorResponse(c, http.StatusBadRequest, "不支援的處置動作", nil)
		case errors.Is(err, common.ErrPostNotFound), errors.Is(err, common.ErrCommentNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "找不到處置對象", nil)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "處置失敗", err)
		}
		return
	}

	common.Success(c, gin.H{"resolved": true})
}
