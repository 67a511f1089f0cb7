package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linlihub/linli-backend/internal/common"
	"github.com/linlihub/linli-backend/internal/service"
)

// AuditHandler exposes the audit log to administrators
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List handles GET /api/v1/audit-logs
// @Summary 稽核紀錄查詢
// @Description 依動作類型或對象篩選稽核紀錄（管理員）
// @Tags audit
// @Produce json
// @Param action_type query string false "動作類型"
// @Param target_type query string false "對象類型 (post, comment, report)"
// @Param target_id query string false "對象 ID"
// @Param page query int false "頁碼"
// @Param limit query int false "每頁筆數"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Security BearerAuth
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	actionType := c.Query("action_type")
	targetType := c.Query("target_type")
	targetID := c.Query("target_id")
	page, limit := parsePagination(c)

	entries, total, err := h.service.List(actionType, targetType, targetID, page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "稽核紀錄查詢失敗", err)
		return
	}

	common.SuccessWithMeta(c, entries, common.NewMeta(page, limit, total))
}
