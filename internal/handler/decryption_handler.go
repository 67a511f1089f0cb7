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

// DecryptionHandler handles identity decryption request endpoints
type DecryptionHandler struct {
	service *service.DecryptionService
}

// NewDecryptionHandler creates a new DecryptionHandler
func NewDecryptionHandler(service *service.DecryptionService) *DecryptionHandler {
	return &DecryptionHandler{service: service}
}

// Create handles POST /api/v1/decryption-requests
// @Summary 申請解密
// @Description 對半匿名內容的作者身分提出解密申請
// @Tags decryption
// @Accept json
// @Produce json
// @Param request body domain.CreateDecryptionRequest true "申請內容"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.Response
// @Failure 401 {object} common.Response
// @Security BearerAuth
// @Router /decryption-requests [post]
func (h *DecryptionHandler) Create(c *gin.Context) {
	var req domain.CreateDecryptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
		return
	}

	request, err := h.service.Create(middleware.GetUserID(c), req)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "解密申請建立失敗", err)
		return
	}

	common.Created(c, request)
}

// List handles GET /api/v1/decryption-requests
// @Summary 解密申請列表
// @Description 取得解密申請列表（委員會與管理員）
// @Tags decryption
// @Produce json
// @Param status query string false "狀態 (requested, committee_approved, fully_approved, rejected)"
// @Param page query int false "頁碼"
// @Param limit query int false "每頁筆數"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Security BearerAuth
// @Router /decryption-requests [get]
func (h *DecryptionHandler) List(c *gin.Context) {
	status := c.Query("status")
	page, limit := parsePagination(c)

	requests, total, err := h.service.List(status, page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "解密申請查詢失敗", err)
		return
	}

	common.SuccessWithMeta(c, requests, common.NewMeta(page, limit, total))
}

// Get handles GET /api/v1/decryption-requests/:id
// @Summary 解密申請詳情
// @Tags decryption
// @Produce json
// @Param id path string true "申請 ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.Response
// @Security BearerAuth
// @Router /decryption-requests/{id} [get]
func (h *DecryptionHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrRequestNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "找不到解密申請", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "解密申請查詢失敗", err)
		return
	}

	common.Success(c, request)
}

// CommitteeReview handles POST /api/v1/decryption-requests/:id/committee-review
// @Summary 委員會審核
// @Description 委員會對解密申請做出決定，僅在申請狀態為 requested 時有效
// @Tags decryption
// @Accept json
// @Produce json
// @Param id path string true "申請 ID"
// @Param request body domain.ReviewDecryptionRequest true "審核內容"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Failure 409 {object} common.Response
// @Security BearerAuth
// @Router /decryption-requests/{id}/committee-review [post]
func (h *DecryptionHandler) CommitteeReview(c *gin.Context) {
	h.review(c, h.service.CommitteeReview)
}

// AdminReview handles POST /api/v1/decryption-requests/:id/admin-review
// @Summary 管理員審核
// @Description 管理員對解密申請做出決定，雙方核可後申請才成立
// @Tags decryption
// @Accept json
// @Produce json
// @Param id path string true "申請 ID"
// @Param request body domain.ReviewDecryptionRequest true "審核內容"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Failure 409 {object} common.Response
// @Security BearerAuth
// @Router /decryption-requests/{id}/admin-review [post]
func (h *DecryptionHandler) AdminReview(c *gin.Context) {
	h.review(c, h.service.AdminReview)
}

// Reveal handles GET /api/v1/decryption-requests/:id/reveal
// @Summary 揭露身分
// @Description 取得已完成雙重核可之申請的作者身分
// @Tags decryption
// @Produce json
// @Param id path string true "申請 ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Failure 404 {object} common.Response
// @Security BearerAuth
// @Router /decryption-requests/{id}/reveal [get]
func (h *DecryptionHandler) Reveal(c *gin.Context) {
	identity, err := h.service.Reveal(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRequestNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "找不到解密申請", nil)
		case errors.Is(err, common.ErrRevealNotAllowed):
			common.ErrorResponse(c, http.StatusForbidden, "申請尚未完成雙重核可", nil)
		case errors.Is(err, common.ErrPostNotFound), errors.Is(err, common.ErrCommentNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "找不到申請對象的內容", nil)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "身分揭露失敗", err)
		}
		return
	}

	common.Success(c, identity)
}

// AuditTrail handles GET /api/v1/decryption-requests/:id/audit
// @Summary 申請稽核紀錄
// @Description 取得單一解密申請的完整稽核鏈
// @Tags decryption
// @Produce json
// @Param id path string true "申請 ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.Response
// @Failure 403 {object} common.Response
// @Security BearerAuth
// @Router /decryption-requests/{id}/audit [get]
func (h *DecryptionHandler) AuditTrail(c *gin.Context) {
	entries, err := h.service.AuditTrail(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "稽核紀錄查詢失敗", err)
		return
	}

	common.Success(c, entries)
}

type reviewFunc func(requestID, reviewerID string, approved bool, notes string) (*domain.DecryptionRequest, error)

func (h *DecryptionHandler) review(c *gin.Context, fn reviewFunc) {
	var req domain.ReviewDecryptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
		return
	}

	request, err := fn(c.Param("id"), middleware.GetUserID(c), *req.Approved, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRequestNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "找不到解密申請", nil)
		case errors.Is(err, common.ErrAlreadyReviewed), errors.Is(err, common.ErrRequestFinalized):
			common.ErrorResponse(c, http.StatusConflict, "此申請已無法再審核", nil)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "審核失敗", err)
		}
		return
	}

	common.Success(c, request)
}
