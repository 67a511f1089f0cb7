package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linlihub/linli-backend/internal/common"
	"github.com/linlihub/linli-backend/internal/domain"
	"github.com/linlihub/linli-backend/internal/middleware"
	"github.com/linlihub/linli-backend/internal/service"
)

// ContentHandler handles post and comment requests
type ContentHandler struct {
	service *service.ModerationService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(service *service.ModerationService) *ContentHandler {
	return &ContentHandler{service: service}
}

// CreatePost handles POST /api/v1/posts
// @Summary 發表貼文
// @Description 發表貼文，內容會先經過風險審查，高風險內容進入待審狀態
// @Tags posts
// @Accept json
// @Produce json
// @Param request body domain.CreatePostRequest true "貼文內容"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.Response
// @Failure 401 {object} common.Response
// @Security BearerAuth
// @Router /posts [post]
func (h *ContentHandler) CreatePost(c *gin.Context) {
	var req domain.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
		return
	}

	result, err := h.service.SubmitPost(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "貼文發表失敗", err)
		return
	}

	common.Created(c, result)
}

// ListPosts handles GET /api/v1/posts
// @Summary 貼文列表
// @Description 取得已發布的貼文列表
// @Tags posts
// @Produce json
// @Param category query string false "分類"
// @Param page query int false "頁碼"
// @Param limit query int false "每頁筆數"
// @Success 200 {object} common.Response
// @Router /posts [get]
func (h *ContentHandler) ListPosts(c *gin.Context) {
	category := c.Query("category")
	page, limit := parsePagination(c)

	posts, total, err := h.service.ListPosts(c.Request.Context(), category, page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "貼文列表查詢失敗", err)
		return
	}

	common.SuccessWithMeta(c, posts, common.NewMeta(page, limit, total))
}

// GetPost handles GET /api/v1/posts/:id
// @Summary 貼文詳情
// @Description 取得單一貼文，已移除的貼文回傳 404
// @Tags posts
// @Produce json
// @Param id path string true "貼文 ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.Response
// @Router /posts/{id} [get]
func (h *ContentHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, common.ErrPostNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "找不到貼文", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "貼文查詢失敗", err)
		return
	}

	common.Success(c, post)
}

// CreateComment handles POST /api/v1/posts/:id/comments
// @Summary 發表留言
// @Description 對貼文發表留言，內容會先經過風險審查
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "貼文 ID"
// @Param request body domain.CreateCommentRequest true "留言內容"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.Response
// @Failure 404 {object} common.Response
// @Failure 410 {object} common.Response
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (h *ContentHandler) CreateComment(c *gin.Context) {
	var req domain.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
		return
	}

	result, err := h.service.SubmitComment(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrPostNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "找不到貼文", nil)
		case errors.Is(err, common.ErrContentRemoved):
			common.ErrorResponse(c, http.StatusGone, "貼文已被移除", nil)
		case errors.Is(err, common.ErrInvalidInput):
			common.ErrorResponse(c, http.StatusBadRequest, "請求格式錯誤", err)
		default:
			common.ErrorResponse(c, http.StatusInternalServerError, "留言發表失敗", err)
		}
		return
	}

	common.Created(c, result)
}

// ListComments handles GET /api/v1/posts/:id/comments
// @Summary 留言列表
// @Description 取得貼文的留言列表，已移除的留言不會出現
// @Tags comments
// @Produce json
// @Param id path string true "貼文 ID"
// @Param page query int false "頁碼"
// @Param limit query int false "每頁筆數"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.Response
// @Router /posts/{id}/comments [get]
func (h *ContentHandler) ListComments(c *gin.Context) {
	page, limit := parsePagination(c)

	comments, total, err := h.service.ListComments(c.Param("id"), middleware.GetUserID(c), page, limit)
	if err != nil {
		if errors.Is(err, common.ErrPostNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "找不到貼文", nil)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "留言列表查詢失敗", err)
		return
	}

	common.SuccessWithMeta(c, comments, common.NewMeta(page, limit, total))
}

func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
