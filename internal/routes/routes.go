package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/linlihub/linli-backend/internal/handler"
	"github.com/linlihub/linli-backend/internal/middleware"
	"github.com/linlihub/linli-backend/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	contentHandler *handler.ContentHandler,
	reportHandler *handler.ReportHandler,
	moderationHandler *handler.ModerationHandler,
	decryptionHandler *handler.DecryptionHandler,
	auditHandler *handler.AuditHandler,
	jwtManager *jwt.Manager,
) {
	api := router.Group("/api/v1")

	// Posts and comments (read endpoints are public, writes require auth)
	posts := api.Group("/posts")
	{
		posts.GET("", contentHandler.ListPosts)
		posts.GET("/:id", contentHandler.GetPost)
		posts.GET("/:id/comments", contentHandler.ListComments)
		posts.POST("", middleware.JWTAuth(jwtManager), contentHandler.CreatePost)
		posts.POST("/:id/comments", middleware.JWTAuth(jwtManager), contentHandler.CreateComment)
	}

	// Reports
	api.POST("/reports", middleware.JWTAuth(jwtManager), reportHandler.CreateReport)

	// Moderation queue (guard, committee, admin)
	moderation := api.Group("/moderation", middleware.JWTAuth(jwtManager), middleware.RequireModerator())
	{
		moderation.GET("/queue", moderationHandler.ListQueue)
		moderation.GET("/queue/summary", moderationHandler.Summary)
		moderation.POST("/queue/:id/resolve", moderationHandler.Resolve)
	}

	// Identity decryption workflow
	decryption := api.Group("/decryption-requests", middleware.JWTAuth(jwtManager))
	{
		decryption.POST("", decryptionHandler.Create)
		decryption.GET("", middleware.RequireCommittee(), decryptionHandler.List)
		decryption.GET("/:id", middleware.RequireCommittee(), decryptionHandler.Get)
		decryption.POST("/:id/committee-review", middleware.RequireCommittee(), decryptionHandler.CommitteeReview)
		decryption.POST("/:id/admin-review", middleware.RequireAdmin(), decryptionHandler.AdminReview)
		decryption.GET("/:id/reveal", middleware.RequireCommittee(), decryptionHandler.Reveal)
		decryption.GET("/:id/audit", middleware.RequireAdmin(), decryptionHandler.AuditTrail)
	}

	// Audit log (admin only)
	api.GET("/audit-logs", middleware.JWTAuth(jwtManager), middleware.RequireAdmin(), auditHandler.List)
}
