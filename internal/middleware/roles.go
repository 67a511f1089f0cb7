package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linlihub/linli-backend/internal/common"
	"github.com/linlihub/linli-backend/internal/domain"
)

// RequireRole checks that the authenticated user holds one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[GetUserRole(c)] {
			common.ErrorResponse(c, http.StatusForbidden, "需要更高的權限", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts access to admin users
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// RequireCommittee restricts access to committee members and admins
func RequireCommittee() gin.HandlerFunc {
	return RequireRole(domain.RoleCommittee, domain.RoleAdmin)
}

// RequireModerator restricts access to roles that may act on the moderation queue
func RequireModerator() gin.HandlerFunc {
	return RequireRole(domain.RoleGuard, domain.RoleCommittee, domain.RoleAdmin)
}
