package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/linlihub/linli-backend/internal/domain"
)

func serveWithRole(t *testing.T, role string, guard gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)

	r.Use(func(c *gin.Context) {
		c.Set("role", role)
		c.Next()
	})
	r.Use(guard)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAdmin(t *testing.T) {
	if code := serveWithRole(t, domain.RoleAdmin, RequireAdmin()); code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", code)
	}
	if code := serveWithRole(t, domain.RoleCommittee, RequireAdmin()); code != http.StatusForbidden {
		t.Errorf("expected 403 for committee, got %d", code)
	}
}

func TestRequireCommittee(t *testing.T) {
	for _, role := range []string{domain.RoleCommittee, domain.RoleAdmin} {
		if code := serveWithRole(t, role, RequireCommittee()); code != http.StatusOK {
			t.Errorf("expected 200 for %s, got %d", role, code)
		}
	}
	if code := serveWithRole(t, domain.RoleResident, RequireCommittee()); code != http.StatusForbidden {
		t.Errorf("expected 403 for resident, got %d", code)
	}
}

func TestRequireModerator(t *testing.T) {
	for _, role := range []string{domain.RoleGuard, domain.RoleCommittee, domain.RoleAdmin} {
		if code := serveWithRole(t, role, RequireModerator()); code != http.StatusOK {
			t.Errorf("expected 200 for %s, got %d", role, code)
		}
	}
	if code := serveWithRole(t, domain.RoleResident, RequireModerator()); code != http.StatusForbidden {
		t.Errorf("expected 403 for resident, got %d", code)
	}
	if code := serveWithRole(t, "", RequireModerator()); code != http.StatusForbidden {
		t.Errorf("expected 403 for missing role, got %d", code)
	}
}
