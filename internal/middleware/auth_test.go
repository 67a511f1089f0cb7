package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linlihub/linli-backend/pkg/jwt"
)

func authTestRouter(t *testing.T, manager *jwt.Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(manager))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": GetUserID(c),
			"role":    GetUserRole(c),
		})
	})
	return r
}

func TestJWTAuthValidToken(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour)
	token, err := manager.GenerateToken("user-1", "住戶一", "resident")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	r := authTestRouter(t, manager)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestJWTAuthMissingHeader(t *testing.T) {
	r := authTestRouter(t, jwt.NewManager("test-secret", time.Hour))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuthMalformedHeader(t *testing.T) {
	r := authTestRouter(t, jwt.NewManager("test-secret", time.Hour))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	other := jwt.NewManager("other-secret", time.Hour)
	token, _ := other.GenerateToken("user-1", "住戶一", "resident")

	r := authTestRouter(t, jwt.NewManager("test-secret", time.Hour))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
