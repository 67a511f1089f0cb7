package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAPIArea(t *testing.T) {
	cases := []struct {
		route string
		want  string
	}{
		{"/api/v1/posts", "content"},
		{"/api/v1/posts/:id/comments", "content"},
		{"/api/v1/reports", "reports"},
		{"/api/v1/moderation/queue/:id/resolve", "moderation"},
		{"/api/v1/decryption-requests/:id/reveal", "decryption"},
		{"/api/v1/audit-logs", "audit"},
		{"/health", "system"},
		{"unmatched", "system"},
		{"/api/v1/something-else", "other"},
	}
	for _, tc := range cases {
		if got := apiArea(tc.route); got != tc.want {
			t.Errorf("apiArea(%q) = %q, want %q", tc.route, got, tc.want)
		}
	}
}

func TestMetricsRecordsRequestByArea(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)

	r.Use(Metrics())
	r.GET("/api/v1/moderation/queue", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/moderation/queue", "moderation", "200"))

	req, _ := http.NewRequest("GET", "/api/v1/moderation/queue", nil)
	r.ServeHTTP(w, req)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/moderation/queue", "moderation", "200"))
	if after != before+1 {
		t.Errorf("expected request counter to increase by 1, got %v -> %v", before, after)
	}
	if got := testutil.ToFloat64(activeRequests); got != 0 {
		t.Errorf("expected no in-flight requests after serving, got %v", got)
	}
}

func TestMetricsSkipsScrapeEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)

	r.Use(Metrics())
	r.GET("/metrics", func(c *gin.Context) {
		c.String(http.StatusOK, "scrape")
	})

	req, _ := http.NewRequest("GET", "/metrics", nil)
	r.ServeHTTP(w, req)

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "system", "200")); got != 0 {
		t.Errorf("expected scrape endpoint to stay unrecorded, got %v", got)
	}
}
