package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linlihub/linli-backend/internal/config"
)

func newRulesClassifier() *Classifier {
	return NewClassifier(config.ModerationConfig{Timeout: time.Second})
}

// fakeProvider returns an OpenAI-format chat completion server whose reply
// content is the given string
func fakeProvider(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newLLMClassifier(serverURL string) *Classifier {
	return NewClassifier(config.ModerationConfig{
		ProviderURL: serverURL,
		APIKey:      "test-key",
		Model:       "test-model",
		Timeout:     2 * time.Second,
	})
}

func TestClassifyWithoutProviderUsesRules(t *testing.T) {
	c := newRulesClassifier()

	result := c.Classify(context.Background(), "大家好", "general", CheckTypePrePost)

	assert.Equal(t, ProviderRules, result.Provider)
	assert.Equal(t, "low", result.RiskLevel)
	assert.False(t, result.ShouldBlock)
	assert.False(t, result.NeedsReview)
}

func TestClassifyByRulesThresholds(t *testing.T) {
	c := newRulesClassifier()

	tests := []struct {
		name      string
		text      string
		wantLevel string
	}{
		{"clean text is low", "今天天氣不錯", "low"},
		{"noise complaint is medium", "樓上很吵", "medium"},
		{"mobile number is high", "請撥 0912-345-678", "high"},
		{"name plus unit plus noise is high", "王小明 住在A棟101, 很吵", "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(context.Background(), tt.text, "general", CheckTypePrePost)
			assert.Equal(t, tt.wantLevel, result.RiskLevel)
		})
	}
}

func TestClassifyByRulesMediumAlwaysNeedsReview(t *testing.T) {
	c := newRulesClassifier()

	result := c.Classify(context.Background(), "樓上很吵", "general", CheckTypePrePost)

	assert.Equal(t, "medium", result.RiskLevel)
	assert.True(t, result.NeedsReview)
	assert.False(t, result.ShouldBlock)
}

func TestClassifyByRulesAlertCategoryStricter(t *testing.T) {
	c := newRulesClassifier()

	// noise 2 + accusation 2 = 4: one short of high for a normal post,
	// the alert bump pushes it over
	general := c.Classify(context.Background(), "很吵 詐騙", "general", CheckTypePrePost)
	alert := c.Classify(context.Background(), "很吵 詐騙", "alert", CheckTypePrePost)

	assert.Equal(t, "medium", general.RiskLevel)
	assert.Equal(t, "high", alert.RiskLevel)
}

func TestClassifyByRulesScoreOneStaysLow(t *testing.T) {
	c := newRulesClassifier()

	// Clean text in an alert post picks up only the category bump,
	// landing at 1, just under the medium threshold.
	result := c.Classify(context.Background(), "今天天氣不錯", "alert", CheckTypePrePost)

	assert.Equal(t, 1, result.RiskScore)
	assert.Equal(t, "low", result.RiskLevel)
	assert.False(t, result.ShouldBlock)
	assert.False(t, result.NeedsReview)
}

func TestClassifyShouldBlockOnlyPrePost(t *testing.T) {
	c := newRulesClassifier()
	text := "請撥 0912-345-678"

	prePost := c.Classify(context.Background(), text, "general", CheckTypePrePost)
	report := c.Classify(context.Background(), text, "general", CheckTypeReport)

	assert.True(t, prePost.ShouldBlock)
	assert.False(t, report.ShouldBlock)
	assert.Equal(t, "high", report.RiskLevel)
}

func TestClassifyLLMSuccess(t *testing.T) {
	reply := `{"risk_level": "high", "risk_score": 8, "risks": ["個資外洩"], "suggestions": ["移除電話號碼"], "reasoning": "內容包含手機號碼"}`
	srv := fakeProvider(t, reply)
	defer srv.Close()

	c := newLLMClassifier(srv.URL)
	result := c.Classify(context.Background(), "0912-345-678", "general", CheckTypePrePost)

	assert.Equal(t, ProviderLLM, result.Provider)
	assert.Equal(t, "high", result.RiskLevel)
	assert.Equal(t, 8, result.RiskScore)
	assert.True(t, result.ShouldBlock)
	assert.True(t, result.NeedsReview)
}

func TestClassifyLLMExtractsJSONFromProse(t *testing.T) {
	reply := "好的,以下是評估結果:\n{\"risk_level\": \"low\", \"risk_score\": 1, \"risks\": [], \"suggestions\": [], \"reasoning\": \"一般內容\"}\n以上。"
	srv := fakeProvider(t, reply)
	defer srv.Close()

	c := newLLMClassifier(srv.URL)
	result := c.Classify(context.Background(), "大家好", "general", CheckTypePrePost)

	assert.Equal(t, ProviderLLM, result.Provider)
	assert.Equal(t, "low", result.RiskLevel)
}

func TestClassifyLLMMediumReviewDependsOnCategory(t *testing.T) {
	reply := `{"risk_level": "medium", "risk_score": 4, "risks": ["語氣不佳"], "suggestions": [], "reasoning": "語氣較激烈"}`
	srv := fakeProvider(t, reply)
	defer srv.Close()

	c := newLLMClassifier(srv.URL)

	general := c.Classify(context.Background(), "內容", "general", CheckTypePrePost)
	alert := c.Classify(context.Background(), "內容", "alert", CheckTypePrePost)

	assert.False(t, general.NeedsReview)
	assert.True(t, alert.NeedsReview)
}

func TestClassifyFallsBackOnBadSchema(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json", "抱歉,我無法評估這段內容"},
		{"invalid risk_level", `{"risk_level": "critical", "risk_score": 9, "reasoning": "x"}`},
		{"score out of range", `{"risk_level": "high", "risk_score": 99, "reasoning": "x"}`},
		{"malformed json", `{"risk_level": "high", "risk_score":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeProvider(t, tt.reply)
			defer srv.Close()

			c := newLLMClassifier(srv.URL)
			result := c.Classify(context.Background(), "樓上很吵", "general", CheckTypePrePost)

			// Rule fallback still produces a verdict
			assert.Equal(t, ProviderRules, result.Provider)
			assert.Equal(t, "medium", result.RiskLevel)
		})
	}
}

func TestClassifyFallsBackOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newLLMClassifier(srv.URL)
	result := c.Classify(context.Background(), "0912-345-678", "general", CheckTypePrePost)

	assert.Equal(t, ProviderRules, result.Provider)
	assert.Equal(t, "high", result.RiskLevel)
}

func TestParseLLMResponse(t *testing.T) {
	parsed, err := parseLLMResponse(`{"risk_level": "medium", "risk_score": 4, "risks": ["a"], "suggestions": ["b"], "reasoning": "c"}`)
	assert.NoError(t, err)
	assert.Equal(t, "medium", parsed.RiskLevel)
	assert.Equal(t, 4, parsed.RiskScore)

	_, err = parseLLMResponse("no braces here")
	assert.Error(t, err)

	_, err = parseLLMResponse(`{"risk_level": "", "risk_score": 0}`)
	assert.Error(t, err)

	_, err = parseLLMResponse(fmt.Sprintf(`{"risk_level": "low", "risk_score": %d}`, -1))
	assert.Error(t, err)
}
